package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/itemdeck/itemdeck/internal/auth"
	"github.com/itemdeck/itemdeck/pkg/schema"
)

const userKey = "itemdeck.user"

// NewRouter wires all API routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()
	r.Use(cors())

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/auth/signup", h.SignUp)
		apiGroup.POST("/auth/verify", h.Verify)
		apiGroup.POST("/auth/signin", h.SignIn)

		authed := apiGroup.Group("", h.requireSession())
		{
			authed.POST("/auth/signout", h.SignOut)
			authed.GET("/auth/session", h.Session)
			authed.GET("/items", h.ListItems)
			authed.POST("/items", h.CreateItem)
			authed.PUT("/items/:id", h.UpdateItem)
			authed.DELETE("/items/:id", h.DeleteItem)
		}
	}
	return r
}

// requireSession resolves the bearer token and stores the account on the
// context. Everything behind it can assume an authenticated owner.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "code": "unauthorized"})
			return
		}
		user, err := h.Store.SessionUser(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session", "code": "unauthorized"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func currentUser(c *gin.Context) schema.UserRecord {
	user, _ := c.Get(userKey)
	rec, _ := user.(schema.UserRecord)
	return rec
}

func nowPlusTTL() time.Time {
	return time.Now().UTC().Add(auth.SessionTTL)
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
