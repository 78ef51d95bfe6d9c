package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/itemdeck/itemdeck/internal/tui"
	"github.com/itemdeck/itemdeck/pkg/schema"
	"github.com/itemdeck/itemdeck/pkg/sdk"
)

var serverAddr string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "itemdeck",
		Short: "Terminal client for an itemdeck daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", defaultAddr(), "daemon base URL")

	root.AddCommand(loginCmd(), logoutCmd(), itemsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultAddr() string {
	if v := os.Getenv("ITEMDECK_ADDR"); v != "" {
		return v
	}
	return "http://localhost:7310"
}

func newSession() (*sdk.Client, *sdk.Session) {
	client := sdk.NewClient(serverAddr)
	session := sdk.NewSession(client, &sdk.FileCredentialStore{})
	return client, session
}

func runTUI() error {
	client, session := newSession()
	app := tui.NewApp(session, client)
	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

// resolvedClient restores the persisted session for non-interactive commands.
func resolvedClient(ctx context.Context) (*sdk.Client, *sdk.Session, error) {
	client, session := newSession()
	if err := session.Resolve(ctx); err != nil {
		return nil, nil, err
	}
	if _, ok := session.CurrentIdentity(); !ok {
		return nil, nil, fmt.Errorf("not signed in; run `itemdeck login` first")
	}
	return client, session, nil
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Sign in and store the session token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			_, session := newSession()
			if err := session.SignIn(ctx, args[0], args[1]); err != nil {
				return err
			}
			identity, _ := session.CurrentIdentity()
			fmt.Printf("signed in as %s\n", identity.Email)
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			_, session := newSession()
			if err := session.Resolve(ctx); err != nil {
				log.Printf("warning: %v", err)
			}
			if err := session.SignOut(ctx); err != nil {
				log.Printf("warning: server sign-out failed: %v", err)
			}
			fmt.Println("signed out")
			return nil
		},
	}
}

func itemsCmd() *cobra.Command {
	items := &cobra.Command{
		Use:   "items",
		Short: "Work with items non-interactively",
	}

	items.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your items as JSON, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			client, _, err := resolvedClient(ctx)
			if err != nil {
				return err
			}
			list, err := client.List(ctx)
			if err != nil {
				return err
			}
			printJSON(list)
			return nil
		},
	})

	var status string
	create := &cobra.Command{
		Use:   "create <title> <description>",
		Short: "Create an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			client, _, err := resolvedClient(ctx)
			if err != nil {
				return err
			}
			item, err := client.Create(ctx, args[0], args[1], schema.Status(status))
			if err != nil {
				return err
			}
			printJSON(item)
			return nil
		},
	}
	create.Flags().StringVar(&status, "status", "", "initial status (active|inactive|pending)")
	items.AddCommand(create)

	items.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()

			client, _, err := resolvedClient(ctx)
			if err != nil {
				return err
			}
			if err := client.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	})

	return items
}

func printJSON(v any) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(bytes))
}
