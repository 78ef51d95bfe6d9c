package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

const itemsDirName = "items"

// Snapshot is everything the engine keeps, as loaded from or written to disk.
type Snapshot struct {
	Users    map[string]schema.UserRecord
	Sessions map[string]schema.SessionRecord
	Items    map[string]map[string]schema.Item
}

// Persistence handles the disk I/O for the MemStore. Layout:
//
//	<dir>/users.json
//	<dir>/sessions.json
//	<dir>/items/<ownerID>.json
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Protects concurrent writes to the filesystem
}

// NewPersistence initializes a persistence handler, creating the layout.
func NewPersistence(dir string) (*Persistence, error) {
	if err := os.MkdirAll(filepath.Join(dir, itemsDirName), 0755); err != nil {
		return nil, err
	}
	return &Persistence{DataDir: dir}, nil
}

// SaveUsers writes the account table atomically.
func (p *Persistence) SaveUsers(users map[string]schema.UserRecord) error {
	return p.writeJSON(filepath.Join(p.DataDir, "users.json"), users)
}

// SaveSessions writes the session table atomically.
func (p *Persistence) SaveSessions(sessions map[string]schema.SessionRecord) error {
	return p.writeJSON(filepath.Join(p.DataDir, "sessions.json"), sessions)
}

// SaveOwnerItems writes a single owner's items to their own file atomically.
func (p *Persistence) SaveOwnerItems(ownerID string, items map[string]schema.Item) error {
	return p.writeJSON(filepath.Join(p.DataDir, itemsDirName, ownerID+".json"), items)
}

// writeJSON writes to a temporary file first and swaps it in with an atomic
// rename, so a crash leaves either the old file or the new one, never a
// corrupt mix.
func (p *Persistence) writeJSON(path string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

// LoadAll reads back the full snapshot. Unreadable or malformed files are
// logged and skipped rather than failing startup.
func (p *Persistence) LoadAll() (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		Users:    make(map[string]schema.UserRecord),
		Sessions: make(map[string]schema.SessionRecord),
		Items:    make(map[string]map[string]schema.Item),
	}

	if err := readJSON(filepath.Join(p.DataDir, "users.json"), &snap.Users); err != nil {
		log.Printf("Warning: could not load users: %v", err)
	}
	if err := readJSON(filepath.Join(p.DataDir, "sessions.json"), &snap.Sessions); err != nil {
		log.Printf("Warning: could not load sessions: %v", err)
	}

	itemsDir := filepath.Join(p.DataDir, itemsDirName)
	files, err := os.ReadDir(itemsDir)
	if err != nil {
		return snap, fmt.Errorf("read items dir: %w", err)
	}
	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		ownerID := strings.TrimSuffix(file.Name(), ".json")
		owned := make(map[string]schema.Item)
		if err := readJSON(filepath.Join(itemsDir, file.Name()), &owned); err != nil {
			log.Printf("Warning: could not load items for %s: %v", ownerID, err)
			continue
		}
		snap.Items[ownerID] = owned
	}
	return snap, nil
}

func readJSON(path string, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(content, v)
}
