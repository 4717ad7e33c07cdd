// Package session persists the submitter identity between runs. It is
// written once at login and read once when a workflow that needs it starts;
// nothing else in the client owns or mutates it.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Identity is the locally stored account reference. It is opaque to the
// rest of the client: the listing workflow receives the UserID at
// construction and never reads storage itself.
type Identity struct {
	UserID  string    `json:"userId"`
	Email   string    `json:"email,omitempty"`
	SavedAt time.Time `json:"savedAt"`
}

// IsZero reports whether no identity has been stored.
func (i Identity) IsZero() bool { return i.UserID == "" }

// Load reads the stored identity. A missing file is not an error; it
// returns the zero identity.
func Load(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Identity{}, nil
		}
		return Identity{}, fmt.Errorf("failed to read identity: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("failed to parse identity: %w", err)
	}
	return id, nil
}

// Save writes the identity, stamping SavedAt.
func Save(path string, id Identity) error {
	id.SavedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write identity: %w", err)
	}
	return nil
}
