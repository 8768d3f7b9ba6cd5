// Package store keeps the legacy team registry: Slack team ids mapped to the
// incoming-webhook URL replies are posted to.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketTeams = []byte("teams")

// ErrInvalidTeam is returned for registrations missing an id or a usable URL.
var ErrInvalidTeam = errors.New("team id and an http(s) webhook url are required")

// Team is a registered workspace.
type Team struct {
	ID        string    `json:"-"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store wraps a BoltDB instance.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) the database at the given path.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTeams)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying DB handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Register stores (or replaces) the webhook URL for a team.
func (s *Store) Register(teamID, webhookURL string) error {
	teamID = strings.TrimSpace(teamID)
	webhookURL = strings.TrimSpace(webhookURL)
	if teamID == "" || !validURL(webhookURL) {
		return ErrInvalidTeam
	}
	data, err := json.Marshal(Team{URL: webhookURL, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTeams).Put([]byte(teamID), data)
	})
}

// Remove deletes a team. Removing an unknown team is not an error.
func (s *Store) Remove(teamID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTeams).Delete([]byte(teamID))
	})
}

// Resolve returns the webhook URL for a team, if registered.
func (s *Store) Resolve(_ context.Context, teamID string) (string, bool, error) {
	if teamID == "" {
		return "", false, nil
	}
	var team Team
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTeams).Get([]byte(teamID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &team)
	})
	if err != nil {
		return "", false, fmt.Errorf("resolve team %s: %w", teamID, err)
	}
	if team.URL == "" {
		return "", false, nil
	}
	return team.URL, true, nil
}

// List returns all registered teams sorted by id.
func (s *Store) List() ([]Team, error) {
	var teams []Team
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTeams).ForEach(func(k, v []byte) error {
			var t Team
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("decode team %s: %w", k, err)
			}
			t.ID = string(k)
			teams = append(teams, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}
