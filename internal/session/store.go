// Package session persists the last shown image per catalog root using
// a BoltDB database, so an interrupted slideshow can pick up where it
// left off.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	dbFileName     = "goslide_session.db"
	sessionsBucket = "Sessions"
)

// Record is what gets stored for a catalog root.
type Record struct {
	Path    string    `json:"path"`
	SavedAt time.Time `json:"saved_at"`
}

// Store manages the session database.
type Store struct {
	db     *bolt.DB
	logger *logrus.Logger
}

// Open creates or opens the session database. An empty dbDir places it
// in the user config directory, falling back to the current directory.
func Open(dbDir string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if dbDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			logger.WithError(err).Warn("no user config dir, using current directory")
			dbDir = "."
		} else {
			dbDir = filepath.Join(configDir, "goslide")
			if err := os.MkdirAll(dbDir, 0750); err != nil {
				return nil, fmt.Errorf("creating config directory %s: %w", dbDir, err)
			}
		}
	}

	dbPath := filepath.Join(dbDir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening session database %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket %s: %w", sessionsBucket, err)
	}

	logger.WithField("path", dbPath).Debug("session database open")
	return &Store{db: db, logger: logger}, nil
}

// Save records path as the last shown image for root.
func (s *Store) Save(root, path string) error {
	data, err := json.Marshal(Record{Path: path, SavedAt: time.Now()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionsBucket)).Put([]byte(root), data)
	})
}

// Last returns the last recorded image for root, with ok false when no
// session was saved.
func (s *Store) Last(root string) (path string, ok bool, err error) {
	var rec Record
	err = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(sessionsBucket)).Get([]byte(root))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("corrupt session record for %s: %w", root, err)
		}
		ok = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return rec.Path, ok, nil
}

// Forget drops the session record for root.
func (s *Store) Forget(root string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionsBucket)).Delete([]byte(root))
	})
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
