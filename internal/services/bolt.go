package services

import (
	"encoding/json"
	"fmt"

	"github.com/tradepsych/coach-web-ui/internal/models"
	bolt "go.etcd.io/bbolt"
)

// State keys persisted in the local store. Writers always fully overwrite;
// last write wins.
const (
	StateAccessToken   = "access_token"
	StateRefreshToken  = "refresh_token"
	StateActiveProject = "active_project"
	StateLocale        = "locale"
)

const stateBucket = "state"

// BoltDB is the process-local persistence layer: auth tokens, the active
// project id, the locale preference, and a cached copy of session transcripts
// so pages can render while a stream is in flight or the backend is slow.
type BoltDB struct {
	db *bolt.DB
}

// NewBoltDB opens (creating if needed) the local database at path. The file
// is created with 0600 permissions.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stateBucket))
		return err
	})

	return BoltDB{db: db}, err
}

// Close releases the underlying database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}

func transcriptBucketName(sessionID string) []byte {
	return []byte(fmt.Sprintf("transcript-%s", sessionID))
}

// State reads one persisted state value; missing keys return an empty string.
func (b BoltDB) State(key string) (string, error) {
	var value string
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(stateBucket))
		if bkt == nil {
			return nil
		}
		if v := bkt.Get([]byte(key)); v != nil {
			value = string(v)
		}
		return nil
	})
	return value, err
}

// SetState overwrites one persisted state value.
func (b BoltDB) SetState(key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(stateBucket))
		if bkt == nil {
			return nil
		}
		return bkt.Put([]byte(key), []byte(value))
	})
}

// DeleteState removes one persisted state value; deleting a missing key is a
// no-op.
func (b BoltDB) DeleteState(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(stateBucket))
		if bkt == nil {
			return nil
		}
		return bkt.Delete([]byte(key))
	})
}

// CachedMessages retrieves the locally cached transcript for a session in
// stored order.
func (b BoltDB) CachedMessages(sessionID string) ([]models.Message, error) {
	var messages []models.Message
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(transcriptBucketName(sessionID))
		if bkt == nil {
			return nil
		}

		return bkt.ForEach(func(_, v []byte) error {
			var message models.Message
			if err := json.Unmarshal(v, &message); err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			messages = append(messages, message)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// CacheMessage appends one message to a session's local transcript. The
// storage key combines a sequence number with the message ID so iteration
// preserves arrival order.
func (b BoltDB) CacheMessage(sessionID string, message models.Message) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(transcriptBucketName(sessionID))
		if err != nil {
			return fmt.Errorf("failed to create transcript bucket: %w", err)
		}

		idPrefix, err := bkt.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}

		v, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}

		return bkt.Put([]byte(fmt.Sprintf("%012d-%s", idPrefix, message.ID)), v)
	})
}

// ReplaceCachedMessages swaps a session's local transcript for the backend's
// authoritative copy.
func (b BoltDB) ReplaceCachedMessages(sessionID string, messages []models.Message) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		name := transcriptBucketName(sessionID)
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to delete transcript bucket: %w", err)
			}
		}
		bkt, err := tx.CreateBucket(name)
		if err != nil {
			return fmt.Errorf("failed to create transcript bucket: %w", err)
		}

		for _, message := range messages {
			idPrefix, err := bkt.NextSequence()
			if err != nil {
				return fmt.Errorf("failed to get next sequence: %w", err)
			}
			v, err := json.Marshal(message)
			if err != nil {
				return fmt.Errorf("failed to marshal message: %w", err)
			}
			if err := bkt.Put([]byte(fmt.Sprintf("%012d-%s", idPrefix, message.ID)), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// DropCachedMessages removes a session's local transcript, used when the
// session is deleted.
func (b BoltDB) DropCachedMessages(sessionID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		name := transcriptBucketName(sessionID)
		if tx.Bucket(name) == nil {
			return nil
		}
		return tx.DeleteBucket(name)
	})
}
