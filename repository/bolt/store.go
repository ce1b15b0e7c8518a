package bolt

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
)

type versioned struct {
	Version int `json:"version"`
}

// put writes the record for id inside a single update transaction. encode
// receives the version the record will carry once stored.
func put(db *bbolt.DB, bucket []byte, id uuid.UUID, expected int, encode func(version int) ([]byte, error)) error {
	if db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		next := 1
		if raw := b.Get(id[:]); raw != nil {
			var current versioned
			if err := json.Unmarshal(raw, &current); err != nil {
				return err
			}
			if current.Version != expected {
				return domain.ErrVersionConflict
			}
			next = current.Version + 1
		}
		payload, err := encode(next)
		if err != nil {
			return err
		}
		return b.Put(id[:], payload)
	})
}

// get returns a copy of the raw value, or nil when the key is absent.
func get(db *bbolt.DB, bucket []byte, id uuid.UUID) ([]byte, error) {
	if db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}
	var out []byte
	err := db.View(func(tx *bbolt.Tx) error {
		if raw := tx.Bucket(bucket).Get(id[:]); raw != nil {
			out = append([]byte(nil), raw...)
		}
		return nil
	})
	return out, err
}

func scan(db *bbolt.DB, bucket []byte, fn func(v []byte) error) error {
	if db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	return db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_, v []byte) error {
			return fn(v)
		})
	})
}

func remove(db *bbolt.DB, bucket []byte, id uuid.UUID) (bool, error) {
	if db == nil {
		return false, bbolt.ErrDatabaseNotOpen
	}
	var found bool
	err := db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get(id[:]) == nil {
			return nil
		}
		found = true
		return b.Delete(id[:])
	})
	return found, err
}

func sortTasks(tasks []*domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID.String() < tasks[j].ID.String()
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}
