package bolt

import (
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Buckets used by the bolt repositories.
const (
	BucketTasks    = "tasks"
	BucketProjects = "projects"
)

// Open initializes the BoltDB file and ensures the given buckets exist.
func Open(path string, logger *zap.Logger, buckets ...string) (*bbolt.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(buckets) == 0 {
		buckets = []string{BucketTasks, BucketProjects}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("bolt database ready", zap.String("path", path))
	return db, nil
}
