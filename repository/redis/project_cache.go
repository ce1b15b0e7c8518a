package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// tombstoneVersion outranks any real version so a deleted project is never
// written back by a reader that loaded it before the delete.
const tombstoneVersion = 1<<31 - 1

// putIfNewer stores a project hash unless the cached entry already holds the
// same or a later version.
var putIfNewer = redislib.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type projectCache struct {
	inner  repository.ProjectRepository
	client *redislib.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewProjectCache wraps a ProjectRepository with a Redis cache. Entries are
// versioned: Save writes the saved project through, reads fill missing
// entries, and neither ever replaces a newer cached version with an older
// one. Redis failures degrade to the wrapped repository.
func NewProjectCache(inner repository.ProjectRepository, client *redislib.Client, ttl time.Duration, logger *zap.Logger) repository.ProjectRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &projectCache{
		inner:  inner,
		client: client,
		prefix: "project:",
		ttl:    ttl,
		logger: logger,
	}
}

func (c *projectCache) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	data, err := c.client.HGet(ctx, c.key(id), "data").Result()
	switch {
	case err == nil && data != "":
		var project domain.Project
		if err := json.Unmarshal([]byte(data), &project); err == nil {
			return &project, nil
		}
		c.logger.Warn("discarding undecodable cached project", zap.String("project_id", id.String()))
	case err == nil, errors.Is(err, redislib.Nil):
	default:
		c.logger.Warn("project cache read failed", zap.String("project_id", id.String()), zap.Error(err))
	}

	project, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, project)
	return project, nil
}

func (c *projectCache) Save(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	saved, err := c.inner.Save(ctx, project)
	if err != nil {
		return nil, err
	}
	if !c.store(ctx, saved) {
		c.evict(ctx, saved.ID)
	}
	return saved, nil
}

func (c *projectCache) FindAll(ctx context.Context) ([]*domain.Project, error) {
	return c.inner.FindAll(ctx)
}

func (c *projectCache) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := c.inner.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if !c.put(ctx, id, tombstoneVersion, "") {
		c.evict(ctx, id)
	}
	return deleted, nil
}

// store reports false only when Redis could not be reached; a write skipped
// because a newer version is cached counts as stored.
func (c *projectCache) store(ctx context.Context, project *domain.Project) bool {
	payload, err := json.Marshal(project)
	if err != nil {
		return false
	}
	return c.put(ctx, project.ID, project.Version, string(payload))
}

func (c *projectCache) put(ctx context.Context, id uuid.UUID, version int, data string) bool {
	err := putIfNewer.Run(ctx, c.client, []string{c.key(id)},
		strconv.Itoa(version), data, c.ttl.Milliseconds()).Err()
	if err != nil {
		c.logger.Warn("project cache write failed", zap.String("project_id", id.String()), zap.Error(err))
		return false
	}
	return true
}

func (c *projectCache) evict(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.logger.Warn("project cache eviction failed", zap.String("project_id", id.String()), zap.Error(err))
	}
}

func (c *projectCache) key(id uuid.UUID) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
