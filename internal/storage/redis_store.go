package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "imgur:seen"
	redisOpTimeout = 3 * time.Second
)

type redisCmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Exists(context.Context, ...string) *redis.IntCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
}

// redisStore keeps one key per marked image and lets Redis expire it, so the
// cleanup interval is unused.
type redisStore struct {
	cmd      redisCmdable
	closer   func() error
	imageTTL time.Duration
}

func openRedis(rawURL string, opts Options) (Store, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.New("redis storage requires a url")
	}
	parsed, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if parsed.DialTimeout == 0 {
		parsed.DialTimeout = redisOpTimeout
	}
	client := redis.NewClient(parsed)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &redisStore{cmd: client, closer: client.Close, imageTTL: opts.ImageTTL}, nil
}

func redisKey(sourceID, imageID string) string {
	return redisKeyPrefix + ":" + sourceID + ":" + imageID
}

func (s *redisStore) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *redisStore) SeenImage(sourceID, imageID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	n, err := s.cmd.Exists(ctx, redisKey(sourceID, imageID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *redisStore) MarkImage(sourceID, imageID string) error {
	if sourceID == "" || imageID == "" {
		return errors.New("source id and image id are required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.cmd.Set(ctx, redisKey(sourceID, imageID), time.Now().Unix(), s.imageTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
