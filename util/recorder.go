package util

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/redis/go-redis/v9"
)

// Recorder stores experiment summaries somewhere outside the process
type Recorder interface {
	Record(context.Context, interface{}) error
	Close() error
}

// FileRecorder appends one JSON document per line
type FileRecorder struct {
	path string
}

var _ Recorder = &FileRecorder{}

func NewFileRecorder(filePath string) (*FileRecorder, error) {
	if err := EnsureDir(path.Dir(filePath)); err != nil {
		return nil, fmt.Errorf("creating record directory: %w", err)
	}
	return &FileRecorder{path: filePath}, nil
}

func (f *FileRecorder) Record(_ context.Context, entry interface{}) error {
	bs, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return AppendToFile(f.path, string(bs))
}

func (f *FileRecorder) Close() error {
	return nil
}

// RedisRecorder pushes JSON documents to a redis list
type RedisRecorder struct {
	client *redis.Client
	key    string
}

var _ Recorder = &RedisRecorder{}

// NewRedisRecorder connects to addr and checks the connection
func NewRedisRecorder(ctx context.Context, addr, key string) (*RedisRecorder, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisRecorder{
		client: client,
		key:    key,
	}, nil
}

func (r *RedisRecorder) Record(ctx context.Context, entry interface{}) error {
	bs, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.client.RPush(ctx, r.key, bs).Err()
}

func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
