// Package journal appends accepted room/game actions to a Redis list so an
// out-of-process consumer can reconstruct what happened. Journaling is
// best-effort: a nil journal or a Redis failure never fails the operation
// that produced the record.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueue is the Redis list actions are pushed onto.
const DefaultQueue = "unoroom_actions"

// ActionRecord is one journal entry.
type ActionRecord struct {
	RoomID    uuid.UUID      `json:"room_id"`
	ActorID   uuid.UUID      `json:"actor_id"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Journal wraps one Redis client and queue name.
type Journal struct {
	rdb   *redis.Client
	queue string
	log   *logrus.Logger
}

// Connect opens a Redis client and verifies it with a ping. An empty addr
// returns (nil, nil): callers treat a nil *Journal as journaling disabled.
func Connect(addr, queue string, logger *logrus.Logger) (*Journal, error) {
	if addr == "" {
		return nil, nil
	}
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = logrus.New()
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Journal{rdb: rdb, queue: queue, log: logger}, nil
}

// Record serializes and pushes one entry. Safe on a nil Journal.
func (j *Journal) Record(ctx context.Context, rec ActionRecord) {
	if j == nil {
		return
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		j.log.WithError(err).Warn("could not marshal action record")
		return
	}
	if err := j.rdb.RPush(ctx, j.queue, data).Err(); err != nil {
		j.log.WithError(err).Warn("could not journal action")
	}
}

// Close releases the Redis client. Safe on a nil Journal.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.rdb.Close()
}
