package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DedupLock serializes duplicate checks for uploads whose perceptual hashes
// fall in the same bucket (top byte of the hash). The check-then-insert in
// ingestion is otherwise racy: two visually identical uploads can both pass
// the scan before either commits. The lock is best effort; if it cannot be
// acquired the caller proceeds unlocked.
type DedupLock struct {
	client *redis.Client
	ttl    time.Duration
}

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewDedupLock(client *redis.Client) *DedupLock {
	return &DedupLock{client: client, ttl: 5 * time.Second}
}

// Acquire tries to take the bucket lock, retrying briefly. It returns a
// release func and whether the lock was actually held.
func (l *DedupLock) Acquire(ctx context.Context, bucket uint8) (func(), bool) {
	if l == nil || l.client == nil {
		return func() {}, false
	}

	key := fmt.Sprintf("dedup:lock:%02x", bucket)
	token := uuid.NewString()

	for attempt := 0; attempt < 20; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return func() {}, false
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_, _ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Result()
			}, true
		}

		select {
		case <-ctx.Done():
			return func() {}, false
		case <-time.After(50 * time.Millisecond):
		}
	}
	return func() {}, false
}
