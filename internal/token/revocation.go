package token

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"
)

// RevocationStore is the injected capability that remembers tokens
// invalidated before their natural expiry.  Entries carry a TTL equal to
// the remaining token lifetime, so the set never outgrows the tokens it
// guards.  Implementations must be safe for concurrent Add and Contains
// calls from multiple request-handling goroutines.
type RevocationStore interface {
    Add(ctx context.Context, token string, ttl time.Duration) error
    Contains(ctx context.Context, token string) (bool, error)
}

// revocationKey derives the stored key from a token string.  Hashing keeps
// the key length bounded and keeps raw bearer credentials out of the store.
func revocationKey(token string) string {
    sum := sha256.Sum256([]byte(token))
    return hex.EncodeToString(sum[:])
}

// RedisRevocationStore keeps revocation entries in Redis so that a token
// revoked on one instance is rejected by all of them.  The TTL is handed to
// Redis directly; expired entries vanish without any sweeper.
type RedisRevocationStore struct {
    rdb    *redis.Client
    prefix string
}

func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
    return &RedisRevocationStore{rdb: rdb, prefix: "revoked:"}
}

func (s *RedisRevocationStore) Add(ctx context.Context, token string, ttl time.Duration) error {
    return s.rdb.Set(ctx, s.prefix+revocationKey(token), 1, ttl).Err()
}

func (s *RedisRevocationStore) Contains(ctx context.Context, token string) (bool, error) {
    n, err := s.rdb.Exists(ctx, s.prefix+revocationKey(token)).Result()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// MemoryRevocationStore is the process-local fallback used when Redis is
// not reachable at startup.  Revocations then only bind the local instance,
// which is acceptable for single-instance deployments and development.
type MemoryRevocationStore struct {
    mu      sync.Mutex
    entries map[string]time.Time // key -> expiry of the entry
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
    return &MemoryRevocationStore{entries: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) Add(_ context.Context, token string, ttl time.Duration) error {
    now := time.Now().UTC()
    s.mu.Lock()
    defer s.mu.Unlock()
    // Piggyback a sweep of expired entries on each write so the map stays
    // bounded by the number of live revocations.
    for k, exp := range s.entries {
        if now.After(exp) {
            delete(s.entries, k)
        }
    }
    s.entries[revocationKey(token)] = now.Add(ttl)
    return nil
}

func (s *MemoryRevocationStore) Contains(_ context.Context, token string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    exp, ok := s.entries[revocationKey(token)]
    if !ok {
        return false, nil
    }
    if time.Now().UTC().After(exp) {
        delete(s.entries, revocationKey(token))
        return false, nil
    }
    return true, nil
}
