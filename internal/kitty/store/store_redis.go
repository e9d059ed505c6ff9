package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"kitties/internal/kitty/models"
	id "kitties/pkg/domain"
	"kitties/pkg/platform/sentinel"
)

var redisOpDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "kitties_redis_store_duration_ms",
	Help:    "Latency of redis kitty store operations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
}, []string{"op"})

const (
	defaultKeyPrefix = "kitty:dna:"
	countKeySuffix   = "count"
)

// insertScript claims a kitty key and bumps the count in one step. INCR runs
// before SET so a failing INCR aborts the script with nothing written.
//
// KEYS[1] kitty key, KEYS[2] count key, ARGV[1] payload.
// Returns 1 when inserted, 0 when the key is taken.
var insertScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("INCR", KEYS[2])
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)

// RedisStore keeps one key per kitty. Inserts run as a single script so
// concurrent writers across instances cannot both claim a DNA, and the
// count never drifts from the stored kitties.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces keys, e.g. per environment.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.keyPrefix = prefix
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, keyPrefix: defaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type redisKitty struct {
	DNA    string `json:"dna"`
	Owner  string `json:"owner"`
	Gender string `json:"gender"`
}

func (s *RedisStore) key(dna id.DNA) string {
	return s.keyPrefix + dna.String()
}

func (s *RedisStore) countKey() string {
	return s.keyPrefix + countKeySuffix
}

func (s *RedisStore) FindByDNA(ctx context.Context, dna id.DNA) (*models.Kitty, error) {
	defer observe("find", time.Now())
	raw, err := s.client.Get(ctx, s.key(dna)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get kitty: %w", err)
	}
	return decodeRedisKitty(raw)
}

func (s *RedisStore) Contains(ctx context.Context, dna id.DNA) (bool, error) {
	defer observe("contains", time.Now())
	n, err := s.client.Exists(ctx, s.key(dna)).Result()
	if err != nil {
		return false, fmt.Errorf("check kitty exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Insert(ctx context.Context, kitty *models.Kitty) error {
	defer observe("insert", time.Now())
	if kitty == nil {
		return sentinel.ErrInvalidState
	}
	payload, err := json.Marshal(redisKitty{
		DNA:    kitty.DNA.String(),
		Owner:  kitty.Owner.String(),
		Gender: kitty.Gender.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal kitty: %w", err)
	}
	inserted, err := insertScript.Run(ctx, s.client, []string{s.key(kitty.DNA), s.countKey()}, payload).Int()
	if err != nil {
		return fmt.Errorf("insert kitty: %w", err)
	}
	if inserted == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	defer observe("count", time.Now())
	n, err := s.client.Get(ctx, s.countKey()).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count kitties: %w", err)
	}
	return n, nil
}

// Ping reports whether redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func decodeRedisKitty(raw []byte) (*models.Kitty, error) {
	var rk redisKitty
	if err := json.Unmarshal(raw, &rk); err != nil {
		return nil, fmt.Errorf("decode kitty: %w", sentinel.ErrInvalidState)
	}
	dna, err := id.ParseDNA(rk.DNA)
	if err != nil {
		return nil, fmt.Errorf("decode kitty dna: %w", sentinel.ErrInvalidState)
	}
	owner, err := id.ParseAccountID(rk.Owner)
	if err != nil {
		return nil, fmt.Errorf("decode kitty owner: %w", sentinel.ErrInvalidState)
	}
	gender, err := models.ParseGender(rk.Gender)
	if err != nil {
		return nil, fmt.Errorf("decode kitty gender: %w", sentinel.ErrInvalidState)
	}
	return &models.Kitty{DNA: dna, Owner: owner, Gender: gender}, nil
}

func observe(op string, start time.Time) {
	redisOpDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
