package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/telemetry"
)

const keyPrefix = "cricket:match:"

func stateKey(id string) string   { return keyPrefix + id }
func summaryKey(id string) string { return keyPrefix + id + ":summary" }
func changesKey(id string) string { return keyPrefix + id + ":changes" }

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps saved states in redis and pushes every write on a
// per-match pub/sub channel.
type RedisStore struct {
	client *redis.Client
	log    zerolog.Logger

	wg      sync.WaitGroup
	closing chan struct{}
	once    sync.Once
}

func NewRedis(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	s := NewRedisWithClient(client)
	s.log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to redis match store")
	return s, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:  client,
		log:     telemetry.WithComponent("redis-store"),
		closing: make(chan struct{}),
	}
}

func (s *RedisStore) Persist(ctx context.Context, st *match.MatchState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, stateKey(st.ID), data, 0)
	pipe.Publish(ctx, changesKey(st.ID), data)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) PersistSummary(ctx context.Context, sum replica.Summary) error {
	scores, err := json.Marshal(sum.Scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	return s.client.HSet(ctx, summaryKey(sum.MatchID),
		"status", string(sum.Status),
		"scores", string(scores),
		"updatedAt", sum.UpdatedAt,
	).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (*match.MatchState, error) {
	data, err := s.client.Get(ctx, stateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load %s: %w", id, replica.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	var st match.MatchState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &st, nil
}

// LoadSummary reads the summary hash of one match.
func (s *RedisStore) LoadSummary(ctx context.Context, id string) (replica.Summary, error) {
	m, err := s.client.HGetAll(ctx, summaryKey(id)).Result()
	if err != nil {
		return replica.Summary{}, err
	}
	if len(m) == 0 {
		return replica.Summary{}, fmt.Errorf("summary %s: %w", id, replica.ErrNotFound)
	}
	sum := replica.Summary{MatchID: id, Status: replica.Status(m["status"]), Scores: map[string]string{}}
	sum.UpdatedAt, _ = strconv.ParseInt(m["updatedAt"], 10, 64)
	if raw := m["scores"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &sum.Scores); err != nil {
			return replica.Summary{}, fmt.Errorf("decode scores: %w", err)
		}
	}
	return sum, nil
}

// Subscribe listens on the match's change channel. The subscription is
// confirmed before Subscribe returns, so no later write is missed.
func (s *RedisStore) Subscribe(ctx context.Context, id string, fn func(*match.MatchState)) (func(), error) {
	ps := s.client.Subscribe(ctx, changesKey(id))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", id, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			ps.Close()
		})
	}

	ch := ps.Channel()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.closing:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var st match.MatchState
				if err := json.Unmarshal([]byte(msg.Payload), &st); err != nil {
					s.log.Warn().Err(err).Str("match", id).Msg("bad change payload")
					continue
				}
				fn(&st)
			}
		}
	}()
	return stop, nil
}

// Close ends all subscriptions and closes the client.
func (s *RedisStore) Close() error {
	s.once.Do(func() { close(s.closing) })
	s.wg.Wait()
	return s.client.Close()
}
