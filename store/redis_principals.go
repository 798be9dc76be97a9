package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goSeal "github.com/MrEthical07/goSeal"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisPrincipals persists principals in Redis.
//
// Key layout under prefix:
//
//	<prefix>:p:<id>        JSON PrincipalRecord
//	<prefix>:u:<username>  principal id
//	<prefix>:ids           list of ids in registration order
type RedisPrincipals struct {
	redis  redis.UniversalClient
	prefix string
}

var _ goSeal.PrincipalStore = (*RedisPrincipals)(nil)

func NewRedisPrincipals(client redis.UniversalClient, prefix string) *RedisPrincipals {
	if prefix == "" {
		prefix = "gs"
	}
	return &RedisPrincipals{redis: client, prefix: prefix}
}

func (s *RedisPrincipals) recordKey(id string) string { return s.prefix + ":p:" + id }
func (s *RedisPrincipals) usernameKey(name string) string { return s.prefix + ":u:" + name }
func (s *RedisPrincipals) idsKey() string { return s.prefix + ":ids" }

func (s *RedisPrincipals) FindPrincipal(ctx context.Context, id string) (goSeal.PrincipalRecord, error) {
	data, err := s.redis.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return goSeal.PrincipalRecord{}, goSeal.ErrPrincipalNotFound
		}
		return goSeal.PrincipalRecord{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return decodeRecord(data)
}

func (s *RedisPrincipals) FindByUsername(ctx context.Context, username string) (goSeal.PrincipalRecord, error) {
	id, err := s.redis.Get(ctx, s.usernameKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return goSeal.PrincipalRecord{}, goSeal.ErrPrincipalNotFound
		}
		return goSeal.PrincipalRecord{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.FindPrincipal(ctx, id)
}

// InsertPrincipal claims the username with SETNX, then writes the record and
// appends the id in one transaction.
func (s *RedisPrincipals) InsertPrincipal(ctx context.Context, rec goSeal.PrincipalRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode principal: %w", err)
	}

	claimed, err := s.redis.SetNX(ctx, s.usernameKey(rec.Username), rec.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !claimed {
		return goSeal.ErrPrincipalExists
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(rec.ID), data, 0)
		pipe.RPush(ctx, s.idsKey(), rec.ID)
		return nil
	})
	if err != nil {
		// release the username so a retry can succeed
		_ = s.redis.Del(ctx, s.usernameKey(rec.Username)).Err()
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// UpdatePasswordHash rewrites the record under WATCH so a concurrent update
// is not lost.
func (s *RedisPrincipals) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	key := s.recordKey(id)

	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return err
		}
		rec.PasswordHash = hash
		updated, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return goSeal.ErrPrincipalNotFound
	default:
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
}

// ListPrincipals reads the id list and fetches records in one pipeline.
// Ids whose record has vanished are skipped.
func (s *RedisPrincipals) ListPrincipals(ctx context.Context) ([]goSeal.Principal, error) {
	ids, err := s.redis.LRange(ctx, s.idsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(ids) == 0 {
		return []goSeal.Principal{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.recordKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	out := make([]goSeal.Principal, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec.Principal)
	}
	return out, nil
}

func decodeRecord(data []byte) (goSeal.PrincipalRecord, error) {
	var rec goSeal.PrincipalRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return goSeal.PrincipalRecord{}, fmt.Errorf("decode principal: %w", err)
	}
	return rec, nil
}
