package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const defaultRedisPrefix = "pizzaportal"

// RedisStore хранит каждую запись строкой JSON по ключу {prefix}:{collection}:{id}.
// Идентификаторы коллекции дополнительно ведутся в множестве {prefix}:{collection}.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore создаёт хранилище поверх уже настроенного клиента.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis подключается к Redis и проверяет соединение.
func DialRedis(ctx context.Context, addr, password string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, ""), nil
}

func (s *RedisStore) recordKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, collection, id)
}

func (s *RedisStore) indexKey(collection string) string {
	return fmt.Sprintf("%s:%s", s.prefix, collection)
}

// Create использует SETNX, поэтому занятый ключ даёт ErrAlreadyExists.
func (s *RedisStore) Create(ctx context.Context, collection, id string, record any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	set, err := s.client.SetNX(ctx, s.recordKey(collection, id), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	if !set {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
	}

	if err := s.client.SAdd(ctx, s.indexKey(collection), id).Err(); err != nil {
		return fmt.Errorf("index record: %w", err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context, collection, id string, dst any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	data, err := s.client.Get(ctx, s.recordKey(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
		}
		return fmt.Errorf("get record: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode record %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update использует SET XX: запись заменяется, только если она существует.
func (s *RedisStore) Update(ctx context.Context, collection, id string, record any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	updated, err := s.client.SetXX(ctx, s.recordKey(collection, id), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if !updated {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	n, err := s.client.Del(ctx, s.recordKey(collection, id)).Result()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}

	if err := s.client.SRem(ctx, s.indexKey(collection), id).Err(); err != nil {
		return fmt.Errorf("unindex record: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, collection string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return ids, nil
}

// Close закрывает клиент Redis.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
