package cache

import (
	"context"
	"errors"
	"time"
)

const storageOpTimeout = time.Second

// Storage membungkus RedisCache sebagai fiber.Storage (dipakai limiter),
// sehingga hitungan rate limit dibagi antar instance.
type Storage struct {
	r         *RedisCache
	namespace string
}

func (r *RedisCache) Storage(namespace string) *Storage {
	return &Storage{r: r, namespace: namespace + ":"}
}

func (s *Storage) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()
	b, err := s.r.Get(ctx, s.namespace+key)
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	return b, err
}

func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()
	return s.r.Set(ctx, s.namespace+key, val, exp)
}

func (s *Storage) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storageOpTimeout)
	defer cancel()
	return s.r.Del(ctx, s.namespace+key)
}

// Reset menghapus semua key di namespace ini.
func (s *Storage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*storageOpTimeout)
	defer cancel()
	iter := s.r.client.Scan(ctx, 0, s.r.key(s.namespace)+"*", 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	return s.r.client.Del(ctx, batch...).Err()
}

// Close no-op: koneksi milik RedisCache, ditutup di main.
func (s *Storage) Close() error { return nil }
