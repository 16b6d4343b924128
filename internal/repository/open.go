package repository

import (
	"context"
	"fmt"
)

// Options задаёт выбор и параметры хранилища.
type Options struct {
	Kind          string
	DataDir       string
	DatabaseURI   string
	RedisAddr     string
	RedisPassword string
}

// Open выбирает хранилище: PostgreSQL, если задан DatabaseURI, затем Redis, затем память
// (Kind == "memory"), иначе каталог с файлами.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch {
	case opts.DatabaseURI != "":
		return NewPostgresStore(opts.DatabaseURI)
	case opts.RedisAddr != "":
		return DialRedis(ctx, opts.RedisAddr, opts.RedisPassword)
	case opts.Kind == "memory":
		return NewMemoryStore(), nil
	case opts.Kind == "" || opts.Kind == "file":
		if opts.DataDir == "" {
			return nil, fmt.Errorf("data dir is not set")
		}
		return NewFileStore(opts.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage kind %q", opts.Kind)
	}
}
