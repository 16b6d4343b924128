package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore хранит записи в таблице records (collection, id, data jsonb).
type PostgresStore struct {
	pool   *pgxpool.Pool
	delays []time.Duration
	// beforeInsert вызывается перед каждой попыткой вставки в Create; используется в тестах.
	beforeInsert func(attempt int) error
}

// NewPostgresStore создаёт хранилище и инициализирует схему БД через миграции.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
	}

	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(s.delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(s.delays) {
			break
		}

		timer := time.NewTimer(s.delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// isRetryable сообщает, имеет ли смысл повторить запрос: сбой соединения,
// конфликт сериализации или взаимная блокировка.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected
	}
	var netErr net.Error
	return pgconn.SafeToRetry(err) || errors.As(err, &netErr)
}

// Close закрывает пул соединений с БД.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Create вставляет новую запись; занятый ключ даёт ErrAlreadyExists.
// Если вставка повторялась после сбоя соединения, первая попытка могла успеть
// зафиксироваться: совпадающая сохранённая запись тогда считается созданной.
func (s *PostgresStore) Create(ctx context.Context, collection, id string, record any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	var inserted int64
	attempts := 0
	err = s.withRetry(ctx, func() error {
		attempts++
		if s.beforeInsert != nil {
			if err := s.beforeInsert(attempts); err != nil {
				return err
			}
		}
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO records (collection, id, data) VALUES ($1, $2, $3)
			 ON CONFLICT (collection, id) DO NOTHING`,
			collection, id, data,
		)
		inserted = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if inserted == 1 {
		return nil
	}

	if attempts > 1 {
		same, err := s.storedEquals(ctx, collection, id, data)
		if err != nil {
			return err
		}
		if same {
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, collection, id)
}

// storedEquals сравнивает сохранённую запись с data как JSONB.
func (s *PostgresStore) storedEquals(ctx context.Context, collection, id string, data []byte) (bool, error) {
	var same bool
	err := s.withRetry(ctx, func() error {
		return s.pool.QueryRow(ctx,
			`SELECT data = $3::jsonb FROM records WHERE collection = $1 AND id = $2`,
			collection, id, data,
		).Scan(&same)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("compare record: %w", err)
	}
	return same, nil
}

// Read читает запись в dst.
func (s *PostgresStore) Read(ctx context.Context, collection, id string, dst any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	var data []byte
	err := s.withRetry(ctx, func() error {
		return s.pool.QueryRow(ctx,
			`SELECT data FROM records WHERE collection = $1 AND id = $2`,
			collection, id,
		).Scan(&data)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
		}
		return fmt.Errorf("select record: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode record %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update полностью заменяет существующую запись.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, record any) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	var affected int64
	err = s.withRetry(ctx, func() error {
		tag, err := s.pool.Exec(ctx,
			`UPDATE records SET data = $3, updated_at = now() WHERE collection = $1 AND id = $2`,
			collection, id, data,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

// Delete удаляет запись.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if err := ValidateKey(collection, id); err != nil {
		return err
	}

	var affected int64
	err := s.withRetry(ctx, func() error {
		tag, err := s.pool.Exec(ctx,
			`DELETE FROM records WHERE collection = $1 AND id = $2`,
			collection, id,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

// List возвращает идентификаторы всех записей коллекции.
func (s *PostgresStore) List(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM records WHERE collection = $1`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ids, nil
}
