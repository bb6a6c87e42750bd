package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/idemorders/internal/orders/domain"
	"github.com/dejobratic/idemorders/internal/orders/ports"
)

const (
	// createdAtLayout is fixed width so lexical order of the text column
	// matches chronological order.
	createdAtLayout = "2006-01-02T15:04:05.000000Z"

	uniqueViolationCode      = "23505"
	idempotencyKeyConstraint = "orders_idempotency_key_key"

	orderColumns = "order_id, user_id, amount, currency, status, created_at, idempotency_key"
)

// Store persists orders in PostgreSQL. The unique constraint on
// idempotency_key decides which concurrent writer wins.
type Store struct {
	pool *pgxpool.Pool

	now   func() time.Time
	newID func() string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides the order ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore returns a Store backed by pool. The schema must already be migrated.
func NewStore(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:  pool,
		now:   time.Now,
		newID: domain.NewOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIfAbsent inserts a new order for key. When the key's unique constraint
// rejects the insert, the order already stored for key is read back and
// returned with created set to false.
func (s *Store) CreateIfAbsent(ctx context.Context, input domain.CreateOrderInput, key string) (domain.Order, bool, error) {
	candidate := domain.NewOrder(s.newID(), input, key, s.now())

	inserted, err := s.insert(ctx, candidate)
	if err == nil {
		return inserted, true, nil
	}

	if !isIdempotencyKeyConflict(err) {
		return domain.Order{}, false, err
	}

	existing, err := s.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("read order after idempotency key conflict: %w", err)
	}

	return *existing, false, nil
}

// insert writes the order in its own transaction. Any error rolls the
// transaction back before it is returned.
func (s *Store) insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + orderColumns

	var inserted domain.Order
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		inserted, err = scanOrder(tx.QueryRow(ctx, query,
			order.ID,
			order.UserID,
			order.Amount,
			order.Currency,
			order.Status,
			formatCreatedAt(order.CreatedAt),
			order.IdempotencyKey,
		))
		return err
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	return inserted, nil
}

// GetByIdempotencyKey fetches the order stored for key, or ports.ErrNotFound.
func (s *Store) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE idempotency_key = $1
	`

	order, err := scanOrder(s.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	return &order, nil
}

// ListRecent returns up to limit orders, newest created_at first. A
// non-positive limit yields an empty slice without querying.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	limit = max(0, limit)
	if limit == 0 {
		return []domain.Order{}, nil
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	return orders, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		order     domain.Order
		status    string
		createdAt string
	)
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Amount,
		&order.Currency,
		&status,
		&createdAt,
		&order.IdempotencyKey,
	); err != nil {
		return domain.Order{}, err
	}

	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}

	order.Status = domain.OrderStatus(status)
	order.CreatedAt = domain.NormalizeTime(parsed)
	return order, nil
}

func formatCreatedAt(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

func isIdempotencyKeyConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolationCode &&
		pgErr.ConstraintName == idempotencyKeyConstraint
}
