package postgres

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsIdempotencyKeyConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unique violation on idempotency key",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "orders_idempotency_key_key"},
			want: true,
		},
		{
			name: "wrapped unique violation on idempotency key",
			err:  fmt.Errorf("insert order: %w", &pgconn.PgError{Code: "23505", ConstraintName: "orders_idempotency_key_key"}),
			want: true,
		},
		{
			name: "unique violation on primary key",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey"},
			want: false,
		},
		{
			name: "other postgres error",
			err:  &pgconn.PgError{Code: "08006"},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isIdempotencyKeyConflict(tt.err); got != tt.want {
				t.Errorf("isIdempotencyKeyConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatCreatedAtSortsChronologically(t *testing.T) {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	times := []time.Time{
		base.Add(120 * time.Millisecond),
		base.Add(100 * time.Millisecond),
		base,
		base.Add(time.Second),
		base.Add(1 * time.Microsecond),
	}

	formatted := make([]string, len(times))
	for i, ts := range times {
		formatted[i] = formatCreatedAt(ts)
	}
	sort.Strings(formatted)

	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	for i, ts := range sorted {
		if formatted[i] != formatCreatedAt(ts) {
			t.Errorf("position %d: expected %s, got %s", i, formatCreatedAt(ts), formatted[i])
		}
	}
}

func TestFormatCreatedAtRoundTrip(t *testing.T) {
	in := time.Date(2024, 1, 2, 3, 4, 5, 678901000, time.UTC)

	parsed, err := time.Parse(time.RFC3339Nano, formatCreatedAt(in))
	if err != nil {
		t.Fatalf("failed to parse formatted time: %v", err)
	}

	if !parsed.Equal(in) {
		t.Errorf("expected %s, got %s", in, parsed)
	}
}
