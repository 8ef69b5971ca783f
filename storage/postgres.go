package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"homesweep/models"
)

const upsertBatchSize = 500

// PostgresMirror keeps a queryable copy of the merged dataset, one row per
// address.
type PostgresMirror struct {
	pool *pgxpool.Pool
}

func NewPostgresMirror(ctx context.Context, connString string) (*PostgresMirror, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 4
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	m := &PostgresMirror{pool: pool}
	if err := m.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return m, nil
}

func (m *PostgresMirror) Close() {
	m.pool.Close()
}

func (m *PostgresMirror) migrate(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			address TEXT PRIMARY KEY,
			price TEXT,
			bedrooms TEXT,
			bathrooms TEXT,
			square_feet TEXT,
			scraped_at TIMESTAMP,
			synced_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

const upsertListing = `
	INSERT INTO listings (address, price, bedrooms, bathrooms, square_feet, scraped_at, synced_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	ON CONFLICT (address) DO UPDATE SET
		price = EXCLUDED.price,
		bedrooms = EXCLUDED.bedrooms,
		bathrooms = EXCLUDED.bathrooms,
		square_feet = EXCLUDED.square_feet,
		scraped_at = EXCLUDED.scraped_at,
		synced_at = NOW()`

// UpsertListings writes every listing, replacing the stored row for the same
// address. It returns the number of rows affected.
func (m *PostgresMirror) UpsertListings(ctx context.Context, listings []models.Listing) (int, error) {
	total := 0
	for i := 0; i < len(listings); i += upsertBatchSize {
		j := i + upsertBatchSize
		if j > len(listings) {
			j = len(listings)
		}

		b := &pgx.Batch{}
		for _, l := range listings[i:j] {
			b.Queue(upsertListing, listingArgs(l)...)
		}

		br := m.pool.SendBatch(ctx, b)
		for k := i; k < j; k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, fmt.Errorf("upsert %s: %w", listings[k].Key(), err)
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, err
		}
	}
	return total, nil
}

// listingArgs maps absent values to NULL. Listings without an address share
// the N/A row, as they do in the CSV.
func listingArgs(l models.Listing) []any {
	var scrapedAt *time.Time
	if !l.ScrapedAt.IsZero() {
		t := l.ScrapedAt
		scrapedAt = &t
	}
	return []any{
		l.Key(),
		nullable(l.Price),
		nullable(l.Bedrooms),
		nullable(l.Bathrooms),
		nullable(l.SquareFeet),
		scrapedAt,
	}
}

func nullable(f models.Field) *string {
	v, ok := f.Get()
	if !ok {
		return nil
	}
	return &v
}
