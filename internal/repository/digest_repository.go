package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"aidigest/internal/model"
)

const digestSchema = `
	CREATE TABLE IF NOT EXISTS digest (
		id         BIGSERIAL PRIMARY KEY,
		date       TEXT NOT NULL UNIQUE,
		day        DATE NOT NULL,
		stories    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS digest_day_idx ON digest (day DESC);
`

const isoDate = "2006-01-02"

type DigestRepository struct {
	db *sql.DB
}

func NewDigestRepository(db *sql.DB) *DigestRepository {
	return &DigestRepository{db: db}
}

func (r *DigestRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, digestSchema)
	return err
}

func (r *DigestRepository) GetByDate(ctx context.Context, date string) (*model.Digest, error) {
	var d model.Digest
	var id int64
	var stories []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT id, date, day, stories, created_at
		FROM digest
		WHERE date = $1
	`, date).Scan(&id, &d.Date, &d.Day, &stories, &d.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(stories, &d.Stories); err != nil {
		return nil, fmt.Errorf("decode stories for %q: %w", date, err)
	}

	d.ID = strconv.FormatInt(id, 10)
	return &d, nil
}

// InsertIfAbsent stores d unless a digest for its date already exists, in
// which case the existing record is returned with created=false.
func (r *DigestRepository) InsertIfAbsent(ctx context.Context, d *model.Digest) (*model.Digest, bool, error) {
	stories, err := json.Marshal(d.Stories)
	if err != nil {
		return nil, false, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO digest(date, day, stories, created_at)
		VALUES($1, $2, $3, $4)
		ON CONFLICT (date) DO NOTHING
		RETURNING id
	`, d.Date, d.Day.Format(isoDate), stories, d.CreatedAt.UTC().Format(time.RFC3339Nano)).Scan(&id)

	if err == sql.ErrNoRows {
		existing, err := r.GetByDate(ctx, d.Date)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, fmt.Errorf("digest %q conflicted but is missing", d.Date)
		}
		return existing, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	stored := *d
	stored.ID = strconv.FormatInt(id, 10)
	return &stored, true, nil
}

func (r *DigestRepository) ListDates(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date FROM digest
		ORDER BY day DESC, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dates, nil
}

func (r *DigestRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
