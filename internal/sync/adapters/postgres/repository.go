package postgres

import (
	"context"
	"errors"
	"fmt"

	"landing-analytics/internal/sync/core/domain"
	"landing-analytics/internal/sync/core/ports"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// RecordRepository keeps every remote collection in one analytics_records
// table keyed by (collection, id).
type RecordRepository struct {
	db DB
}

func NewRecordRepository(db DB) *RecordRepository {
	return &RecordRepository{db: db}
}

var (
	_ ports.RecordStore    = (*RecordRepository)(nil)
	_ ports.RecordUpserter = (*RecordRepository)(nil)
)

const insertRecordSQL = `
INSERT INTO analytics_records (collection, id, ts, payload)
VALUES ($1, $2, $3, $4);
`

const upsertRecordSQL = `
INSERT INTO analytics_records (collection, id, ts, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (collection, id) DO UPDATE
SET ts = EXCLUDED.ts,
    payload = EXCLUDED.payload,
    updated_at = now();
`

const deleteRecordSQL = `
DELETE FROM analytics_records
WHERE collection = $1 AND id = $2;
`

func (r *RecordRepository) List(ctx context.Context, collection string, q domain.ListQuery) (*domain.RecordPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 1
	}

	where := "collection = $1"
	args := []any{collection}
	if q.ID != "" {
		where += " AND id = $2"
		args = append(args, q.ID)
	}

	total, err := r.count(ctx, where, args)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", collection, err)
	}

	query := fmt.Sprintf(`
SELECT id, ts, payload
FROM analytics_records
WHERE %s
ORDER BY %s
LIMIT $%d OFFSET $%d`, where, orderBy(q.Sort), len(args)+1, len(args)+2)

	args = append(args, q.PerPage, (q.Page-1)*q.PerPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	items := make([]domain.Record, 0, q.PerPage)
	for rows.Next() {
		var rec domain.Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &payload); err != nil {
			return nil, err
		}
		rec.Data = payload
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.RecordPage{
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalItems: total,
		TotalPages: (total + q.PerPage - 1) / q.PerPage,
		Items:      items,
	}, nil
}

func (r *RecordRepository) Create(ctx context.Context, collection string, rec domain.Record) error {
	_, err := r.db.ExecContext(ctx, insertRecordSQL, collection, rec.ID, rec.Timestamp, []byte(rec.Data))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s/%s", domain.ErrRecordExists, collection, rec.ID)
		}
		return err
	}
	return nil
}

func (r *RecordRepository) Upsert(ctx context.Context, collection string, rec domain.Record) error {
	_, err := r.db.ExecContext(ctx, upsertRecordSQL, collection, rec.ID, rec.Timestamp, []byte(rec.Data))
	return err
}

func (r *RecordRepository) Delete(ctx context.Context, collection, id string) error {
	res, err := r.db.ExecContext(ctx, deleteRecordSQL, collection, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, collection, id)
	}
	return nil
}

func (r *RecordRepository) count(ctx context.Context, where string, args []any) (int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT COUNT(*) FROM analytics_records WHERE "+where, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var total int64
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return int(total), nil
}

// orderBy only ever returns one of these fixed clauses; Sort is never
// interpolated.
func orderBy(sort string) string {
	switch sort {
	case "timestamp":
		return "ts ASC, id ASC"
	case "-timestamp":
		return "ts DESC, id DESC"
	default:
		return "id ASC"
	}
}
