package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertCheckResult = `-- name: InsertCheckResults :batchexec
INSERT INTO check_results (
    id, monitor_id, location, segment_start, checked_at, up, down, interval_ms
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8
)
ON CONFLICT (id) DO NOTHING
`

type InsertCheckResultParams struct {
	ID           pgtype.UUID
	MonitorID    pgtype.UUID
	Location     string
	SegmentStart pgtype.Timestamptz
	CheckedAt    pgtype.Timestamptz
	Up           int32
	Down         int32
	IntervalMs   pgtype.Int8
}

// InsertCheckResults queues every row in one batch. Outside an explicit
// transaction the batch runs as a single implicit transaction.
func (q *Queries) InsertCheckResults(ctx context.Context, args []InsertCheckResultParams) (int64, error) {
	batch := &pgx.Batch{}
	for _, arg := range args {
		batch.Queue(insertCheckResult,
			arg.ID,
			arg.MonitorID,
			arg.Location,
			arg.SegmentStart,
			arg.CheckedAt,
			arg.Up,
			arg.Down,
			arg.IntervalMs,
		)
	}

	br := q.db.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range args {
		tag, err := br.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

const listSegmentBuckets = `-- name: ListSegmentBuckets :many
SELECT
    location,
    segment_start,
    SUM(up)::bigint AS up,
    SUM(down)::bigint AS down,
    MAX(checked_at)::timestamptz AS last_checked_at,
    MAX(interval_ms)::bigint AS interval_ms
FROM check_results
WHERE monitor_id = $1
  AND checked_at >= $2
  AND checked_at <= $3
GROUP BY location, segment_start
ORDER BY location, segment_start
`

type ListSegmentBucketsParams struct {
	MonitorID pgtype.UUID
	RangeFrom pgtype.Timestamptz
	RangeTo   pgtype.Timestamptz
}

type ListSegmentBucketsRow struct {
	Location      string
	SegmentStart  pgtype.Timestamptz
	Up            int64
	Down          int64
	LastCheckedAt pgtype.Timestamptz
	IntervalMs    pgtype.Int8
}

func (q *Queries) ListSegmentBuckets(ctx context.Context, arg ListSegmentBucketsParams) ([]ListSegmentBucketsRow, error) {
	rows, err := q.db.Query(ctx, listSegmentBuckets, arg.MonitorID, arg.RangeFrom, arg.RangeTo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListSegmentBucketsRow
	for rows.Next() {
		var i ListSegmentBucketsRow
		if err := rows.Scan(
			&i.Location,
			&i.SegmentStart,
			&i.Up,
			&i.Down,
			&i.LastCheckedAt,
			&i.IntervalMs,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
