package checks

import (
	"context"
	"time"
	"uptimeline/pkg/db"
	"uptimeline/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
)

type Repository struct {
	querier *db.Queries
	logger  *zerolog.Logger
}

func NewRepository(dbExecutor db.DBTX, logger *zerolog.Logger) *Repository {
	return &Repository{
		querier: db.New(dbExecutor),
		logger:  logger,
	}
}

// InsertChecks stores the batch atomically. Rows whose id already exists are
// skipped, so a redelivered event inserts nothing.
func (r *Repository) InsertChecks(ctx context.Context, checks []CheckResult) (int64, error) {
	const op string = "repo.checks.insert"

	params := make([]db.InsertCheckResultParams, 0, len(checks))
	for _, c := range checks {
		params = append(params, toInsertParams(c))
	}

	n, err := r.querier.InsertCheckResults(ctx, params)
	if err == nil {
		return n, nil
	}

	return 0, utils.WrapRepoError(op, err, false, r.logger)
}

func (r *Repository) ListSegmentBuckets(ctx context.Context, monitorID uuid.UUID, from, to time.Time) ([]SegmentBucket, error) {
	const op string = "repo.checks.list_segment_buckets"

	rows, err := r.querier.ListSegmentBuckets(ctx, db.ListSegmentBucketsParams{
		MonitorID: utils.ToPgUUID(monitorID),
		RangeFrom: utils.ToPgTimestamptz(from),
		RangeTo:   utils.ToPgTimestamptz(to),
	})
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	buckets := make([]SegmentBucket, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, fromBucketRow(row))
	}
	return buckets, nil
}

func toInsertParams(c CheckResult) db.InsertCheckResultParams {
	interval := pgtype.Int8{}
	if c.Interval > 0 {
		interval = pgtype.Int8{Int64: c.Interval.Milliseconds(), Valid: true}
	}
	return db.InsertCheckResultParams{
		ID:           utils.ToPgUUID(c.ID),
		MonitorID:    utils.ToPgUUID(c.MonitorID),
		Location:     c.Location,
		SegmentStart: utils.ToPgTimestamptz(c.SegmentStart),
		CheckedAt:    utils.ToPgTimestamptz(c.CheckedAt),
		Up:           c.Up,
		Down:         c.Down,
		IntervalMs:   interval,
	}
}

func fromBucketRow(row db.ListSegmentBucketsRow) SegmentBucket {
	return SegmentBucket{
		Location:      row.Location,
		SegmentStart:  utils.FromPgTimestamptz(row.SegmentStart),
		Up:            row.Up,
		Down:          row.Down,
		LastCheckedAt: utils.FromPgTimestamptz(row.LastCheckedAt),
		Interval:      time.Duration(utils.FromPgInt8(row.IntervalMs)) * time.Millisecond,
	}
}
