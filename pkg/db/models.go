package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type CheckResult struct {
	ID           pgtype.UUID
	MonitorID    pgtype.UUID
	Location     string
	SegmentStart pgtype.Timestamptz
	CheckedAt    pgtype.Timestamptz
	Up           int32
	Down         int32
	IntervalMs   pgtype.Int8
	CreatedAt    pgtype.Timestamptz
}
