package utils

import (
	"context"
	"errors"
	"testing"
	"uptimeline/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

func TestWrapRepoError(t *testing.T) {
	logger := zerolog.Nop()
	cases := []struct {
		name     string
		err      error
		notFound bool
		want     apperror.Kind
	}{
		{"deadline", context.DeadlineExceeded, false, apperror.RequestTimeout},
		{"no rows allowed", pgx.ErrNoRows, true, apperror.NotFound},
		{"no rows unexpected", pgx.ErrNoRows, false, apperror.Internal},
		{"postgres", &pgconn.PgError{Code: "23505"}, false, apperror.DatabaseErr},
		{"other", errors.New("x"), false, apperror.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := WrapRepoError("repo.checks.insert", tc.err, tc.notFound, &logger)
			if !apperror.IsKind(err, tc.want) {
				t.Errorf("WrapRepoError kind = %v, want %s", err, tc.want)
			}
		})
	}
}
