package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/repository"
)

// inTx runs fn in a transaction on db and commits if fn succeeds.
func inTx(ctx context.Context, db repository.DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit tx", err)
	}
	return nil
}

// asAppError keeps domain errors intact and wraps anything else as internal.
func asAppError(msg string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.ErrInternal(msg, err)
}
