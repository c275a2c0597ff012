package service

import (
	"context"

	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/store"
)

// writeError maps a failed batch to a domain error. The batch is atomic, so
// in every case nothing was applied and the caller may retry.
func writeError(err error, action string) error {
	var domainErr *errors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrWriteConflict):
		return errors.Conflict(action + " raced with a concurrent change; retry").WithCause(err)
	case errors.Is(err, store.ErrPostNotFound):
		return errors.NotFound("post not found")
	case errors.Is(err, store.ErrCommentNotFound):
		return errors.NotFound("comment not found")
	case errors.Is(err, store.ErrFolderNotFound):
		return errors.NotFound("folder not found")
	case errors.Is(err, store.ErrNotFound):
		return errors.NotFound(action + ": not found")
	default:
		return errors.WriteFailed(err)
	}
}

// readError maps a failed read to a domain error.
func readError(err error, what string) error {
	var domainErr *errors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, store.ErrPostNotFound):
		return errors.NotFound("post not found")
	case errors.Is(err, store.ErrCommentNotFound):
		return errors.NotFound("comment not found")
	case errors.Is(err, store.ErrFolderNotFound):
		return errors.NotFound("folder not found")
	case errors.Is(err, store.ErrNotFound):
		return errors.NotFoundf("%s not found", what)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Wrapf(err, errors.CodeInternal, "read %s", what)
	}
}
