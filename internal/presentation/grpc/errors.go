package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kuwago/lending/internal/domain/apperr"
	"github.com/kuwago/lending/internal/domain/port"
)

// toStatus maps the lending error taxonomy onto gRPC codes. Unclassified
// errors are logged and hidden behind codes.Internal.
func toStatus(ctx context.Context, logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, port.ErrVersionConflict):
		return status.Error(codes.Aborted, err.Error())
	}

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case apperr.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	case apperr.KindConflict:
		return status.Error(codes.FailedPrecondition, err.Error())
	case apperr.KindUnauthorized:
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		logger.ErrorContext(ctx, "unexpected error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
