package http

import (
	"context"
	"errors"

	"rtckit/internal/core/domain"
	apperrors "rtckit/pkg/errors"
	"rtckit/pkg/rtc"
	"rtckit/pkg/sdputil"
)

// sdpError classifies failures from munging or parsing caller supplied SDP.
func sdpError(err error) *apperrors.AppError {
	if errors.Is(err, sdputil.ErrNoVideoSection) {
		return apperrors.NewUnprocessableError(err.Error())
	}
	return apperrors.NewInvalidSDPError(err)
}

func negotiationError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, rtc.ErrInvalidSDPType),
		errors.Is(err, domain.ErrRemoteSDPRequired),
		errors.Is(err, domain.ErrInvalidDirection):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, domain.ErrInvalidRemoteSDP):
		return apperrors.NewInvalidSDPError(err)
	case errors.Is(err, sdputil.ErrNoVideoSection):
		return apperrors.NewUnprocessableError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewNegotiationFailedError(err).WithContext("reason", "timeout")
	default:
		return apperrors.NewNegotiationFailedError(err)
	}
}

func sharedFileError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, domain.ErrInvalidFilename),
		errors.Is(err, domain.ErrInvalidFilesize),
		errors.Is(err, domain.ErrFileTooLarge),
		errors.Is(err, domain.ErrInvalidSession),
		errors.Is(err, domain.ErrEmptyIdentityURI):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, domain.ErrSharedFileNotFound):
		return apperrors.NewNotFoundError("shared file")
	case errors.Is(err, domain.ErrSharedFileExists):
		return apperrors.NewConflictError(err.Error())
	case errors.Is(err, domain.ErrNotUploader):
		return apperrors.NewForbiddenError(err.Error())
	default:
		return apperrors.NewInternalError("shared file storage failed")
	}
}
