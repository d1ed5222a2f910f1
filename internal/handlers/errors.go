package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/feeds"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/jobs"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	apperrors "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/errors"
)

var (
	errInsufficientData = apperrors.New("INSUFFICIENT_DATA", "Not enough history to answer this request", http.StatusUnprocessableEntity)
	errUnavailable      = apperrors.New("FEATURE_UNAVAILABLE", "This feature is not configured", http.StatusServiceUnavailable)
)

// serviceError translates service sentinel errors into API errors.
func serviceError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr

	case errors.Is(err, services.ErrTenantNotFound):
		return apperrors.NewNotFound("tenant")
	case errors.Is(err, services.ErrDealershipNotFound):
		return apperrors.NewNotFound("dealership")
	case errors.Is(err, services.ErrSentinelEventNotFound):
		return apperrors.NewNotFound("sentinel event")
	case errors.Is(err, services.ErrFixPackNotFound):
		return apperrors.NewNotFound("fix pack")
	case errors.Is(err, services.ErrIntegrationNotFound):
		return apperrors.NewNotFound("integration")
	case errors.Is(err, services.ErrUserNotFound):
		return apperrors.NewNotFound("user")
	case errors.Is(err, services.ErrNoMetrics):
		return apperrors.ErrNotFound.WithMessage("no metrics recorded for dealership")
	case errors.Is(err, jobs.ErrUnknownJob):
		return apperrors.NewNotFound("job")

	case errors.Is(err, services.ErrTenantSlugTaken):
		return apperrors.ErrConflict.WithMessage("tenant slug already in use")
	case errors.Is(err, services.ErrDealershipDomainTaken):
		return apperrors.ErrConflict.WithMessage("dealership domain already registered")
	case errors.Is(err, jobs.ErrJobRunning):
		return apperrors.ErrConflict.WithMessage("job is already running")

	case errors.Is(err, services.ErrInvalidTenant),
		errors.Is(err, services.ErrInvalidDealership),
		errors.Is(err, services.ErrInvalidMetrics),
		errors.Is(err, services.ErrInvalidIntegration):
		return apperrors.ErrValidation.WithMessage(clientMessage(err))

	case errors.Is(err, services.ErrInsufficientHistory):
		return errInsufficientData
	case errors.Is(err, services.ErrFeedDisabled):
		return errUnavailable.WithMessage("metrics feed is not configured")
	case errors.Is(err, services.ErrEncryptionUnavailable):
		return errUnavailable.WithMessage("integration secrets cannot be stored without an encryption key")
	case errors.Is(err, services.ErrNoPlatforms):
		return errUnavailable.WithMessage("no AI platforms are configured")

	case errors.Is(err, feeds.ErrUpstream), errors.Is(err, feeds.ErrNoLighthouseResult):
		return apperrors.ErrUpstream.WithInternal(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.ErrUpstream.WithInternal(err)
	}
	return apperrors.ErrInternalServer.WithInternal(err)
}

// clientMessage drops the "x service: " prefix services put on their errors.
func clientMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, "service: "); idx >= 0 {
		return msg[idx+len("service: "):]
	}
	return msg
}
