package service

import (
	"errors"
	"fmt"

	apperrors "github.com/yourusername/sof-stats/internal/pkg/errors"
)

// Ошибки сценариев администрирования, которые обработчики переводят в стабильный error_type
var (
	ErrInvalidInviteCode  = fmt.Errorf("%w: invalid_invite_code", apperrors.ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid_credentials", apperrors.ErrUnauthorized)
	ErrPasswordMismatch   = fmt.Errorf("%w: passwords do not match", apperrors.ErrValidation)
	ErrPasswordTooShort   = fmt.Errorf("%w: password is too short", apperrors.ErrValidation)
	ErrUnknownChartType   = fmt.Errorf("%w: unknown chart type", apperrors.ErrValidation)
	ErrUnknownExportType  = fmt.Errorf("%w: unknown export format", apperrors.ErrValidation)
	ErrEmailMisconfigured = errors.New("invite email is misconfigured")
)
