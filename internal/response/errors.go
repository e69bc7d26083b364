package response

import (
	"errors"

	"github.com/stemsi/exstem-proctor/internal/client"
	"github.com/stemsi/exstem-proctor/internal/session"
)

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Portal ────────────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrTestNotAvailable   ErrCode = "TEST_NOT_AVAILABLE"
	ErrServiceUnreachable ErrCode = "SERVICE_UNREACHABLE"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Session ───────────────────────────────────────────────────────
	ErrNoActiveSession ErrCode = "NO_ACTIVE_SESSION"
	ErrSessionEnded    ErrCode = "SESSION_ENDED"
	ErrSaveInProgress  ErrCode = "SAVE_IN_PROGRESS"
	ErrSaveFailed      ErrCode = "SAVE_FAILED"
	ErrInvalidChoice   ErrCode = "INVALID_CHOICE"

	// ─── Status server ─────────────────────────────────────────────────
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Portal ────────────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or birthdate is incorrect."
	case ErrTokenExpired:
		return "Your login has expired. Please log in again."
	case ErrTestNotAvailable:
		return "This test is not available right now."
	case ErrServiceUnreachable:
		return "The exam service could not be reached. Check your connection."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "The exam service sent an unreadable response."

	// ─── Session ───────────────────────────────────────────────────────
	case ErrNoActiveSession:
		return "No exam session is running."
	case ErrSessionEnded:
		return "The exam session has ended."
	case ErrSaveInProgress:
		return "Answers are being saved. Please wait."
	case ErrSaveFailed:
		return "Failed to save answers. Please try again."
	case ErrInvalidChoice:
		return "That option does not exist for this question."

	case ErrNotFound:
		return "Resource not found."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal error occurred."
	default:
		return "An unexpected error occurred."
	}
}

// CodeOf maps an error from the portal client or the session to an ErrCode.
func CodeOf(err error) ErrCode {
	switch {
	case errors.Is(err, client.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, client.ErrUnauthorized):
		return ErrInvalidCredentials
	case errors.Is(err, client.ErrUnreachable):
		return ErrServiceUnreachable
	case errors.Is(err, client.ErrInvalidRequest):
		return ErrValidation
	case errors.Is(err, client.ErrInvalidResponse):
		return ErrInvalidPayload
	case errors.Is(err, session.ErrSessionEnded):
		return ErrSessionEnded
	case errors.Is(err, session.ErrNoSaver):
		return ErrSaveFailed
	case errors.Is(err, session.ErrSaveInProgress), errors.Is(err, session.ErrInteractionLocked):
		return ErrSaveInProgress
	case errors.Is(err, session.ErrOutOfRange), errors.Is(err, session.ErrAnswerTypeMismatch):
		return ErrInvalidChoice
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return ErrTestNotAvailable
	}
	return ErrInternal
}

// UserMessage returns what to show the user for err: the portal's own
// message when it sent one, otherwise the message of CodeOf(err).
func UserMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GetMessage(CodeOf(err))
}
