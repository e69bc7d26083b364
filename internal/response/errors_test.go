package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stemsi/exstem-proctor/internal/client"
	"github.com/stemsi/exstem-proctor/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrCode
	}{
		{fmt.Errorf("init test: %w", client.ErrTokenExpired), ErrTokenExpired},
		{&client.APIError{StatusCode: http.StatusUnauthorized}, ErrInvalidCredentials},
		{fmt.Errorf("save answers: %w", client.ErrUnreachable), ErrServiceUnreachable},
		{client.ErrInvalidRequest, ErrValidation},
		{client.ErrInvalidResponse, ErrInvalidPayload},
		{session.ErrSessionEnded, ErrSessionEnded},
		{session.ErrNoSaver, ErrSaveFailed},
		{session.ErrInteractionLocked, ErrSaveInProgress},
		{&client.APIError{StatusCode: http.StatusConflict}, ErrTestNotAvailable},
		{errors.New("boom"), ErrInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CodeOf(tt.err), tt.err.Error())
	}
}

func TestUserMessagePrefersPortalMessage(t *testing.T) {
	err := fmt.Errorf("start test: %w", &client.APIError{StatusCode: http.StatusBadRequest, Message: "Test window closed"})
	assert.Equal(t, "Test window closed", UserMessage(err))
	assert.Equal(t, GetMessage(ErrServiceUnreachable), UserMessage(client.ErrUnreachable))
}

func TestErrorFromPrefersPortalMessage(t *testing.T) {
	body := ErrorFrom(&client.APIError{StatusCode: 404, Message: "Test is closed"})
	assert.Equal(t, ErrTestNotAvailable, body.Code)
	assert.Equal(t, "Test is closed", body.Message)

	body = ErrorFrom(fmt.Errorf("init: %w", client.ErrUnreachable))
	assert.Equal(t, ErrServiceUnreachable, body.Code)
	assert.Equal(t, GetMessage(ErrServiceUnreachable), body.Message)
}
