package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/validator"
)

// Portal endpoints, relative to the base URL.
const (
	LoginPath = "/auth/test-portal/login"
	InitPath  = "/test-portal/init"
	StartPath = "/test-portal/start"
	SavePath  = "/test-portal/save"
)

const (
	maxErrorBody    = 4 << 10
	maxResponseBody = 8 << 20
)

// PortalClient talks to the test portal API.
type PortalClient struct {
	BaseURL    string
	HTTPClient *http.Client
	log        zerolog.Logger
}

func NewPortalClient(baseURL string, timeout time.Duration, log zerolog.Logger) *PortalClient {
	return &PortalClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("component", "portal_client").Logger(),
	}
}

// Login authenticates with email and birthdate and lists the open tests.
func (c *PortalClient) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, fmt.Errorf("login: %w: %s", ErrInvalidRequest, validator.Summary(err))
	}

	var resp model.LoginResponse
	if err := c.post(ctx, LoginPath, req, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, fmt.Errorf("login: %w", &APIError{StatusCode: http.StatusOK, Message: msg})
	}
	return &resp, nil
}

// InitTest opens an attempt and returns its instructions.
func (c *PortalClient) InitTest(ctx context.Context, req model.InitTestRequest) (*model.InitTestResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, fmt.Errorf("init test: %w: %s", ErrInvalidRequest, validator.Summary(err))
	}
	if err := CheckToken(req.Token, time.Now()); err != nil {
		return nil, fmt.Errorf("init test: %w", err)
	}

	var resp model.InitTestResponse
	if err := c.post(ctx, InitPath, req, &resp); err != nil {
		return nil, fmt.Errorf("init test: %w", err)
	}
	return &resp, nil
}

// StartTest begins the attempt and returns its question document.
func (c *PortalClient) StartTest(ctx context.Context, req model.StartTestRequest) (*model.StartTestResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, fmt.Errorf("start test: %w: %s", ErrInvalidRequest, validator.Summary(err))
	}
	if err := CheckToken(req.Token, time.Now()); err != nil {
		return nil, fmt.Errorf("start test: %w", err)
	}

	var resp model.StartTestResponse
	if err := c.post(ctx, StartPath, req, &resp); err != nil {
		return nil, fmt.Errorf("start test: %w", err)
	}
	return &resp, nil
}

// SaveAnswers persists a submission. It satisfies session.Saver. Any 2xx
// status is an acknowledgment; the body is read only for its message.
func (c *PortalClient) SaveAnswers(ctx context.Context, sub *model.Submission) error {
	raw, err := c.send(ctx, SavePath, sub)
	if err != nil {
		return err
	}
	var resp model.SaveAnswersResponse
	if json.Unmarshal(raw, &resp) == nil && resp.Message != "" {
		c.log.Debug().Str("message", resp.Message).Int64("attempt_id", sub.AttemptID).Msg("Answers saved")
	}
	return nil
}

// post sends body and decodes a 2xx reply into out.
func (c *PortalClient) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := c.send(ctx, path, body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// send posts body as JSON and returns the body of a 2xx reply. Other
// statuses become an *APIError.
func (c *PortalClient) send(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	log := c.log.With().Str("path", path).Str("request_id", reqID).Logger()
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Portal request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Portal request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
		log.Warn().Int("status", resp.StatusCode).Str("message", apiErr.Message).Msg("Portal returned an error")
		return nil, apiErr
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return raw, nil
}

// errorMessage extracts `message` or `detail` from an error body, falling
// back to the trimmed raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		var detail string
		if json.Unmarshal(body.Detail, &detail) == nil && detail != "" {
			return detail
		}
	}
	return strings.TrimSpace(string(raw))
}

// TokenExpiry reads the exp claim of a session token without verifying
// its signature. ok is false for opaque tokens or tokens without exp.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// CheckToken returns ErrTokenExpired if token carries an exp claim that is
// not after now. Opaque tokens are accepted.
func CheckToken(token string, now time.Time) error {
	exp, ok := TokenExpiry(token)
	if ok && !exp.After(now) {
		return ErrTokenExpired
	}
	return nil
}
