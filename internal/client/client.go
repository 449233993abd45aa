// Package client talks to the visits API. It is the persister the terminal
// host hands to form sessions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/door2door/fieldvisits/internal/core/domain"
	"github.com/door2door/fieldvisits/internal/core/services/visits"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
)

// Client is an authenticated API client; the session cookie lives in its jar
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the API at baseURL
func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: timeout},
		logger:  logger,
	}, nil
}

type apiReply struct {
	Success         bool           `json:"success"`
	Error           string         `json:"error"`
	VisitID         string         `json:"visitId"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	Visit           *domain.Visit  `json:"visit"`
	Visits          []domain.Visit `json:"visits"`
	Pagination      *visits.Page   `json:"pagination"`
}

// do sends a JSON request and decodes the reply. A non-2xx reply comes back
// as the decoded body plus an AppError carrying the server's message.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*apiReply, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var reply apiReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&reply); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode %s %s reply: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := reply.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug("api request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return &reply, apperrors.New(apperrors.ErrCodeBadRequest, msg, resp.StatusCode)
	}
	return &reply, nil
}

// Login opens a session with the shared password
func (c *Client) Login(ctx context.Context, password string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth", map[string]string{"password": password})
	return err
}

// IsAuthenticated reports whether the stored cookie is still accepted
func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	reply, err := c.do(ctx, http.MethodGet, "/api/auth", nil)
	if err != nil {
		return false, err
	}
	return reply.IsAuthenticated, nil
}

// Logout ends the session
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/auth", nil)
	return err
}

// Save creates the visit when payload has no id and updates it otherwise.
// Rejections by the server are reported in the result; only transport
// failures are returned as errors.
func (c *Client) Save(ctx context.Context, payload domain.VisitPayload) (domain.SaveResult, error) {
	method := http.MethodPost
	if payload.ID != "" {
		method = http.MethodPut
	}

	reply, err := c.do(ctx, method, "/api/visits", payload)
	if err != nil {
		if appErr, ok := apperrors.GetAppError(err); ok {
			return domain.SaveResult{Success: false, Error: appErr.Message}, nil
		}
		return domain.SaveResult{}, err
	}
	if !reply.Success {
		return domain.SaveResult{Success: false, Error: reply.Error}, nil
	}
	return domain.SaveResult{Success: true, VisitID: reply.VisitID}, nil
}

// List returns one page of visits
func (c *Client) List(ctx context.Context, page, limit int) (*visits.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	reply, err := c.do(ctx, http.MethodGet, "/api/visits?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	out := &visits.Page{CurrentPage: page}
	if reply.Pagination != nil {
		out = reply.Pagination
	}
	out.Visits = reply.Visits
	if out.Visits == nil {
		out.Visits = []domain.Visit{}
	}
	return out, nil
}

// Get loads one visit
func (c *Client) Get(ctx context.Context, id string) (*domain.Visit, error) {
	reply, err := c.do(ctx, http.MethodGet, "/api/visits/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	if reply.Visit == nil {
		return nil, apperrors.NotFound("Visit not found")
	}
	return reply.Visit, nil
}

// Delete removes a visit
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/visits/"+url.PathEscape(id), nil)
	return err
}
