// Package firebase talks to a Firebase Realtime Database over its REST API,
// including the text/event-stream subscription endpoint.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cafedash/internal/config"
	apperrors "cafedash/internal/errors"
)

var (
	ErrStreamCancelled = errors.New("firebase stream cancelled by server")
	ErrAuthRevoked     = errors.New("firebase credential revoked")
)

// Event is one put or patch from a streaming subscription. Path is
// relative to the subscribed location.
type Event struct {
	Type string
	Path string
	Data json.RawMessage
}

type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	// streamClient has no overall timeout; streams live until cancelled.
	streamClient *http.Client
}

func NewClient(cfg config.FirebaseConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.DatabaseURL, "/"),
		authToken:    cfg.AuthToken,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}
}

// Query builds the orderBy/startAt parameters of a range query.
func Query(orderBy string, startAt int64) url.Values {
	q := url.Values{}
	q.Set("orderBy", fmt.Sprintf("%q", orderBy))
	q.Set("startAt", fmt.Sprintf("%d", startAt))
	return q
}

// Get fetches the JSON value at path. A missing node comes back as the
// literal null.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError("firebase get "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewTransportError("firebase get "+path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewStoreError("firebase get "+path, statusError(resp.StatusCode, body))
	}
	return body, nil
}

// Patch merges fields into the node at path.
func (c *Client) Patch(ctx context.Context, path string, fields any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshaling patch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.endpoint(path, nil), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTransportError("firebase patch "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.NewStoreError("firebase patch "+path, statusError(resp.StatusCode, body))
	}
	return nil
}

// Stream subscribes to path and calls handle for every put and patch
// until ctx is cancelled, the server ends the stream or handle fails.
// A clean end of stream returns nil.
func (c *Client) Stream(ctx context.Context, path string, query url.Values, handle func(Event) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return apperrors.NewTransportError("firebase stream "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.NewStoreError("firebase stream "+path, statusError(resp.StatusCode, body))
	}

	scanner := newSSEScanner(resp.Body)
	for scanner.Next() {
		raw := scanner.Event()
		switch raw.Type {
		case "keep-alive":
			continue
		case "cancel":
			return apperrors.NewStoreError("firebase stream "+path, fmt.Errorf("%w: %s", ErrStreamCancelled, raw.Data))
		case "auth_revoked":
			return apperrors.NewStoreError("firebase stream "+path, ErrAuthRevoked)
		case "put", "patch":
			var payload struct {
				Path string          `json:"path"`
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(raw.Data), &payload); err != nil {
				return fmt.Errorf("decoding %s event: %w", raw.Type, err)
			}
			if err := handle(Event{Type: raw.Type, Path: payload.Path, Data: payload.Data}); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.NewTransportError("firebase stream "+path, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if c.authToken != "" {
		q.Set("auth", c.authToken)
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	u := c.baseURL + "/" + strings.Join(segments, "/") + ".json"
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func statusError(code int, body []byte) error {
	var fbErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &fbErr) == nil && fbErr.Error != "" {
		return fmt.Errorf("status %d: %s", code, fbErr.Error)
	}
	return fmt.Errorf("status %d", code)
}
