// Package relayclient calls the dashboard relay over HTTP on behalf of a
// view that does not run inside the server process.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"cafedash/internal/domain"
	"cafedash/internal/dto"
	apperrors "cafedash/internal/errors"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

// Login obtains the session cookie used by every later call.
func (c *Client) Login(ctx context.Context, username, password string) error {
	resp, err := c.post(ctx, "/api/login", map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}
	return nil
}

// UpdateStatus sends one status change through POST /api/orders.
func (c *Client) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	resp, err := c.post(ctx, "/api/orders", dto.UpdateStatusRequest{OrderID: orderID, Status: string(status)})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var body dto.UpdateStatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return apperrors.NewTransportError("decoding relay response", err)
		}
		if !body.Success {
			return apperrors.NewStoreError("relay", errors.New(body.Message))
		}
		return nil
	}

	msg := readError(resp)
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperrors.NewValidationError(msg)
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(msg)
	case http.StatusUnauthorized:
		return apperrors.NewTransportError("relay", errors.New("not logged in"))
	default:
		return apperrors.NewStoreError("relay", errors.New(msg))
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError("POST "+path, err)
	}
	return resp, nil
}

func readError(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var body dto.ErrorResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return fmt.Sprintf("relay returned status %d", resp.StatusCode)
}
