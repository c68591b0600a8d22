// Package backend — клиент внешнего REST-бэкенда магазина (режим хранилища remote).
package backend

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

	"github.com/DRSN-tech/minimarket/internal/cfg"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/jitter"
	"github.com/DRSN-tech/minimarket/pkg/logger"
)

const (
	retryBase = 200 * time.Millisecond
	retryMax  = 5 * time.Second
	// Ограничение на размер тела ответа
	maxBodySize = 8 << 20
)

// StatusError — ответ бэкенда с кодом ошибки.
type StatusError struct {
	Status  int
	Message string
}

func (err *StatusError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("backend responded with HTTP %d", err.Status)
	}
	return fmt.Sprintf("backend responded with HTTP %d: %s", err.Status, err.Message)
}

// retryable: сетевые ошибки, 5xx и 429.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= http.StatusInternalServerError || statusErr.Status == http.StatusTooManyRequests
	}

	return true
}

type Client struct {
	http       *http.Client
	baseURL    string
	token      string
	maxRetries int
	logger     logger.Logger
}

func NewClient(cfg *cfg.BackendCfg, logger logger.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger,
	}
}

// Get выполняет идемпотентный запрос с повторами и экспоненциальной задержкой.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	const op = "Client.Get"

	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := jitter.ExponentialBackoff(retryBase, retryMax, attempt-1, jitter.DefaultJitter)
			c.logger.Warnf("backend GET %s failed, retrying in %v (attempt %d): %v", path, delay, attempt, err)
			if sleepErr := jitter.Sleep(ctx, delay); sleepErr != nil {
				return e.Wrap(op, sleepErr)
			}
		}

		if err = c.do(ctx, http.MethodGet, path, query, nil, out); err == nil || ctx.Err() != nil || !retryable(err) {
			break
		}
	}
	if err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// Post отправляет запрос один раз: создание продажи не идемпотентно.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	if err := c.do(ctx, http.MethodPost, path, nil, body, out); err != nil {
		return e.Wrap("Client.Post", err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	return decodeData(data, out)
}

// decodeData разбирает ответ вида `{"data": ...}` либо сам объект или массив.
func decodeData(data []byte, out any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			trimmed = envelope.Data
		}
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func errorMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	return strings.TrimSpace(string(data))
}

// mapError переводит ошибку бэкенда в ошибку предметной области.
// notFound подставляется при 404, остальные 4xx считаются отказом бэкенда.
func mapError(err error, notFound error) error {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return e.Unavailable(err)
	}

	switch {
	case statusErr.Status == http.StatusNotFound && notFound != nil:
		return fmt.Errorf("%w: %w", notFound, err)
	case statusErr.Status >= http.StatusInternalServerError || statusErr.Status == http.StatusTooManyRequests:
		return e.Unavailable(err)
	default:
		return fmt.Errorf("%w: %w", e.ErrBackendRejected, err)
	}
}
