// Package rpc implements the internal HTTP/JSON clients used between nodes.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	pkgAuth "github.com/vusallyv/ds-practice-2025/internal/pkg/auth"
)

// Transport posts JSON to peer nodes and signs requests with a cluster token.
type Transport struct {
	httpClient *http.Client
	tokens     pkgAuth.TokenStrategy
	self       int
	timeout    time.Duration
	logger     *slog.Logger
}

// NewTransport builds a transport. timeout applies to calls whose context
// carries no deadline.
func NewTransport(tokens pkgAuth.TokenStrategy, self int, timeout time.Duration, logger *slog.Logger) *Transport {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Transport{
		httpClient: &http.Client{},
		tokens:     tokens,
		self:       self,
		timeout:    timeout,
		logger:     logger,
	}
}

// Call posts in to baseURL+route and decodes a 2xx body into out. It returns
// the status code; transport failures and non-2xx codes wrap
// ErrParticipantUnavailable.
func (t *Transport) Call(ctx context.Context, baseURL, route string, query url.Values, in, out any) (int, error) {
	endpoint, err := url.Parse(baseURL)
	if err != nil {
		return 0, fmt.Errorf("parse peer url: %w", err)
	}
	endpoint.Path = path.Join(endpoint.Path, route)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.tokens != nil && t.tokens.Enabled() {
		token, err := t.tokens.IssueToken(t.self)
		if err != nil {
			return 0, err
		}
		req.Header.Set(pkgAuth.TokenHeader, token)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domainErrors.ErrParticipantUnavailable, route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		t.logger.Debug("rpc call failed",
			slog.String("route", route),
			slog.Int("status", resp.StatusCode),
			slog.String("body", strings.TrimSpace(string(data))),
		)
		return resp.StatusCode, fmt.Errorf("%w: %s: %s", domainErrors.ErrParticipantUnavailable, route, resp.Status)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: decode %s: %v", domainErrors.ErrParticipantUnavailable, route, err)
	}
	return resp.StatusCode, nil
}
