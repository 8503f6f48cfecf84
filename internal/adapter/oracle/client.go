// Package oracle talks to the external fraud and recommendation services.
package oracle

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
	"strconv"
	"time"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/verification"
)

// TooManyRequestsError represents a rate limiting signal from an oracle.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

func (e TooManyRequestsError) Unwrap() error { return domainErrors.ErrOracleFailure }

type client struct {
	name       string
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

func newClient(name, baseURL string, logger *slog.Logger) (*client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s oracle url: %w", name, err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("%s oracle url must be absolute", name)
	}
	return &client{
		name:    name,
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (c *client) post(ctx context.Context, route string, in, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, route)

	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrOracleFailure, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: %v", domainErrors.ErrOracleFailure, err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decode %s response: %v", domainErrors.ErrOracleFailure, c.name, err)
		}
		return nil
	case http.StatusTooManyRequests:
		return TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		data, _ := io.ReadAll(resp.Body)
		c.logger.Error("oracle request failed", slog.String("oracle", c.name), slog.Int("status", resp.StatusCode), slog.String("body", string(data)))
		return fmt.Errorf("%w: %s oracle: %s", domainErrors.ErrOracleFailure, c.name, resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}

type fraudRequest struct {
	OrderID        string        `json:"orderId"`
	Items          []model.Item  `json:"items"`
	User           model.Buyer   `json:"user"`
	BillingAddress model.Address `json:"billingAddress"`
}

type fraudResponse struct {
	Fraud  bool   `json:"fraud"`
	Reason string `json:"reason"`
}

// FraudClient asks the fraud oracle for a verdict.
type FraudClient struct {
	*client
}

func NewFraudClient(baseURL string, logger *slog.Logger) (*FraudClient, error) {
	c, err := newClient("fraud", baseURL, logger)
	if err != nil {
		return nil, err
	}
	return &FraudClient{client: c}, nil
}

// Assess posts the order without card data.
func (c *FraudClient) Assess(ctx context.Context, order model.Order) (verification.Verdict, error) {
	var out fraudResponse
	in := fraudRequest{OrderID: order.ID, Items: order.Items, User: order.Buyer, BillingAddress: order.BillingAddress}
	if err := c.post(ctx, "/fraud", in, &out); err != nil {
		return verification.Verdict{}, err
	}
	return verification.Verdict{Fraud: out.Fraud, Reason: out.Reason}, nil
}

type recommendationRequest struct {
	Items []model.Item `json:"items"`
}

type recommendationResponse struct {
	Books []string `json:"books"`
}

// RecommendationClient asks the recommendation oracle for "Title by Author" lines.
type RecommendationClient struct {
	*client
}

func NewRecommendationClient(baseURL string, logger *slog.Logger) (*RecommendationClient, error) {
	c, err := newClient("recommendation", baseURL, logger)
	if err != nil {
		return nil, err
	}
	return &RecommendationClient{client: c}, nil
}

func (c *RecommendationClient) Recommend(ctx context.Context, items []model.Item) ([]string, error) {
	var out recommendationResponse
	if err := c.post(ctx, "/recommendations", recommendationRequest{Items: items}, &out); err != nil {
		return nil, err
	}
	return out.Books, nil
}

// Disabled stands in for an oracle without a configured address.
type Disabled struct{}

func (Disabled) Assess(context.Context, model.Order) (verification.Verdict, error) {
	return verification.Verdict{}, domainErrors.ErrOracleDisabled
}

func (Disabled) Recommend(context.Context, []model.Item) ([]string, error) {
	return nil, domainErrors.ErrOracleDisabled
}
