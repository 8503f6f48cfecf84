package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	testhelpers "github.com/vusallyv/ds-practice-2025/internal/test"
)

func TestNewClientValidatesURL(t *testing.T) {
	if _, err := NewFraudClient("://bad-url", testhelpers.DiscardLogger()); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if _, err := NewRecommendationClient("/relative", testhelpers.DiscardLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestFraudClientAssess(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/base/fraud" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fraud":true,"reason":"too many orders"}`))
	}))
	defer srv.Close()

	client, err := NewFraudClient(srv.URL+"/base", testhelpers.DiscardLogger())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	order := model.Order{
		ID:         "o1",
		Items:      []model.Item{{Title: "Dune", Quantity: 1}},
		Buyer:      model.Buyer{Name: "Ada", Contact: "ada@example.com"},
		CreditCard: model.CreditCard{Number: "4111111111111111"},
	}
	verdict, err := client.Assess(context.Background(), order)
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if !verdict.Fraud || verdict.Reason != "too many orders" {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
	if got["orderId"] != "o1" {
		t.Fatalf("unexpected request body %v", got)
	}
	if _, ok := got["creditCard"]; ok {
		t.Fatal("card data must not be sent to the oracle")
	}
}

func TestRecommendationClientRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommendations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"books":["Hyperion by Dan Simmons"]}`))
	}))
	defer srv.Close()

	client, _ := NewRecommendationClient(srv.URL, testhelpers.DiscardLogger())
	books, err := client.Recommend(context.Background(), []model.Item{{Title: "Dune", Quantity: 1}})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(books) != 1 || books[0] != "Hyperion by Dan Simmons" {
		t.Fatalf("unexpected books %v", books)
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(http.StatusTooManyRequests)
			},
			check: func(err error) bool {
				var tooMany TooManyRequestsError
				return errors.As(err, &tooMany) && tooMany.RetryAfter == 7*time.Second && errors.Is(err, domainErrors.ErrOracleFailure)
			},
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			check:   func(err error) bool { return errors.Is(err, domainErrors.ErrOracleFailure) },
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"books":`)) },
			check:   func(err error) bool { return errors.Is(err, domainErrors.ErrOracleFailure) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			client, _ := NewRecommendationClient(srv.URL, testhelpers.DiscardLogger())
			if _, err := client.Recommend(context.Background(), nil); !tt.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, _ := NewFraudClient(url, testhelpers.DiscardLogger())
	if _, err := client.Assess(context.Background(), model.Order{}); !errors.Is(err, domainErrors.ErrOracleFailure) {
		t.Fatalf("expected ErrOracleFailure, got %v", err)
	}
}

func TestDisabled(t *testing.T) {
	if _, err := (Disabled{}).Assess(context.Background(), model.Order{}); !errors.Is(err, domainErrors.ErrOracleDisabled) {
		t.Fatalf("expected ErrOracleDisabled, got %v", err)
	}
	if _, err := (Disabled{}).Recommend(context.Background(), nil); !errors.Is(err, domainErrors.ErrOracleDisabled) {
		t.Fatalf("expected ErrOracleDisabled, got %v", err)
	}
}
