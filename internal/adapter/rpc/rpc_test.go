package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	pkgAuth "github.com/vusallyv/ds-practice-2025/internal/pkg/auth"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
	testhelpers "github.com/vusallyv/ds-practice-2025/internal/test"
)

type recorded struct {
	path  string
	query string
	token string
	body  map[string]any
}

type fakeNode struct {
	mu       sync.Mutex
	requests []recorded
	reply    func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{path: r.URL.Path, query: r.URL.RawQuery, token: r.Header.Get(pkgAuth.TokenHeader), body: body})
	f.mu.Unlock()
	f.reply(w, r)
}

func (f *fakeNode) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTransport(secret string) *Transport {
	return NewTransport(pkgAuth.NewHMACStrategy(secret, pkgAuth.Options{}), 7, time.Second, testhelpers.DiscardLogger())
}

func TestParticipantClientRoundTrip(t *testing.T) {
	node := &fakeNode{reply: func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rpc/payment/prepare":
			writeJSON(w, dto.VoteResponse{Ready: true})
		case "/rpc/payment/commit":
			writeJSON(w, dto.CommitResponse{Success: true})
		default:
			w.WriteHeader(http.StatusOK)
		}
	}}
	srv := httptest.NewServer(node)
	defer srv.Close()

	tokens := pkgAuth.NewHMACStrategy("secret", pkgAuth.Options{})
	client := NewParticipantClient("payment", srv.URL, NewTransport(tokens, 7, time.Second, testhelpers.DiscardLogger()))
	if client.Name() != "payment" {
		t.Fatalf("unexpected name %s", client.Name())
	}

	ready, err := client.Prepare(context.Background(), model.Reservation{OrderID: "o1", Title: "Dune", Amount: 2, Payer: "ref"})
	if err != nil || !ready {
		t.Fatalf("prepare: ready=%v err=%v", ready, err)
	}
	req := node.last()
	if req.body["orderId"] != "o1" || req.body["amount"] != float64(2) || req.body["payer"] != "ref" {
		t.Fatalf("unexpected prepare body %v", req.body)
	}
	if id, err := tokens.ParseToken(req.token); err != nil || id != 7 {
		t.Fatalf("expected token for node 7, got %d %v", id, err)
	}

	ok, err := client.Commit(context.Background(), "o1", "Dune")
	if err != nil || !ok {
		t.Fatalf("commit: ok=%v err=%v", ok, err)
	}
	if err := client.Abort(context.Background(), "o1", ""); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if node.last().path != "/rpc/payment/abort" {
		t.Fatalf("unexpected path %s", node.last().path)
	}
}

func TestTransportOmitsTokenWithoutSecret(t *testing.T) {
	node := &fakeNode{reply: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }}
	srv := httptest.NewServer(node)
	defer srv.Close()

	if _, err := newTransport("").Call(context.Background(), srv.URL, "/rpc/x", nil, nil, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if node.last().token != "" {
		t.Fatal("token must not be sent without a secret")
	}
}

func TestTransportFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply func(w http.ResponseWriter, r *http.Request)
	}{
		{name: "server error", reply: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{name: "unauthorized", reply: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) }},
		{name: "bad body", reply: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("{")) }},
		{name: "slow", reply: func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(&fakeNode{reply: tt.reply})
			defer srv.Close()
			tr := NewTransport(nil, 1, 50*time.Millisecond, testhelpers.DiscardLogger())
			_, err := NewParticipantClient("inventory", srv.URL, tr).Prepare(context.Background(), model.Reservation{})
			if !errors.Is(err, domainErrors.ErrParticipantUnavailable) {
				t.Fatalf("expected ErrParticipantUnavailable, got %v", err)
			}
		})
	}
}

func TestInventoryClient(t *testing.T) {
	node := &fakeNode{reply: func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rpc/inventory/read":
			writeJSON(w, dto.StockResult{Title: "Dune", Stock: 4, Found: true})
		case "/rpc/inventory/write":
			writeJSON(w, dto.StockResult{Success: false})
		default:
			writeJSON(w, dto.StockResult{Success: true})
		}
	}}
	srv := httptest.NewServer(node)
	defer srv.Close()
	client := NewInventoryClient(srv.URL, newTransport(""))

	stock, found, err := client.Read(context.Background(), "Dune")
	if err != nil || !found || stock != 4 {
		t.Fatalf("read: %d %v %v", stock, found, err)
	}
	if err := client.Write(context.Background(), "Dune", 3); err == nil {
		t.Fatal("expected rejected write to fail")
	}
	if node.last().body["stock"] != float64(3) {
		t.Fatalf("unexpected write body %v", node.last().body)
	}
	if ok, err := client.Decrement(context.Background(), "Dune", 1); err != nil || !ok {
		t.Fatalf("decrement: %v %v", ok, err)
	}
	if ok, err := client.Increment(context.Background(), "Dune", 1); err != nil || !ok {
		t.Fatalf("increment: %v %v", ok, err)
	}
	if client.Name() != srv.URL {
		t.Fatalf("unexpected backup name %s", client.Name())
	}
}

func TestQueueClient(t *testing.T) {
	var empty atomic.Bool
	empty.Store(true)
	node := &fakeNode{reply: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rpc/queue/dequeue" && empty.Load() {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.URL.Path == "/rpc/queue/dequeue" {
			writeJSON(w, model.Order{ID: "o1"})
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}}
	srv := httptest.NewServer(node)
	defer srv.Close()
	client := NewQueueClient(srv.URL, newTransport(""))

	if err := client.Enqueue(context.Background(), model.Order{ID: "o1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if node.last().body["orderId"] != "o1" {
		t.Fatalf("unexpected enqueue body %v", node.last().body)
	}

	if _, ok, err := client.Dequeue(context.Background(), 10*time.Millisecond); err != nil || ok {
		t.Fatalf("expected empty queue, got ok=%v err=%v", ok, err)
	}
	if node.last().query != "timeout=10ms" {
		t.Fatalf("unexpected query %q", node.last().query)
	}

	empty.Store(false)
	order, ok, err := client.Dequeue(context.Background(), 10*time.Millisecond)
	if err != nil || !ok || order.ID != "o1" {
		t.Fatalf("dequeue: %+v %v %v", order, ok, err)
	}
}

func TestPeerClient(t *testing.T) {
	node := &fakeNode{reply: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }}
	srv := httptest.NewServer(node)
	defer srv.Close()
	client := NewPeerClient(map[int]string{2: srv.URL}, newTransport(""))

	if err := client.DeclareElection(context.Background(), 2, 1); err != nil {
		t.Fatalf("declare election: %v", err)
	}
	if req := node.last(); req.path != "/rpc/election/declare-election" || req.body["senderId"] != float64(1) {
		t.Fatalf("unexpected request %+v", req)
	}
	if err := client.DeclareVictory(context.Background(), 2, 3); err != nil {
		t.Fatalf("declare victory: %v", err)
	}
	if req := node.last(); req.path != "/rpc/election/declare-victory" || req.body["leaderId"] != float64(3) {
		t.Fatalf("unexpected request %+v", req)
	}
	if err := client.DeclareElection(context.Background(), 9, 1); err == nil {
		t.Fatal("expected error for unknown peer")
	}
}
