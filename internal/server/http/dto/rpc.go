package dto

import "github.com/vusallyv/ds-practice-2025/internal/domain/model"

// PrepareRequest asks a participant to reserve one line item.
type PrepareRequest struct {
	OrderID string `json:"orderId"`
	Title   string `json:"title"`
	Amount  int    `json:"amount"`
	Payer   string `json:"payer,omitempty"`
}

func (r PrepareRequest) Reservation() model.Reservation {
	return model.Reservation{OrderID: r.OrderID, Title: r.Title, Amount: r.Amount, Payer: r.Payer}
}

// VoteResponse is a prepare vote.
type VoteResponse struct {
	Ready bool `json:"ready"`
}

// DecisionRequest names the reservation a commit or abort applies to.
// An empty title on abort covers the whole order.
type DecisionRequest struct {
	OrderID string `json:"orderId"`
	Title   string `json:"title,omitempty"`
}

// CommitResponse reports whether a reservation was applied.
type CommitResponse struct {
	Success bool `json:"success"`
}

// StockRequest drives inventory read and mutation calls.
type StockRequest struct {
	Title  string `json:"title"`
	Amount int    `json:"amount,omitempty"`
	Stock  int    `json:"stock,omitempty"`
}

// StockResult is the answer to StockRequest.
type StockResult struct {
	Title   string `json:"title"`
	Stock   int    `json:"stock"`
	Found   bool   `json:"found"`
	Success bool   `json:"success"`
}

// ElectionRequest is a bully election probe.
type ElectionRequest struct {
	SenderID int `json:"senderId"`
}

// VictoryRequest announces a new leader.
type VictoryRequest struct {
	LeaderID int `json:"leaderId"`
}
