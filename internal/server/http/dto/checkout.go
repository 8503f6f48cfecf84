package dto

import "github.com/vusallyv/ds-practice-2025/internal/domain/model"

// CheckoutRequest is the order ingestion payload.
type CheckoutRequest struct {
	OrderID        string           `json:"orderId,omitempty"`
	Items          []model.Item     `json:"items"`
	User           model.Buyer      `json:"user"`
	CreditCard     model.CreditCard `json:"creditCard"`
	BillingAddress model.Address    `json:"billingAddress"`
}

// ToOrder converts the payload into a domain order.
func (r CheckoutRequest) ToOrder() model.Order {
	return model.Order{
		ID:             r.OrderID,
		Items:          r.Items,
		Buyer:          r.User,
		CreditCard:     r.CreditCard,
		BillingAddress: r.BillingAddress,
	}
}

// CheckoutResponse is returned for accepted and rejected orders alike.
type CheckoutResponse struct {
	OrderID        string             `json:"orderId"`
	Status         string             `json:"status"`
	SuggestedBooks []model.Suggestion `json:"suggestedBooks"`
}

// StockResponse describes stock of one title.
type StockResponse struct {
	Title string `json:"title"`
	Stock int    `json:"stock"`
}

// HealthResponse summarises node state.
type HealthResponse struct {
	NodeID      int                `json:"nodeId"`
	Roles       []string           `json:"roles"`
	Leader      *int               `json:"leader,omitempty"`
	Replication *ReplicationHealth `json:"replication,omitempty"`
}

// ReplicationHealth mirrors inventory replication counters.
type ReplicationHealth struct {
	Backups   int    `json:"backups"`
	Sent      uint64 `json:"sent"`
	Failed    uint64 `json:"failed"`
	LastError string `json:"lastError,omitempty"`
}

// ErrorResponse carries a human readable error.
type ErrorResponse struct {
	Error string `json:"error"`
}
