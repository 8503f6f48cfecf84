package model

// Reservation is what a 2PC participant is asked to hold for one line item.
type Reservation struct {
	OrderID string `json:"orderId"`
	Title   string `json:"title"`
	Amount  int    `json:"amount"`
	Payer   string `json:"payer,omitempty"`
}

// ItemStatus is the outcome of one 2PC round.
type ItemStatus string

const (
	ItemStatusCommitted     ItemStatus = "COMMITTED"
	ItemStatusAborted       ItemStatus = "ABORTED"
	ItemStatusPartialCommit ItemStatus = "PARTIAL_COMMIT"
)
