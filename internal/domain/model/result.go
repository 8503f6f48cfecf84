package model

import "time"

const (
	StatusApproved       = "Order Approved"
	statusRejectedPrefix = "Order Rejected: "
)

// RejectedStatus formats the user visible rejection status.
func RejectedStatus(reason string) string {
	return statusRejectedPrefix + reason
}

// ExecutionStatus tracks the order after verification.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "PENDING"
	ExecutionCompleted ExecutionStatus = "COMPLETED"
	ExecutionPartial   ExecutionStatus = "PARTIAL"
	ExecutionFailed    ExecutionStatus = "FAILED"
	ExecutionSkipped   ExecutionStatus = "SKIPPED"
)

// ItemOutcome records how one line item was executed.
type ItemOutcome struct {
	Title    string     `json:"title"`
	Quantity int        `json:"quantity"`
	Status   ItemStatus `json:"status"`
	// Failed lists participants that did not vote ready or did not commit.
	Failed []string `json:"failed,omitempty"`
}

// OrderResult is the record kept for result lookup.
type OrderResult struct {
	OrderID     string          `json:"orderId"`
	Status      string          `json:"status"`
	Suggestions []Suggestion    `json:"suggestedBooks"`
	Execution   ExecutionStatus `json:"execution"`
	Items       []ItemOutcome   `json:"items,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
