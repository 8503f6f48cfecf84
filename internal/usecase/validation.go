package usecase

import (
	"fmt"
	"regexp"
	"strings"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

const maxOrderItems = 100

var orderIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ValidationError is a malformed ingestion payload.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

func (e ValidationError) Is(target error) bool { return target == domainErrors.ErrValidation }

// ValidateOrder checks payload shape. Business rules are left to verification.
func ValidateOrder(order model.Order) error {
	if !orderIDPattern.MatchString(order.ID) {
		return ValidationError{Reason: "Invalid order id"}
	}
	if len(order.Items) > maxOrderItems {
		return ValidationError{Reason: fmt.Sprintf("Too many items, at most %d allowed", maxOrderItems)}
	}
	for i, item := range order.Items {
		if strings.TrimSpace(item.Title) == "" {
			return ValidationError{Reason: fmt.Sprintf("Item %d has no title", i+1)}
		}
		if item.Quantity < 0 {
			return ValidationError{Reason: fmt.Sprintf("Item %d has negative quantity", i+1)}
		}
	}
	return nil
}
