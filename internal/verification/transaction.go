package verification

import (
	"context"
	"regexp"
	"strings"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/pkg/vclock"
)

var (
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	expiryPattern     = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
	namePattern       = regexp.MustCompile(`^[a-zA-Z ]+$`)
)

// TransactionVerifier checks the shape of the order, the buyer and the card.
type TransactionVerifier struct {
	states *table
}

func NewTransactionVerifier() *TransactionVerifier {
	return &TransactionVerifier{states: newTable(SlotTransaction)}
}

func (v *TransactionVerifier) Init(_ context.Context, orderID string, order model.Order) error {
	v.states.init(orderID, order)
	return nil
}

func (v *TransactionVerifier) Clear(_ context.Context, orderID string) {
	v.states.clear(orderID)
}

// VerifyBookList fails orders without items or with non-positive quantities.
func (v *TransactionVerifier) VerifyBookList(_ context.Context, orderID string, clock vclock.Clock) (Result, error) {
	order, clock, err := v.states.advance(orderID, clock)
	if err != nil {
		return Result{}, err
	}
	if len(order.Items) == 0 {
		return fail(clock, "Book list is empty"), nil
	}
	for _, item := range order.Items {
		if strings.TrimSpace(item.Title) == "" {
			return fail(clock, "Book title is missing"), nil
		}
		if item.Quantity <= 0 {
			return fail(clock, "Invalid number of items"), nil
		}
	}
	return pass(clock), nil
}

// VerifyUserData checks buyer name and contact.
func (v *TransactionVerifier) VerifyUserData(_ context.Context, orderID string, clock vclock.Clock) (Result, error) {
	order, clock, err := v.states.advance(orderID, clock)
	if err != nil {
		return Result{}, err
	}
	if !namePattern.MatchString(order.Buyer.Name) {
		return fail(clock, "Invalid name"), nil
	}
	if strings.TrimSpace(order.Buyer.Contact) == "" {
		return fail(clock, "User contact is missing"), nil
	}
	return pass(clock), nil
}

// VerifyCreditCard checks card field formats.
func (v *TransactionVerifier) VerifyCreditCard(_ context.Context, orderID string, clock vclock.Clock) (Result, error) {
	order, clock, err := v.states.advance(orderID, clock)
	if err != nil {
		return Result{}, err
	}
	card := order.CreditCard
	switch {
	case !cardNumberPattern.MatchString(card.Number):
		return fail(clock, "Invalid credit card number"), nil
	case !expiryPattern.MatchString(card.ExpirationDate):
		return fail(clock, "Invalid credit card expiration date"), nil
	case !cvvPattern.MatchString(card.CVV):
		return fail(clock, "Invalid CVV"), nil
	}
	return pass(clock), nil
}
