package model

// Item is one line of an order.
type Item struct {
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Quantity int    `json:"quantity"`
}

// Buyer identifies the person placing an order.
type Buyer struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// CreditCard holds raw payment card fields as submitted at checkout.
type CreditCard struct {
	Number         string `json:"number"`
	ExpirationDate string `json:"expirationDate"`
	CVV            string `json:"cvv"`
}

// Address is a billing address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Order is immutable once verification starts.
type Order struct {
	ID             string     `json:"orderId"`
	Items          []Item     `json:"items"`
	Buyer          Buyer      `json:"user"`
	CreditCard     CreditCard `json:"creditCard"`
	BillingAddress Address    `json:"billingAddress"`
	// PayerRef is a one-way fingerprint of the card. Orders leaving the
	// checkout node carry it instead of CreditCard.
	PayerRef string `json:"payerRef,omitempty"`
}

// TotalQuantity sums item quantities.
func (o Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// Redacted returns a copy without raw card fields.
func (o Order) Redacted() Order {
	out := o
	out.CreditCard = CreditCard{}
	out.Items = append([]Item(nil), o.Items...)
	return out
}
