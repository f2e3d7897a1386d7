package billing

import "github.com/velorahq/velora/app/models"

// UserContact is the checkout prefill block returned alongside an order.
type UserContact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// OrderResult is the shape the checkout UI needs to open the payment widget.
type OrderResult struct {
	OrderID      string      `json:"orderId"`
	Amount       int64       `json:"amount"`
	Currency     string      `json:"currency"`
	Receipt      string      `json:"receipt"`
	PlanID       string      `json:"planId"`
	PlanName     string      `json:"planName"`
	Interval     string      `json:"interval"`
	GatewayKeyID string      `json:"key"`
	User         UserContact `json:"user"`
}

// PaymentSummary is the caller-facing slice of a gateway payment.
type PaymentSummary struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CheckoutResult is returned once a verified payment has been finalized.
type CheckoutResult struct {
	Subscription  *models.Subscription `json:"subscription"`
	Payment       PaymentSummary       `json:"payment"`
	InvoiceNumber string               `json:"invoiceNumber"`
}

// VerifyInput is the confirmation triple a client submits after completing
// checkout, plus the plan being purchased.
type VerifyInput struct {
	PaymentID string `json:"paymentId" validate:"required"`
	OrderID   string `json:"orderId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
	PlanID    string `json:"planId" validate:"required"`
}
