package domain

// PaymentConfirmation is the opaque signal handed over by a payment
// provider integration once a flow finished. The core never inspects
// provider specifics, only method, amount and outcome.
type PaymentConfirmation struct {
	Method  string  `json:"method" binding:"required"`
	Amount  float64 `json:"amount" binding:"required"`
	Success bool    `json:"success"`
}

// Known payment methods. Advisory only, the core accepts any method
// string that arrives with a successful confirmation.
const (
	PaymentMethodPayPal   = "paypal"
	PaymentMethodMetaMask = "metamask"
)
