package confirm_payment

// ConfirmPaymentRequest HTTP request model
type ConfirmPaymentRequest struct {
	ExternalRef string `json:"externalRef"`
}
