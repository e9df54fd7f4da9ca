package paymentgateway

// AuthorizeRequest запрос на открытие авторизации с ручным списанием
type AuthorizeRequest struct {
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	CaptureMethod string            `json:"capture_method"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Authorization модель авторизации из платежного шлюза
type Authorization struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
}

// ErrorResponse модель ошибки от платежного шлюза
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const captureMethodManual = "manual"
