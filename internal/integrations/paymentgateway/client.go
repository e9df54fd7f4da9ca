package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// Client клиент платежного шлюза
// Все вызовы проходят через circuit breaker: отказы бизнес-уровня (decline, not found)
// не считаются сбоями и не размыкают цепь
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Authorization]
	log        Logger
}

// Config параметры клиента
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// FailureThreshold количество последовательных сбоев до размыкания цепи
	FailureThreshold uint32
	// OpenTimeout время, через которое разомкнутая цепь пропускает пробный запрос
	OpenTimeout time.Duration
}

// NewClient создает новый экземпляр клиента платежного шлюза
func NewClient(cfg Config, log Logger) *Client {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}

	threshold := cfg.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker[*Authorization](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDeclined) || errors.Is(err, ErrAuthorizationNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker %s changed state: %s -> %s", name, from, to)
		},
	})

	return c
}

// Authorize открывает авторизацию на сумму amount с ручным списанием
// idempotencyKey защищает от двойной авторизации при повторе запроса
func (c *Client) Authorize(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currency string, metadata map[string]string) (*Authorization, error) {
	c.log.Info("Authorize: amount=%s %s, key=%s", amount.StringFixed(2), currency, idempotencyKey)

	body := AuthorizeRequest{
		Amount:        amount.StringFixed(2),
		Currency:      currency,
		CaptureMethod: captureMethodManual,
		Metadata:      metadata,
	}

	auth, err := c.execute(ctx, http.MethodPost, "/authorizations", idempotencyKey, body)
	if err != nil {
		c.log.Warn("Authorize: failed for key=%s: %v", idempotencyKey, err)
		return nil, err
	}

	c.log.Info("Authorize: opened authorization ref=%s", auth.ID)
	return auth, nil
}

// Capture списывает ранее авторизованную сумму
func (c *Client) Capture(ctx context.Context, ref string) (*Authorization, error) {
	c.log.Info("Capture: ref=%s", ref)

	path := fmt.Sprintf("/authorizations/%s/capture", url.PathEscape(ref))
	auth, err := c.execute(ctx, http.MethodPost, path, "capture-"+ref, nil)
	if err != nil {
		c.log.Warn("Capture: failed for ref=%s: %v", ref, err)
		return nil, err
	}

	return auth, nil
}

// Cancel снимает авторизацию без списания
func (c *Client) Cancel(ctx context.Context, ref string) (*Authorization, error) {
	c.log.Info("Cancel: ref=%s", ref)

	path := fmt.Sprintf("/authorizations/%s/cancel", url.PathEscape(ref))
	auth, err := c.execute(ctx, http.MethodPost, path, "cancel-"+ref, nil)
	if err != nil {
		c.log.Warn("Cancel: failed for ref=%s: %v", ref, err)
		return nil, err
	}

	return auth, nil
}

func (c *Client) execute(ctx context.Context, method, path, idempotencyKey string, payload interface{}) (*Authorization, error) {
	auth, err := c.breaker.Execute(func() (*Authorization, error) {
		return c.do(ctx, method, path, idempotencyKey, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return auth, err
}

func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, payload interface{}) (*Authorization, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// Продолжаем обработку
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, fmt.Errorf("%w: %s", ErrDeclined, readError(resp.Body))
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrAuthorizationNotFound
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, readError(resp.Body))
	default:
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, readError(resp.Body))
	}

	// Парсим ответ
	var auth Authorization
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if auth.ID == "" {
		return nil, fmt.Errorf("%w: empty authorization id", ErrInvalidResponse)
	}

	return &auth, nil
}

func readError(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return string(body)
}
