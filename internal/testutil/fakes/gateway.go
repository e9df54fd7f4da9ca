// Package fakes holds in-memory stand-ins for external collaborators.
package fakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ReservationService/internal/integrations/paymentgateway"
)

// Gateway is an in-memory payment gateway. Set the *Err fields to make the
// next calls fail.
type Gateway struct {
	mu sync.Mutex

	AuthorizeErr error
	CaptureErr   error
	CancelErr    error

	seq   int
	auths map[string]*paymentgateway.Authorization
	keys  map[string]string

	Captured  []string
	Cancelled []string
}

func NewGateway() *Gateway {
	return &Gateway{
		auths: make(map[string]*paymentgateway.Authorization),
		keys:  make(map[string]string),
	}
}

func (g *Gateway) Authorize(_ context.Context, idempotencyKey string, amount decimal.Decimal, currency string, _ map[string]string) (*paymentgateway.Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.AuthorizeErr != nil {
		return nil, g.AuthorizeErr
	}
	if id, ok := g.keys[idempotencyKey]; ok {
		auth := *g.auths[id]
		return &auth, nil
	}

	g.seq++
	auth := &paymentgateway.Authorization{
		ID:           fmt.Sprintf("auth_%d", g.seq),
		ClientSecret: fmt.Sprintf("secret_%d", g.seq),
		Status:       "requires_capture",
		Amount:       amount.StringFixed(2),
		Currency:     currency,
	}
	g.auths[auth.ID] = auth
	g.keys[idempotencyKey] = auth.ID

	out := *auth
	return &out, nil
}

func (g *Gateway) Capture(_ context.Context, ref string) (*paymentgateway.Authorization, error) {
	return g.transition(ref, "succeeded", g.CaptureErr, &g.Captured)
}

func (g *Gateway) Cancel(_ context.Context, ref string) (*paymentgateway.Authorization, error) {
	return g.transition(ref, "canceled", g.CancelErr, &g.Cancelled)
}

func (g *Gateway) transition(ref, status string, failure error, log *[]string) (*paymentgateway.Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	auth, ok := g.auths[ref]
	if !ok {
		return nil, paymentgateway.ErrAuthorizationNotFound
	}
	auth.Status = status
	*log = append(*log, ref)

	out := *auth
	return &out, nil
}

// Status returns the gateway-side status of an authorization.
func (g *Gateway) Status(ref string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if auth, ok := g.auths[ref]; ok {
		return auth.Status
	}
	return ""
}
