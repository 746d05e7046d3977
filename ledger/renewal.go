// renewal.go - Outbound renewal collaborator.
//
// Renewal itself lives outside this system; the order flow only calls
// Renew and fires Notify with the result. The interface is here so the
// HTTP layer can be wired with a real gateway in production and the
// no-op one everywhere else.
package ledger

import "context"

// RenewalOptions carries optional inputs to a renewal request.
type RenewalOptions struct {
	// DurationDays extends by this many days when set; otherwise the
	// gateway applies the order's own duration.
	DurationDays *int
	Note         string
}

// RenewalResult is what the gateway reports back for an order.
type RenewalResult struct {
	OrderCode string
	Renewed   bool
	NewExpiry *Date
	Message   string
}

// RenewalGateway is the outbound renewal-notification collaborator.
// Notify is fire-and-forget: errors are the gateway's problem.
type RenewalGateway interface {
	Renew(ctx context.Context, orderCode string, opts RenewalOptions) (*RenewalResult, error)
	Notify(ctx context.Context, orderCode string, result *RenewalResult)
}

// NoopRenewalGateway satisfies RenewalGateway without doing anything.
type NoopRenewalGateway struct{}

func (NoopRenewalGateway) Renew(_ context.Context, orderCode string, _ RenewalOptions) (*RenewalResult, error) {
	return &RenewalResult{OrderCode: orderCode, Renewed: false, Message: "renewal gateway not configured"}, nil
}

func (NoopRenewalGateway) Notify(context.Context, string, *RenewalResult) {}
