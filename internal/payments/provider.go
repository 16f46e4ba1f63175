package payments

import "context"

type PaymentProvider interface {
	Name() string

	// CreatePayment returns a checkout link and invoice for the
	// registration fee of one registrant.
	CreatePayment(ctx context.Context, email string, amount string, returnURL string) (payURL string, invoice string, err error)

	// HandleWebhook validates a provider callback and returns the
	// registrant email plus status (paid/cancelled).
	HandleWebhook(ctx context.Context, body []byte, headers map[string]string) (email string, status string, err error)
}
