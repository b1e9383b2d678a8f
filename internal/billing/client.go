// Package billing wraps the Stripe API behind a small interface so the
// synchronizer and the deletion orchestrator can be exercised without
// network access.
package billing

import (
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	stripecustomer "github.com/stripe/stripe-go/v82/customer"
	stripesubscription "github.com/stripe/stripe-go/v82/subscription"
)

// Summary is a normalized snapshot of a Stripe subscription, the shape the
// rest of the system writes into the billing mirror.
type Summary struct {
	SubscriptionID     string
	CustomerID         string
	Status             string
	PriceID            string
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	CancelAtPeriodEnd  bool
}

// API is the slice of Stripe this system calls outbound.
type API interface {
	GetSubscription(id string) (*Summary, error)
	CancelSubscription(id string) error
	EnsureCustomer(email string) (string, error)
	DeleteCustomer(id string) error
}

// Client implements API against the live Stripe API. The package-level
// Stripe functions are held as fields so tests can swap them out.
type Client struct {
	getSubscription    func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	cancelSubscription func(id string, params *stripe.SubscriptionCancelParams) (*stripe.Subscription, error)
	newCustomer        func(params *stripe.CustomerParams) (*stripe.Customer, error)
	listCustomers      func(params *stripe.CustomerListParams) *stripecustomer.Iter
	deleteCustomer     func(id string, params *stripe.CustomerParams) (*stripe.Customer, error)
}

// NewClient configures the global Stripe key and returns a live client.
func NewClient(apiKey string) *Client {
	stripe.Key = strings.TrimSpace(apiKey)
	return &Client{
		getSubscription:    stripesubscription.Get,
		cancelSubscription: stripesubscription.Cancel,
		newCustomer:        stripecustomer.New,
		listCustomers:      stripecustomer.List,
		deleteCustomer:     stripecustomer.Del,
	}
}

func (c *Client) GetSubscription(id string) (*Summary, error) {
	if !IsSafeStripeID(id) {
		return nil, fmt.Errorf("invalid subscription id %q", id)
	}
	sub, err := c.getSubscription(id, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch subscription %s: %w", id, err)
	}
	return summarize(sub), nil
}

func (c *Client) CancelSubscription(id string) error {
	if !IsSafeStripeID(id) {
		return fmt.Errorf("invalid subscription id %q", id)
	}
	if _, err := c.cancelSubscription(id, nil); err != nil {
		return fmt.Errorf("cancel subscription %s: %w", id, err)
	}
	return nil
}

// EnsureCustomer returns the Stripe customer ID for an email, creating the
// customer when none exists yet.
func (c *Client) EnsureCustomer(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("email required to resolve customer")
	}

	iter := c.listCustomers(&stripe.CustomerListParams{Email: stripe.String(email)})
	for iter.Next() {
		if cust := iter.Customer(); cust != nil && cust.ID != "" {
			return cust.ID, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list customers for %s: %w", email, err)
	}

	cust, err := c.newCustomer(&stripe.CustomerParams{Email: stripe.String(email)})
	if err != nil {
		return "", fmt.Errorf("create customer for %s: %w", email, err)
	}
	return cust.ID, nil
}

func (c *Client) DeleteCustomer(id string) error {
	if !IsSafeStripeID(id) {
		return fmt.Errorf("invalid customer id %q", id)
	}
	if _, err := c.deleteCustomer(id, nil); err != nil {
		return fmt.Errorf("delete customer %s: %w", id, err)
	}
	return nil
}

// summarize flattens a Stripe subscription. Period bounds live on the
// subscription items in current API versions.
func summarize(sub *stripe.Subscription) *Summary {
	s := &Summary{
		SubscriptionID:    sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		s.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		s.CurrentPeriodStart = item.CurrentPeriodStart
		s.CurrentPeriodEnd = item.CurrentPeriodEnd
		if item.Price != nil {
			s.PriceID = item.Price.ID
		}
	}
	return s
}
