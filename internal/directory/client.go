package directory

import (
	"context"
	"fmt"

	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"

	"github.com/teemow/gsuiteadmin/internal/google"
)

// MyCustomer addresses the customer of the authenticated admin.
const MyCustomer = "my_customer"

// Client wraps the Directory service for one admin account.
type Client struct {
	svc     *admin.Service
	account string
}

// NewClient creates a Directory client authorized by cred. Extra options are
// appended, so an endpoint or HTTP client override wins.
func NewClient(ctx context.Context, cred *google.Credential, opts ...option.ClientOption) (*Client, error) {
	all := append([]option.ClientOption{option.WithTokenSource(cred.TokenSource())}, opts...)
	svc, err := admin.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Directory service: %w", err)
	}
	return &Client{svc: svc, account: cred.Email}, nil
}

// Account returns the admin account the client acts as.
func (c *Client) Account() string {
	return c.account
}

func customerOrDefault(customer string) string {
	if customer == "" {
		return MyCustomer
	}
	return customer
}

// DefaultMaxResults is used when a list call does not set a cap.
const DefaultMaxResults = 100

func maxOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxResults
	}
	return n
}

// pageSize returns how many items to request next, given how many are
// still wanted and the endpoint's page limit.
func pageSize(remaining, limit int) int64 {
	if remaining < limit {
		return int64(remaining)
	}
	return int64(limit)
}
