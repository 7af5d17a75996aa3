package reports

import (
	"context"
	"fmt"
	"strings"

	reportsapi "google.golang.org/api/admin/reports/v1"
	"google.golang.org/api/option"

	"github.com/teemow/gsuiteadmin/internal/google"
)

// MyCustomer addresses the customer of the authenticated admin.
const MyCustomer = "my_customer"

// AllUsers requests a report across every user of the customer.
const AllUsers = "all"

const (
	usagePageLimit    = 1000
	activityPageLimit = 1000
)

// Client wraps the Reports service for one admin account.
type Client struct {
	svc     *reportsapi.Service
	account string
}

// NewClient creates a Reports client authorized by cred.
func NewClient(ctx context.Context, cred *google.Credential, opts ...option.ClientOption) (*Client, error) {
	all := append([]option.ClientOption{option.WithTokenSource(cred.TokenSource())}, opts...)
	svc, err := reportsapi.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Reports service: %w", err)
	}
	return &Client{svc: svc, account: cred.Email}, nil
}

// Account returns the admin account the client acts as.
func (c *Client) Account() string {
	return c.account
}

// UserUsageOptions selects a user usage report.
type UserUsageOptions struct {
	UserKey    string
	Date       string
	Parameters []string
	MaxResults int
}

// UserUsage returns usage reports for one user or for all users.
func (c *Client) UserUsage(ctx context.Context, opts UserUsageOptions) (*UsageResult, error) {
	userKey := opts.UserKey
	if userKey == "" {
		userKey = AllUsers
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = usagePageLimit
	}

	out := &UsageResult{Date: opts.Date}
	pageToken := ""
	for len(out.Reports) < limit {
		call := c.svc.UserUsageReport.Get(userKey, opts.Date).
			MaxResults(int64(min(limit-len(out.Reports), usagePageLimit))).
			Context(ctx)
		if len(opts.Parameters) > 0 {
			call = call.Parameters(strings.Join(opts.Parameters, ","))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get usage report for %s on %s: %w", userKey, opts.Date, err)
		}
		out.add(resp)
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	if len(out.Reports) > limit {
		out.Reports = out.Reports[:limit]
	}
	return out, nil
}

// CustomerUsage returns the customer-level usage report of date.
func (c *Client) CustomerUsage(ctx context.Context, customer, date string, parameters []string) (*UsageResult, error) {
	if customer == "" || customer == MyCustomer {
		// An empty id selects the caller's customer.
		customer = ""
	}

	out := &UsageResult{Date: date}
	pageToken := ""
	for {
		call := c.svc.CustomerUsageReports.Get(date).Context(ctx)
		if customer != "" {
			call = call.CustomerId(customer)
		}
		if len(parameters) > 0 {
			call = call.Parameters(strings.Join(parameters, ","))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get customer usage report on %s: %w", date, err)
		}
		out.add(resp)
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// ActivityOptions filters audit activities.
type ActivityOptions struct {
	Customer        string
	ApplicationName string
	UserKey         string
	StartTime       string
	EndTime         string
	EventName       string
	ActorIPAddress  string
	MaxResults      int
}

// Activities lists audit activities of one application.
func (c *Client) Activities(ctx context.Context, opts ActivityOptions) ([]Activity, error) {
	userKey := opts.UserKey
	if userKey == "" {
		userKey = AllUsers
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = activityPageLimit
	}

	var out []Activity
	pageToken := ""
	for len(out) < limit {
		call := c.svc.Activities.List(userKey, opts.ApplicationName).
			MaxResults(int64(min(limit-len(out), activityPageLimit))).
			Context(ctx)
		if opts.Customer != "" && opts.Customer != MyCustomer {
			call = call.CustomerId(opts.Customer)
		}
		if opts.StartTime != "" {
			call = call.StartTime(opts.StartTime)
		}
		if opts.EndTime != "" {
			call = call.EndTime(opts.EndTime)
		}
		if opts.EventName != "" {
			call = call.EventName(opts.EventName)
		}
		if opts.ActorIPAddress != "" {
			call = call.ActorIpAddress(opts.ActorIPAddress)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list %s activities: %w", opts.ApplicationName, err)
		}
		for _, a := range resp.Items {
			out = append(out, toActivity(a))
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
