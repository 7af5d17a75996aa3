package datatransfer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	transferapi "google.golang.org/api/admin/datatransfer/v1"
	"google.golang.org/api/option"

	"github.com/teemow/gsuiteadmin/internal/google"
)

// DriveApplicationName is the transferable application used when the caller
// does not pick one.
const DriveApplicationName = "Drive and Docs"

// DefaultPrivacyLevels selects the Drive files a transfer moves when the
// caller does not choose.
var DefaultPrivacyLevels = []string{"PRIVATE", "SHARED"}

// Client wraps the Data Transfer service for one admin account.
type Client struct {
	svc     *transferapi.Service
	account string
}

// NewClient creates a Data Transfer client authorized by cred.
func NewClient(ctx context.Context, cred *google.Credential, opts ...option.ClientOption) (*Client, error) {
	all := append([]option.ClientOption{option.WithTokenSource(cred.TokenSource())}, opts...)
	svc, err := transferapi.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Data Transfer service: %w", err)
	}
	return &Client{svc: svc, account: cred.Email}, nil
}

// Account returns the admin account the client acts as.
func (c *Client) Account() string {
	return c.account
}

// ListTransfersOptions filters ListTransfers.
type ListTransfersOptions struct {
	OldOwnerUserID string
	NewOwnerUserID string
	Status         string
	MaxResults     int
}

// ListTransfers returns data transfer requests, newest first as the API
// orders them.
func (c *Client) ListTransfers(ctx context.Context, opts ListTransfersOptions) ([]Transfer, error) {
	limit := opts.MaxResults
	if limit <= 0 {
		limit = 100
	}

	var out []Transfer
	pageToken := ""
	for len(out) < limit {
		call := c.svc.Transfers.List().
			MaxResults(int64(min(limit-len(out), 500))).
			Context(ctx)
		if opts.OldOwnerUserID != "" {
			call = call.OldOwnerUserId(opts.OldOwnerUserID)
		}
		if opts.NewOwnerUserID != "" {
			call = call.NewOwnerUserId(opts.NewOwnerUserID)
		}
		if opts.Status != "" {
			call = call.Status(opts.Status)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list data transfers: %w", err)
		}
		for _, t := range resp.DataTransfers {
			out = append(out, toTransfer(t))
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

// GetTransfer returns one transfer request.
func (c *Client) GetTransfer(ctx context.Context, id string) (*Transfer, error) {
	t, err := c.svc.Transfers.Get(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get data transfer %s: %w", id, err)
	}
	out := toTransfer(t)
	return &out, nil
}

// ListApplications returns the applications whose data can be transferred.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	var out []Application
	pageToken := ""
	for {
		call := c.svc.Applications.List().MaxResults(500).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list transfer applications: %w", err)
		}
		for _, a := range resp.Applications {
			out = append(out, Application{ID: strconv.FormatInt(a.Id, 10), Name: a.Name})
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// ApplicationID resolves an application by case-insensitive name.
func (c *Client) ApplicationID(ctx context.Context, name string) (string, error) {
	apps, err := c.ListApplications(ctx)
	if err != nil {
		return "", err
	}
	for _, a := range apps {
		if strings.EqualFold(a.Name, name) {
			return a.ID, nil
		}
	}
	return "", fmt.Errorf("no transferable application named %q", name)
}

// TransferInput describes a new transfer. Owner ids are directory user ids,
// not email addresses.
type TransferInput struct {
	OldOwnerUserID string
	NewOwnerUserID string
	ApplicationID  string
	PrivacyLevels  []string
}

// CreateTransfer starts a data transfer.
func (c *Client) CreateTransfer(ctx context.Context, in TransferInput) (*Transfer, error) {
	appID, err := strconv.ParseInt(in.ApplicationID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("application id %q is not numeric: %w", in.ApplicationID, err)
	}
	levels := in.PrivacyLevels
	if len(levels) == 0 {
		levels = DefaultPrivacyLevels
	}

	req := &transferapi.DataTransfer{
		OldOwnerUserId: in.OldOwnerUserID,
		NewOwnerUserId: in.NewOwnerUserID,
		ApplicationDataTransfers: []*transferapi.ApplicationDataTransfer{{
			ApplicationId: appID,
			ApplicationTransferParams: []*transferapi.ApplicationTransferParam{{
				Key:   "PRIVACY_LEVEL",
				Value: levels,
			}},
		}},
	}
	t, err := c.svc.Transfers.Insert(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create data transfer: %w", err)
	}
	out := toTransfer(t)
	return &out, nil
}
