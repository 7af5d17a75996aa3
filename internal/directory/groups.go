package directory

import (
	"context"
	"fmt"

	admin "google.golang.org/api/admin/directory/v1"
)

const groupsPageLimit = 200

// ListGroupsOptions filters ListGroups.
type ListGroupsOptions struct {
	Customer   string
	Domain     string
	Query      string
	MaxResults int
}

// ListGroups returns up to opts.MaxResults groups.
func (c *Client) ListGroups(ctx context.Context, opts ListGroupsOptions) ([]GroupSummary, error) {
	opts.MaxResults = maxOrDefault(opts.MaxResults)

	var out []GroupSummary
	pageToken := ""
	for len(out) < opts.MaxResults {
		call := c.svc.Groups.List().
			MaxResults(pageSize(opts.MaxResults-len(out), groupsPageLimit)).
			Context(ctx)
		if opts.Domain != "" {
			call = call.Domain(opts.Domain)
		} else {
			call = call.Customer(customerOrDefault(opts.Customer))
		}
		if opts.Query != "" {
			call = call.Query(opts.Query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list groups: %w", err)
		}
		for _, g := range resp.Groups {
			out = append(out, toGroupSummary(g))
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return truncate(out, opts.MaxResults), nil
}

// GetGroup returns one group.
func (c *Client) GetGroup(ctx context.Context, groupKey string) (*GroupSummary, error) {
	g, err := c.svc.Groups.Get(groupKey).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get group %s: %w", groupKey, err)
	}
	s := toGroupSummary(g)
	return &s, nil
}

// CreateGroup creates a group.
func (c *Client) CreateGroup(ctx context.Context, email, name, description string) (*GroupSummary, error) {
	g, err := c.svc.Groups.Insert(&admin.Group{
		Email:       email,
		Name:        name,
		Description: description,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create group %s: %w", email, err)
	}
	s := toGroupSummary(g)
	return &s, nil
}

// DeleteGroup deletes a group.
func (c *Client) DeleteGroup(ctx context.Context, groupKey string) error {
	if err := c.svc.Groups.Delete(groupKey).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete group %s: %w", groupKey, err)
	}
	return nil
}

// ListMembers returns up to limit members of a group.
func (c *Client) ListMembers(ctx context.Context, groupKey string, limit int) ([]MemberSummary, error) {
	limit = maxOrDefault(limit)

	var out []MemberSummary
	pageToken := ""
	for len(out) < limit {
		call := c.svc.Members.List(groupKey).
			MaxResults(pageSize(limit-len(out), groupsPageLimit)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list members of %s: %w", groupKey, err)
		}
		for _, m := range resp.Members {
			out = append(out, MemberSummary{
				ID:     m.Id,
				Email:  m.Email,
				Role:   m.Role,
				Type:   m.Type,
				Status: m.Status,
			})
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return truncate(out, limit), nil
}
