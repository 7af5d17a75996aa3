package directory

import (
	"context"
	"fmt"

	admin "google.golang.org/api/admin/directory/v1"
)

const usersPageLimit = 500

// ListUsersOptions filters ListUsers. Domain takes precedence over Customer.
type ListUsersOptions struct {
	Customer      string
	Domain        string
	OrgUnitPath   string
	Query         string
	OrderBy       string
	ShowSuspended bool
	MaxResults    int
}

// ListUsers returns up to opts.MaxResults users.
func (c *Client) ListUsers(ctx context.Context, opts ListUsersOptions) ([]UserSummary, error) {
	query := opts.Query
	if opts.OrgUnitPath != "" {
		ouFilter := fmt.Sprintf("orgUnitPath='%s'", opts.OrgUnitPath)
		if query == "" {
			query = ouFilter
		} else {
			query = query + " " + ouFilter
		}
	}
	if !opts.ShowSuspended {
		if query == "" {
			query = "isSuspended=false"
		} else {
			query += " isSuspended=false"
		}
	}

	opts.MaxResults = maxOrDefault(opts.MaxResults)

	var out []UserSummary
	pageToken := ""
	for len(out) < opts.MaxResults {
		call := c.svc.Users.List().
			MaxResults(pageSize(opts.MaxResults-len(out), usersPageLimit)).
			Context(ctx)
		if opts.Domain != "" {
			call = call.Domain(opts.Domain)
		} else {
			call = call.Customer(customerOrDefault(opts.Customer))
		}
		if query != "" {
			call = call.Query(query)
		}
		if opts.OrderBy != "" {
			call = call.OrderBy(opts.OrderBy)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		for _, u := range resp.Users {
			out = append(out, toUserSummary(u))
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return truncate(out, opts.MaxResults), nil
}

// GetUser returns one user with the full projection.
func (c *Client) GetUser(ctx context.Context, userKey string) (*UserSummary, error) {
	u, err := c.svc.Users.Get(userKey).Projection("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userKey, err)
	}
	s := toUserSummary(u)
	return &s, nil
}

// UserInput carries the fields of CreateUser.
type UserInput struct {
	Email                   string
	GivenName               string
	FamilyName              string
	Password                string
	OrgUnitPath             string
	ChangePasswordNextLogin bool
	Suspended               bool
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, in UserInput) (*UserSummary, error) {
	user := &admin.User{
		PrimaryEmail:              in.Email,
		Name:                      &admin.UserName{GivenName: in.GivenName, FamilyName: in.FamilyName},
		Password:                  in.Password,
		OrgUnitPath:               in.OrgUnitPath,
		ChangePasswordAtNextLogin: in.ChangePasswordNextLogin,
		Suspended:                 in.Suspended,
	}
	created, err := c.svc.Users.Insert(user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", in.Email, err)
	}
	s := toUserSummary(created)
	return &s, nil
}

// UserPatch lists the fields UpdateUser changes. Nil fields are left alone.
type UserPatch struct {
	GivenName        *string
	FamilyName       *string
	OrgUnitPath      *string
	Suspended        *bool
	SuspensionReason *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.GivenName == nil && p.FamilyName == nil && p.OrgUnitPath == nil &&
		p.Suspended == nil && p.SuspensionReason == nil
}

// UpdateUser patches a user.
func (c *Client) UpdateUser(ctx context.Context, userKey string, p UserPatch) (*UserSummary, error) {
	user := &admin.User{}
	if p.GivenName != nil || p.FamilyName != nil {
		user.Name = &admin.UserName{}
		if p.GivenName != nil {
			user.Name.GivenName = *p.GivenName
		}
		if p.FamilyName != nil {
			user.Name.FamilyName = *p.FamilyName
		}
	}
	if p.OrgUnitPath != nil {
		user.OrgUnitPath = *p.OrgUnitPath
	}
	if p.Suspended != nil {
		user.Suspended = *p.Suspended
		// false would be dropped from the request body otherwise
		user.ForceSendFields = append(user.ForceSendFields, "Suspended")
	}
	if p.SuspensionReason != nil {
		user.SuspensionReason = *p.SuspensionReason
	}

	updated, err := c.svc.Users.Patch(userKey, user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userKey, err)
	}
	s := toUserSummary(updated)
	return &s, nil
}

// SetPassword replaces a user's password.
func (c *Client) SetPassword(ctx context.Context, userKey, password string, changeAtNextLogin bool) error {
	user := &admin.User{
		Password:                  password,
		ChangePasswordAtNextLogin: changeAtNextLogin,
		ForceSendFields:           []string{"ChangePasswordAtNextLogin"},
	}
	if _, err := c.svc.Users.Patch(userKey, user).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to reset password for %s: %w", userKey, err)
	}
	return nil
}

// DeleteUser deletes a user.
func (c *Client) DeleteUser(ctx context.Context, userKey string) error {
	if err := c.svc.Users.Delete(userKey).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userKey, err)
	}
	return nil
}

func truncate[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
