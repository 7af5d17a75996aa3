package directory

import (
	"context"
	"fmt"
	"strconv"

	admin "google.golang.org/api/admin/directory/v1"
)

// ListDomainAliases returns the customer's domain aliases.
func (c *Client) ListDomainAliases(ctx context.Context, customer string) ([]DomainAliasSummary, error) {
	resp, err := c.svc.DomainAliases.List(customerOrDefault(customer)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list domain aliases: %w", err)
	}
	out := make([]DomainAliasSummary, 0, len(resp.DomainAliases))
	for _, a := range resp.DomainAliases {
		out = append(out, DomainAliasSummary{
			Name:         a.DomainAliasName,
			ParentDomain: a.ParentDomainName,
			Verified:     a.Verified,
			Created:      millisToTime(a.CreationTime),
		})
	}
	return out, nil
}

// ListTokens returns the OAuth grants a user has issued to third-party apps.
func (c *Client) ListTokens(ctx context.Context, userKey string) ([]TokenSummary, error) {
	resp, err := c.svc.Tokens.List(userKey).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens of %s: %w", userKey, err)
	}
	out := make([]TokenSummary, 0, len(resp.Items))
	for _, t := range resp.Items {
		out = append(out, TokenSummary{
			ClientID:    t.ClientId,
			DisplayText: t.DisplayText,
			Anonymous:   t.Anonymous,
			NativeApp:   t.NativeApp,
			Scopes:      t.Scopes,
		})
	}
	return out, nil
}

// ListAppPasswords returns a user's application-specific passwords.
func (c *Client) ListAppPasswords(ctx context.Context, userKey string) ([]AppPasswordSummary, error) {
	resp, err := c.svc.Asps.List(userKey).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list app passwords of %s: %w", userKey, err)
	}
	out := make([]AppPasswordSummary, 0, len(resp.Items))
	for _, a := range resp.Items {
		out = append(out, AppPasswordSummary{
			CodeID:   a.CodeId,
			Name:     a.Name,
			Created:  millisToTime(a.CreationTime),
			LastUsed: millisToTime(a.LastTimeUsed),
		})
	}
	return out, nil
}

// SetEnforce2SV asks the directory to enforce two-step verification for a
// user.
func (c *Client) SetEnforce2SV(ctx context.Context, userKey string, enforce bool) error {
	user := &admin.User{
		IsEnforcedIn2Sv: enforce,
		ForceSendFields: []string{"IsEnforcedIn2Sv"},
	}
	if _, err := c.svc.Users.Patch(userKey, user).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to update 2SV enforcement for %s: %w", userKey, err)
	}
	return nil
}

// TurnOff2SV disables two-step verification for a user.
func (c *Client) TurnOff2SV(ctx context.Context, userKey string) error {
	if err := c.svc.TwoStepVerification.TurnOff(userKey).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to turn off 2SV for %s: %w", userKey, err)
	}
	return nil
}

// SetSuperAdmin grants or revokes super admin status.
func (c *Client) SetSuperAdmin(ctx context.Context, userKey string, grant bool) error {
	err := c.svc.Users.MakeAdmin(userKey, &admin.UserMakeAdmin{
		Status:          grant,
		ForceSendFields: []string{"Status"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to change admin status of %s: %w", userKey, err)
	}
	return nil
}

// SignOut ends all web and device sessions of a user and resets their
// sign-in cookies.
func (c *Client) SignOut(ctx context.Context, userKey string) error {
	if err := c.svc.Users.SignOut(userKey).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to sign out %s: %w", userKey, err)
	}
	return nil
}

// ListRoles returns the customer's admin roles.
func (c *Client) ListRoles(ctx context.Context, customer string) ([]RoleSummary, error) {
	var out []RoleSummary
	pageToken := ""
	for {
		call := c.svc.Roles.List(customerOrDefault(customer)).MaxResults(100).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list roles: %w", err)
		}
		for _, r := range resp.Items {
			out = append(out, RoleSummary{
				ID:          strconv.FormatInt(r.RoleId, 10),
				Name:        r.RoleName,
				Description: r.RoleDescription,
				System:      r.IsSystemRole,
				SuperAdmin:  r.IsSuperAdminRole,
			})
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// ListRoleAssignments returns role assignments, optionally filtered by user
// and role.
func (c *Client) ListRoleAssignments(ctx context.Context, customer, userKey, roleID string) ([]RoleAssignmentSummary, error) {
	var out []RoleAssignmentSummary
	pageToken := ""
	for {
		call := c.svc.RoleAssignments.List(customerOrDefault(customer)).MaxResults(200).Context(ctx)
		if userKey != "" {
			call = call.UserKey(userKey)
		}
		if roleID != "" {
			call = call.RoleId(roleID)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list role assignments: %w", err)
		}
		for _, a := range resp.Items {
			out = append(out, toRoleAssignmentSummary(a))
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// AssignRole assigns roleID customer-wide to the user identified by userKey.
func (c *Client) AssignRole(ctx context.Context, customer, userKey, roleID string) (*RoleAssignmentSummary, error) {
	id, err := strconv.ParseInt(roleID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("role id %q is not numeric: %w", roleID, err)
	}
	user, err := c.svc.Users.Get(userKey).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %s: %w", userKey, err)
	}

	a, err := c.svc.RoleAssignments.Insert(customerOrDefault(customer), &admin.RoleAssignment{
		RoleId:     id,
		AssignedTo: user.Id,
		ScopeType:  "CUSTOMER",
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to assign role %s to %s: %w", roleID, userKey, err)
	}
	s := toRoleAssignmentSummary(a)
	return &s, nil
}

// RemoveRole deletes every assignment of roleID to the user. It reports
// false when the user did not hold the role.
func (c *Client) RemoveRole(ctx context.Context, customer, userKey, roleID string) (bool, error) {
	assignments, err := c.ListRoleAssignments(ctx, customer, userKey, roleID)
	if err != nil {
		return false, err
	}

	removed := false
	for _, a := range assignments {
		if a.RoleID != roleID {
			continue
		}
		if err := c.svc.RoleAssignments.Delete(customerOrDefault(customer), a.ID).Context(ctx).Do(); err != nil {
			return removed, fmt.Errorf("failed to remove role assignment %s: %w", a.ID, err)
		}
		removed = true
	}
	return removed, nil
}

// UserID resolves an email address or alias to the immutable user id.
func (c *Client) UserID(ctx context.Context, userKey string) (string, error) {
	u, err := c.svc.Users.Get(userKey).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user %s: %w", userKey, err)
	}
	return u.Id, nil
}
