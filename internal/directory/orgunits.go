package directory

import (
	"context"
	"fmt"
	"strings"

	admin "google.golang.org/api/admin/directory/v1"
)

// Org unit listing depths accepted by ListOrgUnits.
const (
	OrgUnitTypeAll                = "all"
	OrgUnitTypeChildren           = "children"
	OrgUnitTypeAllIncludingParent = "allIncludingParent"
)

// ListOrgUnits lists org units below path.
func (c *Client) ListOrgUnits(ctx context.Context, customer, path, listType string) ([]OrgUnitSummary, error) {
	call := c.svc.Orgunits.List(customerOrDefault(customer)).Context(ctx)
	if path != "" {
		call = call.OrgUnitPath(path)
	}
	if listType != "" {
		call = call.Type(listType)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list org units: %w", err)
	}
	out := make([]OrgUnitSummary, 0, len(resp.OrganizationUnits))
	for _, ou := range resp.OrganizationUnits {
		out = append(out, toOrgUnitSummary(ou))
	}
	return out, nil
}

// orgUnitKey converts an org unit path into the API's path parameter, which
// omits the leading slash.
func orgUnitKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

// GetOrgUnit returns one org unit.
func (c *Client) GetOrgUnit(ctx context.Context, customer, path string) (*OrgUnitSummary, error) {
	ou, err := c.svc.Orgunits.Get(customerOrDefault(customer), orgUnitKey(path)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get org unit %s: %w", path, err)
	}
	s := toOrgUnitSummary(ou)
	return &s, nil
}

// OrgUnitInput carries the fields of CreateOrgUnit.
type OrgUnitInput struct {
	Name              string
	ParentOrgUnitPath string
	Description       string
	BlockInheritance  bool
}

// CreateOrgUnit creates an org unit.
func (c *Client) CreateOrgUnit(ctx context.Context, customer string, in OrgUnitInput) (*OrgUnitSummary, error) {
	ou, err := c.svc.Orgunits.Insert(customerOrDefault(customer), &admin.OrgUnit{
		Name:              in.Name,
		ParentOrgUnitPath: in.ParentOrgUnitPath,
		Description:       in.Description,
		BlockInheritance:  in.BlockInheritance,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create org unit %s: %w", in.Name, err)
	}
	s := toOrgUnitSummary(ou)
	return &s, nil
}

// OrgUnitPatch lists the fields UpdateOrgUnit changes.
type OrgUnitPatch struct {
	Name              *string
	Description       *string
	ParentOrgUnitPath *string
	BlockInheritance  *bool
}

// Empty reports whether the patch changes nothing.
func (p OrgUnitPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.ParentOrgUnitPath == nil && p.BlockInheritance == nil
}

// UpdateOrgUnit patches an org unit.
func (c *Client) UpdateOrgUnit(ctx context.Context, customer, path string, p OrgUnitPatch) (*OrgUnitSummary, error) {
	ou := &admin.OrgUnit{}
	if p.Name != nil {
		ou.Name = *p.Name
	}
	if p.Description != nil {
		ou.Description = *p.Description
		ou.ForceSendFields = append(ou.ForceSendFields, "Description")
	}
	if p.ParentOrgUnitPath != nil {
		ou.ParentOrgUnitPath = *p.ParentOrgUnitPath
	}
	if p.BlockInheritance != nil {
		ou.BlockInheritance = *p.BlockInheritance
		ou.ForceSendFields = append(ou.ForceSendFields, "BlockInheritance")
	}

	updated, err := c.svc.Orgunits.Patch(customerOrDefault(customer), orgUnitKey(path), ou).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update org unit %s: %w", path, err)
	}
	s := toOrgUnitSummary(updated)
	return &s, nil
}

// DeleteOrgUnit deletes an empty org unit.
func (c *Client) DeleteOrgUnit(ctx context.Context, customer, path string) error {
	if err := c.svc.Orgunits.Delete(customerOrDefault(customer), orgUnitKey(path)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete org unit %s: %w", path, err)
	}
	return nil
}
