package directory

import (
	"strconv"
	"time"

	admin "google.golang.org/api/admin/directory/v1"
)

// UserSummary is the subset of a directory user the tools report.
type UserSummary struct {
	ID                      string
	Email                   string
	GivenName               string
	FamilyName              string
	FullName                string
	OrgUnitPath             string
	Suspended               bool
	SuspensionReason        string
	Archived                bool
	IsAdmin                 bool
	IsDelegatedAdmin        bool
	EnrolledIn2SV           bool
	EnforcedIn2SV           bool
	ChangePasswordNextLogin bool
	Aliases                 []string
	CreationTime            string
	LastLoginTime           string
}

// Role describes the admin level of the user.
func (u UserSummary) Role() string {
	switch {
	case u.IsAdmin:
		return "Super Admin"
	case u.IsDelegatedAdmin:
		return "Delegated Admin"
	default:
		return "User"
	}
}

func toUserSummary(u *admin.User) UserSummary {
	s := UserSummary{
		ID:                      u.Id,
		Email:                   u.PrimaryEmail,
		OrgUnitPath:             u.OrgUnitPath,
		Suspended:               u.Suspended,
		SuspensionReason:        u.SuspensionReason,
		Archived:                u.Archived,
		IsAdmin:                 u.IsAdmin,
		IsDelegatedAdmin:        u.IsDelegatedAdmin,
		EnrolledIn2SV:           u.IsEnrolledIn2Sv,
		EnforcedIn2SV:           u.IsEnforcedIn2Sv,
		ChangePasswordNextLogin: u.ChangePasswordAtNextLogin,
		Aliases:                 u.Aliases,
		CreationTime:            u.CreationTime,
		LastLoginTime:           u.LastLoginTime,
	}
	if u.Name != nil {
		s.GivenName = u.Name.GivenName
		s.FamilyName = u.Name.FamilyName
		s.FullName = u.Name.FullName
	}
	if s.FullName == "" {
		s.FullName = s.GivenName + " " + s.FamilyName
	}
	return s
}

// GroupSummary is the subset of a group the tools report.
type GroupSummary struct {
	ID           string
	Email        string
	Name         string
	Description  string
	MembersCount int64
	AdminCreated bool
	Aliases      []string
}

func toGroupSummary(g *admin.Group) GroupSummary {
	return GroupSummary{
		ID:           g.Id,
		Email:        g.Email,
		Name:         g.Name,
		Description:  g.Description,
		MembersCount: g.DirectMembersCount,
		AdminCreated: g.AdminCreated,
		Aliases:      g.Aliases,
	}
}

// MemberSummary is one group member.
type MemberSummary struct {
	ID     string
	Email  string
	Role   string // OWNER, MANAGER, MEMBER
	Type   string // USER, GROUP, CUSTOMER
	Status string
}

// OrgUnitSummary is one organizational unit.
type OrgUnitSummary struct {
	ID               string
	Name             string
	Path             string
	ParentPath       string
	Description      string
	BlockInheritance bool
}

func toOrgUnitSummary(ou *admin.OrgUnit) OrgUnitSummary {
	return OrgUnitSummary{
		ID:               ou.OrgUnitId,
		Name:             ou.Name,
		Path:             ou.OrgUnitPath,
		ParentPath:       ou.ParentOrgUnitPath,
		Description:      ou.Description,
		BlockInheritance: ou.BlockInheritance,
	}
}

// MobileDeviceSummary is one mobile device.
type MobileDeviceSummary struct {
	ResourceID string
	DeviceID   string
	Model      string
	OS         string
	Type       string
	Status     string
	Owners     []string
	Names      []string
	FirstSync  string
	LastSync   string
}

func toMobileDeviceSummary(d *admin.MobileDevice) MobileDeviceSummary {
	return MobileDeviceSummary{
		ResourceID: d.ResourceId,
		DeviceID:   d.DeviceId,
		Model:      d.Model,
		OS:         d.Os,
		Type:       d.Type,
		Status:     d.Status,
		Owners:     d.Email,
		Names:      d.Name,
		FirstSync:  d.FirstSync,
		LastSync:   d.LastSync,
	}
}

// ChromeDeviceSummary is one ChromeOS device.
type ChromeDeviceSummary struct {
	DeviceID      string
	SerialNumber  string
	Model         string
	OSVersion     string
	Status        string
	OrgUnitPath   string
	AnnotatedUser string
	Location      string
	AssetID       string
	LastSync      string
	RecentUsers   []string
}

func toChromeDeviceSummary(d *admin.ChromeOsDevice) ChromeDeviceSummary {
	s := ChromeDeviceSummary{
		DeviceID:      d.DeviceId,
		SerialNumber:  d.SerialNumber,
		Model:         d.Model,
		OSVersion:     d.OsVersion,
		Status:        d.Status,
		OrgUnitPath:   d.OrgUnitPath,
		AnnotatedUser: d.AnnotatedUser,
		Location:      d.AnnotatedLocation,
		AssetID:       d.AnnotatedAssetId,
		LastSync:      d.LastSync,
	}
	for _, u := range d.RecentUsers {
		if u != nil && u.Email != "" {
			s.RecentUsers = append(s.RecentUsers, u.Email)
		}
	}
	return s
}

// DomainAliasSummary is one domain alias.
type DomainAliasSummary struct {
	Name         string
	ParentDomain string
	Verified     bool
	Created      time.Time
}

// TokenSummary is one third-party OAuth grant of a user.
type TokenSummary struct {
	ClientID    string
	DisplayText string
	Anonymous   bool
	NativeApp   bool
	Scopes      []string
}

// AppPasswordSummary is one application-specific password.
type AppPasswordSummary struct {
	CodeID   int64
	Name     string
	Created  time.Time
	LastUsed time.Time
}

// RoleSummary is one admin role.
type RoleSummary struct {
	ID          string
	Name        string
	Description string
	System      bool
	SuperAdmin  bool
}

// RoleAssignmentSummary is one role assignment. IDs are decimal strings.
type RoleAssignmentSummary struct {
	ID         string
	RoleID     string
	AssignedTo string
	ScopeType  string
	OrgUnitID  string
}

func toRoleAssignmentSummary(a *admin.RoleAssignment) RoleAssignmentSummary {
	return RoleAssignmentSummary{
		ID:         strconv.FormatInt(a.RoleAssignmentId, 10),
		RoleID:     strconv.FormatInt(a.RoleId, 10),
		AssignedTo: a.AssignedTo,
		ScopeType:  a.ScopeType,
		OrgUnitID:  a.OrgUnitId,
	}
}

// millisToTime converts the API's epoch milliseconds; zero stays zero.
func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
