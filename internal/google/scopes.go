package google

// Admin SDK OAuth scopes.
const (
	ScopeOpenID    = "openid"
	ScopeUserEmail = "https://www.googleapis.com/auth/userinfo.email"

	ScopeDirectoryUser         = "https://www.googleapis.com/auth/admin.directory.user"
	ScopeDirectoryUserAlias    = "https://www.googleapis.com/auth/admin.directory.user.alias"
	ScopeDirectoryUserSecurity = "https://www.googleapis.com/auth/admin.directory.user.security"
	ScopeDirectoryGroup        = "https://www.googleapis.com/auth/admin.directory.group"
	ScopeDirectoryGroupMember  = "https://www.googleapis.com/auth/admin.directory.group.member"
	ScopeDirectoryOrgUnit      = "https://www.googleapis.com/auth/admin.directory.orgunit"
	ScopeDirectoryMobile       = "https://www.googleapis.com/auth/admin.directory.device.mobile"
	ScopeDirectoryChromeOS     = "https://www.googleapis.com/auth/admin.directory.device.chromeos"
	ScopeDirectoryDomain       = "https://www.googleapis.com/auth/admin.directory.domain"
	ScopeDirectoryCustomer     = "https://www.googleapis.com/auth/admin.directory.customer"
	ScopeDirectoryRoles        = "https://www.googleapis.com/auth/admin.directory.rolemanagement"

	ScopeReportsAudit = "https://www.googleapis.com/auth/admin.reports.audit.readonly"
	ScopeReportsUsage = "https://www.googleapis.com/auth/admin.reports.usage.readonly"

	ScopeDataTransfer = "https://www.googleapis.com/auth/admin.datatransfer"
)

// DefaultAdminScopes are requested when an account is authorized. They
// cover every registered tool so one consent is enough.
//
// The scopes provide access to:
//   - Directory: users, groups, members, org units, devices, domains, roles
//   - Reports: usage and audit activity (read-only)
//   - Data transfer: ownership transfers between users
var DefaultAdminScopes = []string{
	ScopeOpenID,
	ScopeUserEmail,

	ScopeDirectoryUser,
	ScopeDirectoryUserAlias,
	ScopeDirectoryUserSecurity,
	ScopeDirectoryGroup,
	ScopeDirectoryGroupMember,
	ScopeDirectoryOrgUnit,
	ScopeDirectoryMobile,
	ScopeDirectoryChromeOS,
	ScopeDirectoryDomain,
	ScopeDirectoryCustomer,
	ScopeDirectoryRoles,

	ScopeReportsAudit,
	ScopeReportsUsage,

	ScopeDataTransfer,
}
