package models

// OrgRole is the closed set of roles a member can hold in an organization.
// Keep the predicate switches below exhaustive: adding a role must force a
// decision at every access-control site.
type OrgRole string

const (
	RoleOwner         OrgRole = "OWNER"
	RoleAdmin         OrgRole = "ADMIN"
	RoleRecruiter     OrgRole = "RECRUITER"
	RoleHiringManager OrgRole = "HIRING_MANAGER"
	RoleMember        OrgRole = "MEMBER"
	RoleViewer        OrgRole = "VIEWER"
)

// Valid reports whether r is one of the known roles.
func (r OrgRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleRecruiter, RoleHiringManager, RoleMember, RoleViewer:
		return true
	}
	return false
}

// HasFullAccess reports whether the role is exempt from per-job assignment
// scoping and sees every job in its organization.
func (r OrgRole) HasFullAccess() bool {
	switch r {
	case RoleAdmin, RoleRecruiter, RoleViewer:
		return true
	case RoleOwner, RoleHiringManager, RoleMember:
		return false
	}
	return false
}

// CanManagePipeline reports whether the role may move applications between
// stages or soft-delete them.
func (r OrgRole) CanManagePipeline() bool {
	switch r {
	case RoleAdmin, RoleRecruiter, RoleHiringManager:
		return true
	case RoleOwner, RoleMember, RoleViewer:
		return false
	}
	return false
}

// CanLeaveNotes reports whether the role may attach notes to applications.
func (r OrgRole) CanLeaveNotes() bool {
	switch r {
	case RoleViewer:
		return false
	case RoleOwner, RoleAdmin, RoleRecruiter, RoleHiringManager, RoleMember:
		return true
	}
	return false
}

// CanSubmitScorecard reports whether the role may submit review scorecards.
func (r OrgRole) CanSubmitScorecard() bool {
	switch r {
	case RoleViewer:
		return false
	case RoleOwner, RoleAdmin, RoleRecruiter, RoleHiringManager, RoleMember:
		return true
	}
	return false
}

// CanManageAssignments reports whether the role may add or remove reviewer
// assignments, and thus alter blind-review rosters.
func (r OrgRole) CanManageAssignments() bool {
	switch r {
	case RoleAdmin, RoleRecruiter:
		return true
	case RoleOwner, RoleHiringManager, RoleMember, RoleViewer:
		return false
	}
	return false
}

// CanBypassBlindReview reports whether the role sees all scorecards even
// while blind review is in effect.
func (r OrgRole) CanBypassBlindReview() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleRecruiter:
		return true
	case RoleHiringManager, RoleMember, RoleViewer:
		return false
	}
	return false
}
