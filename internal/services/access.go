package services

import (
	"errors"
	"sort"

	"github.com/canopyhq/canopy/internal/models"
	"gorm.io/gorm"
)

// Resolution failures are sentinel errors so callers are forced to branch on
// the "no context" case explicitly. Store errors are propagated as-is:
// granting full access on an infrastructure error would be a security defect,
// so this service never fails open.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotAMember      = errors.New("not a member of any organization")
)

// AuthContext is the resolved identity, organization role and access scope
// for one request. It is derived fresh per request and never cached.
type AuthContext struct {
	AccountID      uint           `json:"account_id"`
	MemberID       uint           `json:"member_id"`
	OrganizationID uint           `json:"organization_id"`
	Role           models.OrgRole `json:"role"`
	HasFullAccess  bool           `json:"has_full_access"`
	AssignedJobIDs []uint         `json:"assigned_job_ids"`
}

// CanAccessJob reports whether the context may see the given job. Must agree
// with JobScope: a job passes here iff the scoped query would match it.
func (ctx *AuthContext) CanAccessJob(jobID uint) bool {
	if ctx.HasFullAccess {
		return true
	}
	for _, id := range ctx.AssignedJobIDs {
		if id == jobID {
			return true
		}
	}
	return false
}

func (ctx *AuthContext) CanManagePipeline() bool    { return ctx.Role.CanManagePipeline() }
func (ctx *AuthContext) CanLeaveNotes() bool        { return ctx.Role.CanLeaveNotes() }
func (ctx *AuthContext) CanSubmitScorecard() bool   { return ctx.Role.CanSubmitScorecard() }
func (ctx *AuthContext) CanManageAssignments() bool { return ctx.Role.CanManageAssignments() }

// AccessService resolves request identities into access scopes and provides
// the filter builders every data-access path shares.
type AccessService struct {
	db *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{db: db}
}

// ResolveAuthContext looks up the account and its organization membership and
// classifies the member's access scope. Returns ErrUnauthenticated when the
// account does not exist or is disabled, ErrNotAMember when it belongs to no
// organization, and the underlying error on store failure.
func (s *AccessService) ResolveAuthContext(accountID uint) (*AuthContext, error) {
	if accountID == 0 {
		return nil, ErrUnauthenticated
	}

	var account models.Account
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrUnauthenticated
	}

	var member models.OrganizationMember
	if err := s.db.Where("account_id = ?", account.ID).Order("id ASC").First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, err
	}

	ctx := &AuthContext{
		AccountID:      account.ID,
		MemberID:       member.ID,
		OrganizationID: member.OrganizationID,
		Role:           member.Role,
		HasFullAccess:  member.Role.HasFullAccess(),
	}

	if !ctx.HasFullAccess {
		ids, err := s.assignedJobIDs(&member)
		if err != nil {
			return nil, err
		}
		ctx.AssignedJobIDs = ids
	}

	return ctx, nil
}

// assignedJobIDs is the deduplicated union of jobs where the member is the
// recruiter, jobs where the member is the hiring manager, and jobs with an
// explicit assignment row, all within the member's organization.
func (s *AccessService) assignedJobIDs(member *models.OrganizationMember) ([]uint, error) {
	var recruiterJobs []uint
	if err := s.db.Model(&models.Job{}).
		Where("organization_id = ? AND recruiter_id = ?", member.OrganizationID, member.ID).
		Pluck("id", &recruiterJobs).Error; err != nil {
		return nil, err
	}

	var managerJobs []uint
	if err := s.db.Model(&models.Job{}).
		Where("organization_id = ? AND hiring_manager_id = ?", member.OrganizationID, member.ID).
		Pluck("id", &managerJobs).Error; err != nil {
		return nil, err
	}

	var assignedJobs []uint
	if err := s.db.Model(&models.JobAssignment{}).
		Joins("JOIN jobs ON jobs.id = job_assignments.job_id AND jobs.deleted_at IS NULL").
		Where("job_assignments.member_id = ? AND jobs.organization_id = ?", member.ID, member.OrganizationID).
		Pluck("job_assignments.job_id", &assignedJobs).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{})
	var ids []uint
	for _, group := range [][]uint{recruiterJobs, managerJobs, assignedJobs} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// JobScope returns a gorm scope restricting a job query to what the context
// may see. A restricted member with no assigned jobs matches nothing, not
// everything.
func JobScope(ctx *AuthContext) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("jobs.organization_id = ?", ctx.OrganizationID)
		if ctx.HasFullAccess {
			return db
		}
		if len(ctx.AssignedJobIDs) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("jobs.id IN ?", ctx.AssignedJobIDs)
	}
}

// ApplicationScope returns a gorm scope restricting an application query to
// applications whose owning job the context may see. Soft-deleted
// applications are excluded by the model's DeletedAt; soft-deleted jobs are
// excluded explicitly since the join bypasses gorm's soft-delete handling.
func ApplicationScope(ctx *AuthContext) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.
			Joins("JOIN jobs ON jobs.id = applications.job_id AND jobs.deleted_at IS NULL").
			Where("jobs.organization_id = ?", ctx.OrganizationID)
		if ctx.HasFullAccess {
			return db
		}
		if len(ctx.AssignedJobIDs) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("jobs.id IN ?", ctx.AssignedJobIDs)
	}
}
