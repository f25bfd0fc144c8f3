package services

import (
	"errors"

	"github.com/canopyhq/canopy/internal/models"
	"github.com/canopyhq/canopy/internal/utils"
	"gorm.io/gorm"
)

// MemberService manages an organization's roster.
type MemberService struct {
	db *gorm.DB
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// canManageMembers limits roster changes to the organization's leadership.
func canManageMembers(role models.OrgRole) bool {
	return role == models.RoleOwner || role == models.RoleAdmin
}

// List returns every member of the context's organization.
func (s *MemberService) List(ctx *AuthContext) ([]models.OrganizationMember, error) {
	var members []models.OrganizationMember
	if err := s.db.Preload("Account").
		Where("organization_id = ?", ctx.OrganizationID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

type AddMemberRequest struct {
	Email    string         `json:"email" binding:"required,email"`
	Name     string         `json:"name"`
	Password string         `json:"password" binding:"required,min=6"`
	Role     models.OrgRole `json:"role" binding:"required"`
}

// AddMember creates an account if needed and enrolls it in the organization.
func (s *MemberService) AddMember(ctx *AuthContext, req *AddMemberRequest) (*models.OrganizationMember, error) {
	if !canManageMembers(ctx.Role) {
		return nil, ErrForbidden
	}
	if !req.Role.Valid() {
		return nil, errors.New("invalid role")
	}
	if req.Role == models.RoleOwner && ctx.Role != models.RoleOwner {
		return nil, ErrForbidden
	}

	var member *models.OrganizationMember
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		err := tx.Where("email = ?", req.Email).First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hashed, err := utils.HashPassword(req.Password)
			if err != nil {
				return err
			}
			account = models.Account{
				Email:    req.Email,
				Name:     req.Name,
				Password: hashed,
				IsActive: true,
			}
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var existing int64
		tx.Model(&models.OrganizationMember{}).
			Where("organization_id = ? AND account_id = ?", ctx.OrganizationID, account.ID).
			Count(&existing)
		if existing > 0 {
			return errors.New("account is already a member")
		}

		m := models.OrganizationMember{
			OrganizationID: ctx.OrganizationID,
			AccountID:      account.ID,
			Role:           req.Role,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		member = &m
		return nil
	})
	if err != nil {
		return nil, err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "member.added", "organization_member", member.ID, req.Email, map[string]interface{}{
		"role": req.Role,
	})
	return member, nil
}

// UpdateRole changes a member's role. Only an owner may grant or revoke the
// OWNER role, and the last owner cannot be demoted.
func (s *MemberService) UpdateRole(ctx *AuthContext, memberID uint, role models.OrgRole) (*models.OrganizationMember, error) {
	if !canManageMembers(ctx.Role) {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, errors.New("invalid role")
	}

	var member models.OrganizationMember
	if err := s.db.Where("id = ? AND organization_id = ?", memberID, ctx.OrganizationID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	if (member.Role == models.RoleOwner || role == models.RoleOwner) && ctx.Role != models.RoleOwner {
		return nil, ErrForbidden
	}

	if member.Role == models.RoleOwner && role != models.RoleOwner {
		var owners int64
		s.db.Model(&models.OrganizationMember{}).
			Where("organization_id = ? AND role = ?", ctx.OrganizationID, models.RoleOwner).
			Count(&owners)
		if owners <= 1 {
			return nil, errors.New("organization must keep at least one owner")
		}
	}

	from := member.Role
	member.Role = role
	if err := s.db.Save(&member).Error; err != nil {
		return nil, err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "member.role_changed", "organization_member", member.ID, "", map[string]interface{}{
		"from": from,
		"to":   role,
	})
	return &member, nil
}

// RemoveMember takes an account out of the organization. Their scorecards
// and notes are kept.
func (s *MemberService) RemoveMember(ctx *AuthContext, memberID uint) error {
	if !canManageMembers(ctx.Role) {
		return ErrForbidden
	}

	var member models.OrganizationMember
	if err := s.db.Where("id = ? AND organization_id = ?", memberID, ctx.OrganizationID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	if member.Role == models.RoleOwner {
		return errors.New("owners cannot be removed")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("member_id = ?", member.ID).Delete(&models.JobAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&member).Error; err != nil {
			return err
		}
		Audit(&ctx.OrganizationID, &ctx.MemberID, "member.removed", "organization_member", member.ID, "", nil)
		return nil
	})
}
