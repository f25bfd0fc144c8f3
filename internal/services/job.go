package services

import (
	"errors"

	"github.com/canopyhq/canopy/internal/models"
	"gorm.io/gorm"
)

// JobService manages job postings and reviewer assignments. Every read goes
// through JobScope so restricted members only ever see their assigned jobs.
type JobService struct {
	db *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{db: db}
}

type JobListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
	Keyword  string `form:"keyword"`
}

type JobListResponse struct {
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Items    []models.Job `json:"items"`
}

// List returns the jobs visible to the context, newest first.
func (s *JobService) List(ctx *AuthContext, req *JobListRequest) (*JobListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Job{}).Scopes(JobScope(ctx))

	if req.Status != "" {
		query = query.Where("jobs.status = ?", req.Status)
	}
	if req.Keyword != "" {
		query = query.Where("jobs.title LIKE ?", "%"+req.Keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var jobs []models.Job
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("jobs.created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}

	return &JobListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    jobs,
	}, nil
}

// Get fetches one job within the context's scope. Out-of-scope jobs return
// not-found, never forbidden, so their existence is not revealed.
func (s *JobService) Get(ctx *AuthContext, jobID uint) (*models.Job, error) {
	var job models.Job
	if err := s.db.Scopes(JobScope(ctx)).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

type CreateJobRequest struct {
	Title           string `json:"title" binding:"required"`
	Location        string `json:"location"`
	RecruiterID     *uint  `json:"recruiter_id"`
	HiringManagerID *uint  `json:"hiring_manager_id"`
}

// Create opens a new job posting in the context's organization.
func (s *JobService) Create(ctx *AuthContext, req *CreateJobRequest) (*models.Job, error) {
	if !ctx.CanManageAssignments() {
		return nil, ErrForbidden
	}

	if req.RecruiterID != nil {
		if err := s.validateMember(ctx.OrganizationID, *req.RecruiterID); err != nil {
			return nil, err
		}
	}
	if req.HiringManagerID != nil {
		if err := s.validateMember(ctx.OrganizationID, *req.HiringManagerID); err != nil {
			return nil, err
		}
	}

	job := models.Job{
		OrganizationID:  ctx.OrganizationID,
		Title:           req.Title,
		Location:        req.Location,
		Status:          models.JobStatusOpen,
		RecruiterID:     req.RecruiterID,
		HiringManagerID: req.HiringManagerID,
		CreatedBy:       ctx.MemberID,
	}
	if err := s.db.Create(&job).Error; err != nil {
		return nil, err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "job.created", "job", job.ID, job.Title, nil)
	return &job, nil
}

type UpdateJobRequest struct {
	Title           *string `json:"title"`
	Location        *string `json:"location"`
	Status          *string `json:"status"`
	RecruiterID     *uint   `json:"recruiter_id"`
	HiringManagerID *uint   `json:"hiring_manager_id"`
}

// Update modifies a job posting.
func (s *JobService) Update(ctx *AuthContext, jobID uint, req *UpdateJobRequest) (*models.Job, error) {
	if !ctx.CanManageAssignments() {
		return nil, ErrForbidden
	}

	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Location != nil {
		job.Location = *req.Location
	}
	if req.Status != nil {
		if *req.Status != models.JobStatusOpen && *req.Status != models.JobStatusClosed {
			return nil, errors.New("invalid job status")
		}
		job.Status = *req.Status
	}
	if req.RecruiterID != nil {
		if err := s.validateMember(ctx.OrganizationID, *req.RecruiterID); err != nil {
			return nil, err
		}
		job.RecruiterID = req.RecruiterID
	}
	if req.HiringManagerID != nil {
		if err := s.validateMember(ctx.OrganizationID, *req.HiringManagerID); err != nil {
			return nil, err
		}
		job.HiringManagerID = req.HiringManagerID
	}

	if err := s.db.Save(job).Error; err != nil {
		return nil, err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "job.updated", "job", job.ID, job.Title, req)
	return job, nil
}

// Delete soft-deletes a job. Its applications drop out of every scoped query
// through the join on jobs.deleted_at.
func (s *JobService) Delete(ctx *AuthContext, jobID uint) error {
	if !ctx.CanManageAssignments() {
		return ErrForbidden
	}

	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(job).Error; err != nil {
		return err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "job.deleted", "job", job.ID, job.Title, nil)
	return nil
}

// ListAssignments returns the reviewer roster of a job.
func (s *JobService) ListAssignments(ctx *AuthContext, jobID uint) ([]models.JobAssignment, error) {
	if _, err := s.Get(ctx, jobID); err != nil {
		return nil, err
	}

	var assignments []models.JobAssignment
	if err := s.db.Preload("Member.Account").
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// AddAssignment puts a member on a job's reviewer roster. Idempotent: adding
// an already assigned member returns the existing row.
func (s *JobService) AddAssignment(ctx *AuthContext, jobID, memberID uint) (*models.JobAssignment, error) {
	if !ctx.CanManageAssignments() {
		return nil, ErrForbidden
	}

	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := s.validateMember(ctx.OrganizationID, memberID); err != nil {
		return nil, err
	}

	var existing models.JobAssignment
	err = s.db.Where("job_id = ? AND member_id = ?", jobID, memberID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	assignment := models.JobAssignment{
		JobID:     jobID,
		MemberID:  memberID,
		CreatedBy: ctx.MemberID,
	}
	if err := s.db.Create(&assignment).Error; err != nil {
		return nil, err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "assignment.added", "job_assignment", assignment.ID, "", map[string]interface{}{
		"job_id":    jobID,
		"member_id": memberID,
	})
	publishEvent(&DomainEvent{
		Type:           EventAssignmentAdded,
		OrganizationID: ctx.OrganizationID,
		JobID:          jobID,
		ActorID:        ctx.MemberID,
		Payload:        map[string]interface{}{"member_id": memberID, "job_title": job.Title},
	})

	return &assignment, nil
}

// RemoveAssignment takes a member off a job's reviewer roster. Scorecards the
// member already submitted are kept.
func (s *JobService) RemoveAssignment(ctx *AuthContext, jobID, memberID uint) error {
	if !ctx.CanManageAssignments() {
		return ErrForbidden
	}

	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}

	result := s.db.Where("job_id = ? AND member_id = ?", jobID, memberID).Delete(&models.JobAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "assignment.removed", "job_assignment", 0, "", map[string]interface{}{
		"job_id":    jobID,
		"member_id": memberID,
	})
	publishEvent(&DomainEvent{
		Type:           EventAssignmentRemoved,
		OrganizationID: ctx.OrganizationID,
		JobID:          jobID,
		ActorID:        ctx.MemberID,
		Payload:        map[string]interface{}{"member_id": memberID, "job_title": job.Title},
	})

	return nil
}

// validateMember checks that the member exists in the given organization.
func (s *JobService) validateMember(orgID, memberID uint) error {
	var member models.OrganizationMember
	if err := s.db.Where("id = ? AND organization_id = ?", memberID, orgID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	return nil
}

// publishEvent publishes when a queue is configured and never blocks.
func publishEvent(event *DomainEvent) {
	queue := GetEventQueue()
	if queue == nil {
		return
	}
	_ = queue.Publish(event)
}
