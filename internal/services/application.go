package services

import (
	"errors"

	"github.com/canopyhq/canopy/internal/models"
	"gorm.io/gorm"
)

// ApplicationService manages candidacies within a job's pipeline. Every read
// goes through ApplicationScope so an application is only reachable when its
// owning job is.
type ApplicationService struct {
	db *gorm.DB
}

func NewApplicationService(db *gorm.DB) *ApplicationService {
	return &ApplicationService{db: db}
}

type ApplicationListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	JobID    uint   `form:"job_id"`
	Stage    string `form:"stage"`
}

type ApplicationListResponse struct {
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []models.Application `json:"items"`
}

// List returns the applications visible to the context, newest first.
func (s *ApplicationService) List(ctx *AuthContext, req *ApplicationListRequest) (*ApplicationListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Application{}).Scopes(ApplicationScope(ctx))

	if req.JobID != 0 {
		query = query.Where("applications.job_id = ?", req.JobID)
	}
	if req.Stage != "" {
		query = query.Where("applications.stage = ?", req.Stage)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var apps []models.Application
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Seeker").Preload("Job").
		Offset(offset).Limit(req.PageSize).
		Order("applications.created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}

	return &ApplicationListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    apps,
	}, nil
}

// Get fetches one application within the context's scope. Out-of-scope
// applications return not-found, never forbidden.
func (s *ApplicationService) Get(ctx *AuthContext, applicationID uint) (*models.Application, error) {
	var app models.Application
	if err := s.db.Scopes(ApplicationScope(ctx)).
		Preload("Seeker").Preload("Job").
		Where("applications.id = ?", applicationID).
		First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

type CreateApplicationRequest struct {
	JobID    uint   `json:"job_id" binding:"required"`
	SeekerID uint   `json:"seeker_id" binding:"required"`
	Source   string `json:"source"`
}

// Create records a new candidacy on a job the context may see. Duplicate
// candidacies for the same seeker and job are rejected.
func (s *ApplicationService) Create(ctx *AuthContext, req *CreateApplicationRequest) (*models.Application, error) {
	if !ctx.CanManagePipeline() {
		return nil, ErrForbidden
	}

	var job models.Job
	if err := s.db.Scopes(JobScope(ctx)).First(&job, req.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var existing int64
	s.db.Model(&models.Application{}).
		Where("job_id = ? AND seeker_id = ?", req.JobID, req.SeekerID).
		Count(&existing)
	if existing > 0 {
		return nil, errors.New("seeker has already applied to this job")
	}

	app := models.Application{
		JobID:    req.JobID,
		SeekerID: req.SeekerID,
		Stage:    models.StageApplied,
		Source:   req.Source,
	}
	if err := s.db.Create(&app).Error; err != nil {
		return nil, err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "application.created", "application", app.ID, "", map[string]interface{}{
		"job_id":    req.JobID,
		"seeker_id": req.SeekerID,
	})
	return &app, nil
}

func validStage(stage string) bool {
	switch stage {
	case models.StageApplied, models.StageScreen, models.StageInterview,
		models.StageOffer, models.StageHired, models.StageRejected:
		return true
	}
	return false
}

// UpdateStage moves an application to a new pipeline stage.
func (s *ApplicationService) UpdateStage(ctx *AuthContext, applicationID uint, stage string) (*models.Application, error) {
	if !ctx.CanManagePipeline() {
		return nil, ErrForbidden
	}
	if !validStage(stage) {
		return nil, ErrInvalidStage
	}

	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	from := app.Stage
	if from == stage {
		return app, nil
	}

	app.Stage = stage
	if err := s.db.Save(app).Error; err != nil {
		return nil, err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "application.stage_changed", "application", app.ID, "", map[string]interface{}{
		"from": from,
		"to":   stage,
	})
	publishEvent(&DomainEvent{
		Type:           EventStageChanged,
		OrganizationID: ctx.OrganizationID,
		JobID:          app.JobID,
		ApplicationID:  app.ID,
		ActorID:        ctx.MemberID,
		Payload:        map[string]interface{}{"from": from, "to": stage},
	})

	return app, nil
}

// Delete soft-deletes an application, dropping it from every scoped query.
func (s *ApplicationService) Delete(ctx *AuthContext, applicationID uint) error {
	if !ctx.CanManagePipeline() {
		return ErrForbidden
	}

	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(app).Error; err != nil {
		return err
	}

	Audit(&ctx.OrganizationID, &ctx.MemberID, "application.deleted", "application", app.ID, "", nil)
	return nil
}

type AddNoteRequest struct {
	Body string `json:"body" binding:"required"`
}

// AddNote attaches free-form commentary to an application.
func (s *ApplicationService) AddNote(ctx *AuthContext, applicationID uint, req *AddNoteRequest) (*models.ApplicationNote, error) {
	if !ctx.CanLeaveNotes() {
		return nil, ErrForbidden
	}

	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	note := models.ApplicationNote{
		ApplicationID: app.ID,
		MemberID:      ctx.MemberID,
		Body:          req.Body,
	}
	if err := s.db.Create(&note).Error; err != nil {
		return nil, err
	}

	return &note, nil
}

// ListNotes returns an application's notes, oldest first.
func (s *ApplicationService) ListNotes(ctx *AuthContext, applicationID uint) ([]models.ApplicationNote, error) {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	var notes []models.ApplicationNote
	if err := s.db.Preload("Member.Account").
		Where("application_id = ?", app.ID).
		Order("created_at ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}
