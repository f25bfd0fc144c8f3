package services

import (
	"errors"
	"testing"

	"github.com/canopyhq/canopy/internal/models"
)

func TestValidStage(t *testing.T) {
	for _, stage := range []string{
		models.StageApplied, models.StageScreen, models.StageInterview,
		models.StageOffer, models.StageHired, models.StageRejected,
	} {
		if !validStage(stage) {
			t.Errorf("%s should be valid", stage)
		}
	}

	for _, stage := range []string{"", "applied", "PHONE_SCREEN"} {
		if validStage(stage) {
			t.Errorf("%q should be invalid", stage)
		}
	}
}

func TestApplicationUpdateStage(t *testing.T) {
	db := setupTestDB(t)
	service := NewApplicationService(db)

	org := &models.Organization{Name: "Acme Climate"}
	mustCreate(t, db, org)
	recruiter := seedMember(t, db, org.ID, "rec@example.com", models.RoleRecruiter)

	job := &models.Job{OrganizationID: org.ID, Title: "Solar Engineer", Status: models.JobStatusOpen}
	mustCreate(t, db, job)
	seeker := &models.Account{Email: "seeker@example.com", IsActive: true}
	mustCreate(t, db, seeker)
	app := &models.Application{JobID: job.ID, SeekerID: seeker.ID, Stage: models.StageApplied}
	mustCreate(t, db, app)

	ctx := &AuthContext{OrganizationID: org.ID, MemberID: recruiter.ID, Role: models.RoleRecruiter, HasFullAccess: true}

	updated, err := service.UpdateStage(ctx, app.ID, models.StageScreen)
	if err != nil {
		t.Fatalf("UpdateStage failed: %v", err)
	}
	if updated.Stage != models.StageScreen {
		t.Errorf("Stage = %q, expected SCREEN", updated.Stage)
	}

	if _, err := service.UpdateStage(ctx, app.ID, "LIMBO"); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("unknown stage: err = %v, expected ErrInvalidStage", err)
	}

	viewer := &AuthContext{OrganizationID: org.ID, MemberID: recruiter.ID, Role: models.RoleViewer, HasFullAccess: true}
	if _, err := service.UpdateStage(viewer, app.ID, models.StageInterview); !errors.Is(err, ErrForbidden) {
		t.Errorf("viewer stage change: err = %v, expected ErrForbidden", err)
	}
}

func TestApplicationUpdateStage_SameStageIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	service := NewApplicationService(db)

	org := &models.Organization{Name: "Acme Climate"}
	mustCreate(t, db, org)
	recruiter := seedMember(t, db, org.ID, "rec@example.com", models.RoleRecruiter)

	job := &models.Job{OrganizationID: org.ID, Title: "Solar Engineer", Status: models.JobStatusOpen}
	mustCreate(t, db, job)
	seeker := &models.Account{Email: "seeker@example.com", IsActive: true}
	mustCreate(t, db, seeker)
	app := &models.Application{JobID: job.ID, SeekerID: seeker.ID, Stage: models.StageScreen}
	mustCreate(t, db, app)

	ctx := &AuthContext{OrganizationID: org.ID, MemberID: recruiter.ID, Role: models.RoleRecruiter, HasFullAccess: true}

	updated, err := service.UpdateStage(ctx, app.ID, models.StageScreen)
	if err != nil {
		t.Fatalf("UpdateStage failed: %v", err)
	}
	if updated.Stage != models.StageScreen {
		t.Errorf("Stage = %q, expected SCREEN", updated.Stage)
	}
}

func TestApplicationCreate_DuplicateRejected(t *testing.T) {
	db := setupTestDB(t)
	service := NewApplicationService(db)

	org := &models.Organization{Name: "Acme Climate"}
	mustCreate(t, db, org)
	recruiter := seedMember(t, db, org.ID, "rec@example.com", models.RoleRecruiter)

	job := &models.Job{OrganizationID: org.ID, Title: "Solar Engineer", Status: models.JobStatusOpen}
	mustCreate(t, db, job)
	seeker := &models.Account{Email: "seeker@example.com", IsActive: true}
	mustCreate(t, db, seeker)

	ctx := &AuthContext{OrganizationID: org.ID, MemberID: recruiter.ID, Role: models.RoleRecruiter, HasFullAccess: true}

	app, err := service.Create(ctx, &CreateApplicationRequest{JobID: job.ID, SeekerID: seeker.ID, Source: "referral"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if app.Stage != models.StageApplied {
		t.Errorf("Stage = %q, new applications start at APPLIED", app.Stage)
	}

	if _, err := service.Create(ctx, &CreateApplicationRequest{JobID: job.ID, SeekerID: seeker.ID}); err == nil {
		t.Error("duplicate candidacy should be rejected")
	}
}

func TestApplicationNotes(t *testing.T) {
	db := setupTestDB(t)
	service := NewApplicationService(db)

	org := &models.Organization{Name: "Acme Climate"}
	mustCreate(t, db, org)
	recruiter := seedMember(t, db, org.ID, "rec@example.com", models.RoleRecruiter)

	job := &models.Job{OrganizationID: org.ID, Title: "Solar Engineer", Status: models.JobStatusOpen}
	mustCreate(t, db, job)
	seeker := &models.Account{Email: "seeker@example.com", IsActive: true}
	mustCreate(t, db, seeker)
	app := &models.Application{JobID: job.ID, SeekerID: seeker.ID, Stage: models.StageScreen}
	mustCreate(t, db, app)

	ctx := &AuthContext{OrganizationID: org.ID, MemberID: recruiter.ID, Role: models.RoleRecruiter, HasFullAccess: true}

	note, err := service.AddNote(ctx, app.ID, &AddNoteRequest{Body: "strong portfolio"})
	if err != nil {
		t.Fatalf("AddNote failed: %v", err)
	}
	if note.MemberID != recruiter.ID {
		t.Errorf("MemberID = %d, expected %d", note.MemberID, recruiter.ID)
	}

	notes, err := service.ListNotes(ctx, app.ID)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(notes) != 1 || notes[0].Body != "strong portfolio" {
		t.Errorf("notes = %v, expected the one just added", notes)
	}

	viewer := &AuthContext{OrganizationID: org.ID, MemberID: recruiter.ID, Role: models.RoleViewer, HasFullAccess: true}
	if _, err := service.AddNote(viewer, app.ID, &AddNoteRequest{Body: "sneaky"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("viewer note: err = %v, expected ErrForbidden", err)
	}
}

func TestApplicationDelete_HidesFromScopedQueries(t *testing.T) {
	db := setupTestDB(t)
	service := NewApplicationService(db)

	org := &models.Organization{Name: "Acme Climate"}
	mustCreate(t, db, org)
	recruiter := seedMember(t, db, org.ID, "rec@example.com", models.RoleRecruiter)

	job := &models.Job{OrganizationID: org.ID, Title: "Solar Engineer", Status: models.JobStatusOpen}
	mustCreate(t, db, job)
	seeker := &models.Account{Email: "seeker@example.com", IsActive: true}
	mustCreate(t, db, seeker)
	app := &models.Application{JobID: job.ID, SeekerID: seeker.ID, Stage: models.StageScreen}
	mustCreate(t, db, app)

	ctx := &AuthContext{OrganizationID: org.ID, MemberID: recruiter.ID, Role: models.RoleRecruiter, HasFullAccess: true}

	if err := service.Delete(ctx, app.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := service.Get(ctx, app.ID); !errors.Is(err, ErrApplicationNotFound) {
		t.Errorf("deleted application: err = %v, expected ErrApplicationNotFound", err)
	}

	result, err := service.List(ctx, &ApplicationListRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, soft-deleted applications must be excluded", result.Total)
	}
}

func TestApplicationList_PaginationDefaults(t *testing.T) {
	db := setupTestDB(t)
	service := NewApplicationService(db)

	org := &models.Organization{Name: "Acme Climate"}
	mustCreate(t, db, org)
	recruiter := seedMember(t, db, org.ID, "rec@example.com", models.RoleRecruiter)

	ctx := &AuthContext{OrganizationID: org.ID, MemberID: recruiter.ID, Role: models.RoleRecruiter, HasFullAccess: true}

	result, err := service.List(ctx, &ApplicationListRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Page != 1 || result.PageSize != 20 {
		t.Errorf("defaults = page %d size %d, expected 1/20", result.Page, result.PageSize)
	}
}
