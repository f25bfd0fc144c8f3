package services

import (
	"testing"
	"time"

	"github.com/canopyhq/canopy/internal/models"
)

func TestAuditService_ListScopedToOrganization(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuditService(db)

	mustCreate(t, db, &models.AuditLog{OrganizationID: uptr(1), Action: "job.created", Entity: "job", EntityID: 1, CreatedAt: time.Now()})
	mustCreate(t, db, &models.AuditLog{OrganizationID: uptr(1), Action: "job.deleted", Entity: "job", EntityID: 1, CreatedAt: time.Now()})
	mustCreate(t, db, &models.AuditLog{OrganizationID: uptr(2), Action: "job.created", Entity: "job", EntityID: 9, CreatedAt: time.Now()})

	result, err := service.List(1, &AuditListRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("Total = %d, expected only org 1's records", result.Total)
	}

	result, err = service.List(1, &AuditListRequest{Action: "deleted"})
	if err != nil {
		t.Fatalf("filtered List failed: %v", err)
	}
	if result.Total != 1 || result.Items[0].Action != "job.deleted" {
		t.Errorf("filtered result = %+v", result)
	}
}

func TestAuditService_CleanupOldLogs(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuditService(db)

	old := &models.AuditLog{OrganizationID: uptr(1), Action: "job.created", Entity: "job", CreatedAt: time.Now().AddDate(0, 0, -200)}
	recent := &models.AuditLog{OrganizationID: uptr(1), Action: "job.updated", Entity: "job", CreatedAt: time.Now()}
	mustCreate(t, db, old)
	mustCreate(t, db, recent)

	deleted, err := service.CleanupOldLogs(DefaultAuditRetentionDays)
	if err != nil {
		t.Fatalf("CleanupOldLogs failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, expected 1", deleted)
	}

	var remaining []models.AuditLog
	db.Find(&remaining)
	if len(remaining) != 1 || remaining[0].Action != "job.updated" {
		t.Errorf("remaining = %v, expected only the recent record", remaining)
	}
}

func TestAuditService_CleanupDisabledRetention(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuditService(db)

	mustCreate(t, db, &models.AuditLog{OrganizationID: uptr(1), Action: "job.created", Entity: "job", CreatedAt: time.Now().AddDate(-1, 0, 0)})

	deleted, err := service.CleanupOldLogs(0)
	if err != nil {
		t.Fatalf("CleanupOldLogs failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, non-positive retention must be a no-op", deleted)
	}
}

func TestAudit_NoDatabaseIsNoOp(t *testing.T) {
	prev := auditDB
	auditDB = nil
	defer func() { auditDB = prev }()

	// Must not panic before InitAuditLogger runs.
	Audit(uptr(1), uptr(2), "job.created", "job", 3, "", nil)
}

func uptr(v uint) *uint { return &v }
