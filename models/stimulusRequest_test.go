package models

import (
	"testing"
	"time"

	"gorm.io/gorm"
)

func updateTx(dest map[string]interface{}) *gorm.DB {
	tx := &gorm.DB{Config: &gorm.Config{}}
	tx.Statement = &gorm.Statement{DB: tx, Dest: dest}
	return tx
}

func TestBeforeSave_UnarchivingClearsArchivedAt(t *testing.T) {
	archivedAt := time.Now().UTC()
	request := &StimulusRequest{Status: RequestStatusArchived, ArchivedAt: &archivedAt}

	// Map-based Updates bypass the struct receiver, so the hook has to push
	// the cleared column into the update map itself.
	updates := map[string]interface{}{"status": RequestStatusApproved}
	if err := request.BeforeSave(updateTx(updates)); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if value, ok := updates["archived_at"]; !ok || value != nil {
		t.Errorf("un-archiving must write archived_at = NULL into the update map, got %v", value)
	}
	if request.ArchivedAt != nil {
		t.Error("un-archiving must clear the receiver's archived_at")
	}
}

func TestBeforeSave_ArchivingKeepsArchivedAt(t *testing.T) {
	archivedAt := time.Now().UTC()
	request := &StimulusRequest{Status: RequestStatusApproved}

	updates := map[string]interface{}{
		"status":       RequestStatusArchived,
		"final_status": "Approved (Archive)",
		"archived_at":  archivedAt,
	}
	if err := request.BeforeSave(updateTx(updates)); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	got, ok := updates["archived_at"].(time.Time)
	if !ok || !got.Equal(archivedAt) {
		t.Errorf("archiving must keep the stamp in the update map, got %v", updates["archived_at"])
	}
}

func TestBeforeSave_StructSaveClearsReceiver(t *testing.T) {
	archivedAt := time.Now().UTC()
	request := &StimulusRequest{Status: RequestStatusPending, ArchivedAt: &archivedAt}

	tx := &gorm.DB{Config: &gorm.Config{}}
	tx.Statement = &gorm.Statement{DB: tx, Dest: request}
	if err := request.BeforeSave(tx); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if request.ArchivedAt != nil {
		t.Error("a non-archived save must clear archived_at on the struct")
	}
}
