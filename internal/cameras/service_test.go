package cameras

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/perchcam/perch/internal/auth"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "cameras.db")), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Camera{}, &Link{}, &CameraConfig{}, &auth.CameraToken{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := openTestDatabase(t)
	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service, db
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func TestCreateWritesCameraTokenLinkAndConfig(t *testing.T) {
	service, db := newTestService(t)
	userID := uuid.NewString()

	token, err := service.Create(context.Background(), userID, "front door")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if token.CameraToken == "" || token.CameraID == "" {
		t.Fatalf("expected populated token record, got %+v", token)
	}

	var camera Camera
	if err := db.Where("camera_id = ?", token.CameraID).Take(&camera).Error; err != nil {
		t.Fatalf("expected camera row: %v", err)
	}
	if camera.Name != "front door" {
		t.Fatalf("unexpected camera name: %q", camera.Name)
	}

	var link Link
	if err := db.Where("camera_id = ? AND user_id = ?", token.CameraID, userID).Take(&link).Error; err != nil {
		t.Fatalf("expected creator link row: %v", err)
	}

	var config CameraConfig
	if err := db.Where("camera_id = ?", token.CameraID).Take(&config).Error; err != nil {
		t.Fatalf("expected config row: %v", err)
	}
	if config.Interval != defaultInterval {
		t.Fatalf("unexpected default interval: got %d, want %d", config.Interval, defaultInterval)
	}
}

func TestCreateRollsBackWhenTokenInsertFails(t *testing.T) {
	service, db := newTestService(t)
	if err := db.Migrator().DropTable(&auth.CameraToken{}); err != nil {
		t.Fatalf("failed to drop token table: %v", err)
	}

	if _, err := service.Create(context.Background(), uuid.NewString(), "cam"); err == nil {
		t.Fatal("expected create to fail with token table missing")
	}
	if count := countRows(t, db, &Camera{}); count != 0 {
		t.Fatalf("expected camera insert rolled back, got %d rows", count)
	}
}

func TestCreateRollsBackWhenLinkInsertFails(t *testing.T) {
	service, db := newTestService(t)
	if err := db.Migrator().DropTable(&Link{}); err != nil {
		t.Fatalf("failed to drop link table: %v", err)
	}

	if _, err := service.Create(context.Background(), uuid.NewString(), "cam"); err == nil {
		t.Fatal("expected create to fail with link table missing")
	}
	if count := countRows(t, db, &Camera{}); count != 0 {
		t.Fatalf("expected camera insert rolled back, got %d rows", count)
	}
	if count := countRows(t, db, &auth.CameraToken{}); count != 0 {
		t.Fatalf("expected token insert rolled back, got %d rows", count)
	}
}

func TestCreateRollsBackWhenConfigInsertFails(t *testing.T) {
	service, db := newTestService(t)
	if err := db.Migrator().DropTable(&CameraConfig{}); err != nil {
		t.Fatalf("failed to drop config table: %v", err)
	}

	if _, err := service.Create(context.Background(), uuid.NewString(), "cam"); err == nil {
		t.Fatal("expected create to fail with config table missing")
	}
	if count := countRows(t, db, &Camera{}); count != 0 {
		t.Fatalf("expected camera insert rolled back, got %d rows", count)
	}
	if count := countRows(t, db, &auth.CameraToken{}); count != 0 {
		t.Fatalf("expected token insert rolled back, got %d rows", count)
	}
	if count := countRows(t, db, &Link{}); count != 0 {
		t.Fatalf("expected link insert rolled back, got %d rows", count)
	}
}

func TestHasAccessTracksLinkRows(t *testing.T) {
	service, db := newTestService(t)
	owner := uuid.NewString()
	stranger := uuid.NewString()

	token, err := service.Create(context.Background(), owner, "cam")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	granted, err := service.HasAccess(context.Background(), owner, token.CameraID)
	if err != nil {
		t.Fatalf("unexpected access error: %v", err)
	}
	if !granted {
		t.Fatal("expected creator to have access")
	}

	denied, err := service.HasAccess(context.Background(), stranger, token.CameraID)
	if err != nil {
		t.Fatalf("unexpected access error: %v", err)
	}
	if denied {
		t.Fatal("expected stranger to be denied")
	}

	if err := db.Delete(&Link{}, "camera_id = ? AND user_id = ?", token.CameraID, owner).Error; err != nil {
		t.Fatalf("failed to delete link: %v", err)
	}
	revoked, err := service.HasAccess(context.Background(), owner, token.CameraID)
	if err != nil {
		t.Fatalf("unexpected access error: %v", err)
	}
	if revoked {
		t.Fatal("expected access revoked after link deletion")
	}
}

func TestHasAccessMalformedCameraIDNeverMatches(t *testing.T) {
	service, _ := newTestService(t)
	owner := uuid.NewString()
	if _, err := service.Create(context.Background(), owner, "cam"); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	granted, err := service.HasAccess(context.Background(), owner, "../../etc/passwd")
	if err != nil {
		t.Fatalf("unexpected access error: %v", err)
	}
	if granted {
		t.Fatal("expected no access for malformed camera id")
	}
}

func TestListForUserReturnsOnlyLinkedCameras(t *testing.T) {
	service, _ := newTestService(t)
	alice := uuid.NewString()
	bob := uuid.NewString()

	aliceToken, err := service.Create(context.Background(), alice, "alice cam")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if _, err := service.Create(context.Background(), bob, "bob cam"); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	listed, err := service.ListForUser(context.Background(), alice)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one camera, got %d", len(listed))
	}
	if listed[0].CameraID != aliceToken.CameraID {
		t.Fatalf("unexpected camera listed: %q", listed[0].CameraID)
	}
}

func TestGetConfig(t *testing.T) {
	service, _ := newTestService(t)
	token, err := service.Create(context.Background(), uuid.NewString(), "cam")
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	config, err := service.GetConfig(context.Background(), token.CameraID)
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}
	if config.CameraID != token.CameraID || config.Interval != defaultInterval {
		t.Fatalf("unexpected config: %+v", config)
	}

	if _, err := service.GetConfig(context.Background(), uuid.NewString()); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}
