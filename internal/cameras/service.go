package cameras

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/perchcam/perch/internal/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultInterval = 10

var (
	// ErrConfigNotFound indicates no config row exists for the camera.
	ErrConfigNotFound = errors.New("cameras: config not found")

	errMissingDatabase = errors.New("cameras: database handle is required")
)

// ServiceConfig describes the dependencies of the camera service.
type ServiceConfig struct {
	Database *gorm.DB
	// DefaultInterval seeds the config row written at camera creation.
	DefaultInterval int16
	Logger          *zap.Logger
}

// Service manages cameras, their device tokens, the user ownership join and
// the per-camera config.
type Service struct {
	db       *gorm.DB
	interval int16
	logger   *zap.Logger
}

// NewService constructs the camera service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	interval := cfg.DefaultInterval
	if interval <= 0 {
		interval = defaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, interval: interval, logger: logger}, nil
}

// Create registers a camera for the given user: the camera row, its device
// token, the creator's ownership link and the default config are written in
// one transaction, so creation either completes or leaves nothing behind.
func (s *Service) Create(ctx context.Context, userID, name string) (auth.CameraToken, error) {
	camera := Camera{CameraID: uuid.NewString(), Name: name}
	token := auth.CameraToken{CameraToken: auth.NewTokenID(), CameraID: camera.CameraID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&camera).Error; err != nil {
			return fmt.Errorf("insert camera: %w", err)
		}
		if err := tx.Create(&token).Error; err != nil {
			return fmt.Errorf("insert camera token: %w", err)
		}
		link := Link{CameraID: camera.CameraID, UserID: userID}
		if err := tx.Create(&link).Error; err != nil {
			return fmt.Errorf("insert ownership link: %w", err)
		}
		config := CameraConfig{CameraID: camera.CameraID, Interval: s.interval}
		if err := tx.Create(&config).Error; err != nil {
			return fmt.Errorf("insert config: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("camera creation failed",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("camera_name", name))
		return auth.CameraToken{}, fmt.Errorf("cameras: create: %w", err)
	}

	s.logger.Info("camera created",
		zap.String("camera_id", camera.CameraID),
		zap.String("user_id", userID))
	return token, nil
}

// HasAccess reports whether a link row binds the user to the camera. The
// camera id is compared as an opaque string, so an unparseable id simply
// never matches.
func (s *Service) HasAccess(ctx context.Context, userID, cameraID string) (bool, error) {
	var links []Link
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&links).Error; err != nil {
		s.logger.Error("link lookup failed", zap.Error(err), zap.String("user_id", userID))
		return false, fmt.Errorf("cameras: link lookup: %w", err)
	}
	for _, link := range links {
		if link.CameraID == cameraID {
			return true, nil
		}
	}
	return false, nil
}

// ListForUser returns the cameras the user is linked to.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Camera, error) {
	var linked []Camera
	err := s.db.WithContext(ctx).
		Joins("JOIN users_cameras ON users_cameras.camera_id = cameras.camera_id").
		Where("users_cameras.user_id = ?", userID).
		Find(&linked).Error
	if err != nil {
		s.logger.Error("camera list failed", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("cameras: list for user: %w", err)
	}
	return linked, nil
}

// GetConfig fetches the config row for a camera.
func (s *Service) GetConfig(ctx context.Context, cameraID string) (CameraConfig, error) {
	var config CameraConfig
	err := s.db.WithContext(ctx).Where("camera_id = ?", cameraID).Take(&config).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CameraConfig{}, ErrConfigNotFound
	}
	if err != nil {
		s.logger.Error("config lookup failed", zap.Error(err), zap.String("camera_id", cameraID))
		return CameraConfig{}, fmt.Errorf("cameras: config lookup: %w", err)
	}
	return config, nil
}
