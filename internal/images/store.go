package images

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const imageExtension = ".jpg"

var (
	// ErrNoImages covers both a missing camera directory and an empty one.
	ErrNoImages = errors.New("images: camera has no images")
	// ErrImageNotFound indicates the requested image id is not on disk.
	ErrImageNotFound = errors.New("images: image not found")

	errMissingRoot = errors.New("images: root directory is required")
)

// StoreConfig describes the filesystem image store.
type StoreConfig struct {
	// Root is the directory holding one subdirectory per camera.
	Root   string
	Clock  func() time.Time
	Logger *zap.Logger
}

// Store keeps uploaded JPEG frames on disk, one directory per camera, files
// named by capture time in seconds since the epoch. Image ids are the bare
// file stems. Lexicographic order of the stems matches chronological order
// while the epoch second count keeps its digit length, which holds until
// the year 2286.
type Store struct {
	root   string
	clock  func() time.Time
	logger *zap.Logger
}

// NewStore constructs the image store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errMissingRoot
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: cfg.Root, clock: clock, logger: logger}, nil
}

// Save writes the image body under the camera's directory and returns the
// assigned image id. Two uploads landing within the same second overwrite
// each other.
func (s *Store) Save(cameraID string, body io.Reader) (string, error) {
	directory := filepath.Join(s.root, cameraID)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		s.logger.Error("failed to create camera directory", zap.Error(err), zap.String("camera_id", cameraID))
		return "", fmt.Errorf("images: create camera directory: %w", err)
	}

	imageID := strconv.FormatInt(s.clock().Unix(), 10)
	path := filepath.Join(directory, imageID+imageExtension)

	file, err := os.Create(path)
	if err != nil {
		s.logger.Error("failed to create image file", zap.Error(err), zap.String("path", path))
		return "", fmt.Errorf("images: create image file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		s.logger.Error("failed to stream image to file", zap.Error(err), zap.String("path", path))
		return "", fmt.Errorf("images: write image: %w", err)
	}
	return imageID, nil
}

// List returns the camera's image ids sorted ascending by filename.
func (s *Store) List(cameraID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, cameraID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoImages
	}
	if err != nil {
		s.logger.Error("failed to read camera directory", zap.Error(err), zap.String("camera_id", cameraID))
		return nil, fmt.Errorf("images: read camera directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	if len(ids) == 0 {
		return nil, ErrNoImages
	}

	sort.Strings(ids)
	return ids, nil
}

// LatestPath returns the on-disk path of the newest image, where "newest"
// is the last element of the sorted listing.
func (s *Store) LatestPath(cameraID string) (string, error) {
	ids, err := s.List(cameraID)
	if err != nil {
		return "", err
	}
	return s.Path(cameraID, ids[len(ids)-1])
}

// Path returns the on-disk path for an image id, verifying the id against
// the directory listing so only stored stems resolve.
func (s *Store) Path(cameraID, imageID string) (string, error) {
	ids, err := s.List(cameraID)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if id == imageID {
			return filepath.Join(s.root, cameraID, id+imageExtension), nil
		}
	}
	return "", ErrImageNotFound
}
