package accounts

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/perchcam/perch/internal/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

var (
	// ErrPasswordTooShort indicates the password fails the length policy.
	ErrPasswordTooShort = errors.New("accounts: password shorter than 8 characters")
	// ErrUsernameTaken indicates another account already holds the username.
	ErrUsernameTaken = errors.New("accounts: username already taken")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("accounts: invalid credentials")

	errMissingDatabase = errors.New("accounts: database handle is required")
)

// dummyHash keeps the bcrypt compare on the login path even when the
// username does not exist, so the two failure modes cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("perch-no-such-user"), bcrypt.MinCost)

// ServiceConfig describes the dependencies of the account service.
type ServiceConfig struct {
	Database   *gorm.DB
	BcryptCost int
	Logger     *zap.Logger
}

// Service registers accounts and exchanges credentials for opaque tokens.
type Service struct {
	db     *gorm.DB
	cost   int
	logger *zap.Logger
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, cost: cost, logger: logger}, nil
}

// Register creates a new account and issues its first token. The user row and
// the token row are written in a single transaction, so a failure on either
// side leaves no trace.
func (s *Service) Register(ctx context.Context, username, password string) (Session, error) {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return Session{}, ErrPasswordTooShort
	}

	var existing User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&existing).Error
	if err == nil {
		return Session{}, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("username lookup failed", zap.Error(err), zap.String("username", username))
		return Session{}, fmt.Errorf("accounts: username lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return Session{}, fmt.Errorf("accounts: hash password: %w", err)
	}

	user := User{
		UserID:       uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}
	token := auth.UserToken{Token: auth.NewTokenID(), UserID: user.UserID}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&token).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// The pre-check raced with a concurrent registration; the unique
		// index is the real guarantee.
		return Session{}, ErrUsernameTaken
	}
	if err != nil {
		s.logger.Error("registration failed", zap.Error(err), zap.String("username", username))
		return Session{}, fmt.Errorf("accounts: register: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.UserID), zap.String("username", user.Username))
	return Session{
		User:  UserInfo{UserID: user.UserID, Username: user.Username},
		Token: token.Token,
	}, nil
}

// Login verifies credentials and issues a new token. Prior tokens stay valid.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("user lookup failed", zap.Error(err), zap.String("username", username))
		return Session{}, fmt.Errorf("accounts: user lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		// Any verification failure reads as bad credentials, including a
		// corrupt stored hash.
		return Session{}, ErrInvalidCredentials
	}

	token := auth.UserToken{Token: auth.NewTokenID(), UserID: user.UserID}
	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		s.logger.Error("token issuance failed", zap.Error(err), zap.String("user_id", user.UserID))
		return Session{}, fmt.Errorf("accounts: issue token: %w", err)
	}

	return Session{
		User:  UserInfo{UserID: user.UserID, Username: user.Username},
		Token: token.Token,
	}, nil
}
