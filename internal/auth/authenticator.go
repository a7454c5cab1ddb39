package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNoToken indicates the request carried no token header at all.
	ErrNoToken = errors.New("auth: no token provided")
	// ErrMalformedToken indicates the header value is not a UUID.
	ErrMalformedToken = errors.New("auth: token is not a valid uuid")
	// ErrUnknownToken indicates the token is well formed but not on record.
	ErrUnknownToken = errors.New("auth: token not recognized")

	errMissingDatabase = errors.New("auth: database handle is required")
)

// AuthenticatorConfig describes the dependencies of the token authenticator.
type AuthenticatorConfig struct {
	Database *gorm.DB
}

// Authenticator resolves opaque token strings into authenticated principals.
// Resolution is a keyed existence lookup: no expiry, no signatures, no
// revocation list beyond row deletion.
type Authenticator struct {
	db *gorm.DB
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(cfg AuthenticatorConfig) (*Authenticator, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	return &Authenticator{db: cfg.Database}, nil
}

// ResolveUserToken validates the raw header value against the user token table.
func (a *Authenticator) ResolveUserToken(ctx context.Context, raw string) (UserToken, error) {
	parsed, err := parseToken(raw)
	if err != nil {
		return UserToken{}, err
	}

	var token UserToken
	err = a.db.WithContext(ctx).Where("token = ?", parsed).Take(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UserToken{}, ErrUnknownToken
	}
	if err != nil {
		return UserToken{}, fmt.Errorf("auth: user token lookup: %w", err)
	}
	return token, nil
}

// ResolveCameraToken validates the raw header value against the camera token table.
func (a *Authenticator) ResolveCameraToken(ctx context.Context, raw string) (CameraToken, error) {
	parsed, err := parseToken(raw)
	if err != nil {
		return CameraToken{}, err
	}

	var token CameraToken
	err = a.db.WithContext(ctx).Where("camera_token = ?", parsed).Take(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CameraToken{}, ErrUnknownToken
	}
	if err != nil {
		return CameraToken{}, fmt.Errorf("auth: camera token lookup: %w", err)
	}
	return token, nil
}

func parseToken(raw string) (string, error) {
	if raw == "" {
		return "", ErrNoToken
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrMalformedToken
	}
	return parsed.String(), nil
}

// NewTokenID mints the random identifier used for both token kinds.
func NewTokenID() string {
	return uuid.NewString()
}
