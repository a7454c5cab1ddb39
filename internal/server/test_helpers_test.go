package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/perchcam/perch/internal/accounts"
	"github.com/perchcam/perch/internal/auth"
	"github.com/perchcam/perch/internal/cameras"
	"github.com/perchcam/perch/internal/images"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	handler http.Handler
	db      *gorm.DB
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "server.db")), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&accounts.User{},
		&auth.UserToken{},
		&auth.CameraToken{},
		&cameras.Camera{},
		&cameras.Link{},
		&cameras.CameraConfig{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	env := &testEnv{db: db, now: time.Unix(1717171717, 0)}

	accountsService, err := accounts.NewService(accounts.ServiceConfig{Database: db, BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("failed to construct account service: %v", err)
	}
	camerasService, err := cameras.NewService(cameras.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct camera service: %v", err)
	}
	authenticator, err := auth.NewAuthenticator(auth.AuthenticatorConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to construct authenticator: %v", err)
	}
	imageStore, err := images.NewStore(images.StoreConfig{
		Root:  t.TempDir(),
		Clock: func() time.Time { return env.now },
	})
	if err != nil {
		t.Fatalf("failed to construct image store: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Accounts:      accountsService,
		Cameras:       camerasService,
		Authenticator: authenticator,
		Images:        imageStore,
		Logger:        zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	env.handler = handler
	return env
}

func (env *testEnv) perform(t *testing.T, method, path string, headers map[string]string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	return recorder
}

func (env *testEnv) performJSON(t *testing.T, method, path string, headers map[string]string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to encode payload: %v", err)
	}
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	return env.perform(t, method, path, headers, bytes.NewReader(encoded))
}

func (env *testEnv) registerUser(t *testing.T, username, password string) accounts.Session {
	t.Helper()
	recorder := env.performJSON(t, http.MethodPost, "/AddUser", nil, map[string]string{
		"username": username,
		"password": password,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("failed to register %q: status %d, body %s", username, recorder.Code, recorder.Body)
	}
	var session accounts.Session
	if err := json.Unmarshal(recorder.Body.Bytes(), &session); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	return session
}

func (env *testEnv) createCamera(t *testing.T, userToken, name string) auth.CameraToken {
	t.Helper()
	recorder := env.performJSON(t, http.MethodPost, "/AddCamera", map[string]string{"token": userToken}, map[string]string{
		"name": name,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("failed to create camera %q: status %d, body %s", name, recorder.Code, recorder.Body)
	}
	var token auth.CameraToken
	if err := json.Unmarshal(recorder.Body.Bytes(), &token); err != nil {
		t.Fatalf("failed to decode camera token: %v", err)
	}
	return token
}

func (env *testEnv) uploadImage(t *testing.T, cameraToken string, body []byte) string {
	t.Helper()
	recorder := env.perform(t, http.MethodPost, "/UploadImage", map[string]string{
		"camera_token": cameraToken,
		"Content-Type": "image/jpeg",
	}, bytes.NewReader(body))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("failed to upload image: status %d, body %s", recorder.Code, recorder.Body)
	}
	return recorder.Body.String()
}
