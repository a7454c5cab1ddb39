package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/perchcam/perch/internal/accounts"
	"github.com/perchcam/perch/internal/auth"
	"github.com/perchcam/perch/internal/cameras"
	"github.com/perchcam/perch/internal/images"
	"go.uber.org/zap"
)

const (
	userIDContextKey   = "perch_user_id"
	cameraIDContextKey = "perch_camera_id"

	userTokenHeader   = "token"
	cameraTokenHeader = "camera_token"
)

var (
	errMissingAccounts      = errors.New("account service dependency required")
	errMissingCameras       = errors.New("camera service dependency required")
	errMissingAuthenticator = errors.New("authenticator dependency required")
	errMissingImages        = errors.New("image store dependency required")
)

type Dependencies struct {
	Accounts      *accounts.Service
	Cameras       *cameras.Service
	Authenticator *auth.Authenticator
	Images        *images.Store
	Logger        *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Accounts == nil {
		return nil, errMissingAccounts
	}
	if deps.Cameras == nil {
		return nil, errMissingCameras
	}
	if deps.Authenticator == nil {
		return nil, errMissingAuthenticator
	}
	if deps.Images == nil {
		return nil, errMissingImages
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", userTokenHeader, cameraTokenHeader},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		accounts:      deps.Accounts,
		cameras:       deps.Cameras,
		authenticator: deps.Authenticator,
		images:        deps.Images,
		logger:        logger,
	}

	router.POST("/AddUser", handler.handleAddUser)
	router.POST("/Login", handler.handleLogin)

	userProtected := router.Group("/")
	userProtected.Use(handler.authenticateUser)
	userProtected.POST("/AddCamera", handler.handleAddCamera)
	userProtected.GET("/ListCameras", handler.handleListCameras)
	userProtected.GET("/Cameras/:camera_id/LatestImage", handler.handleLatestImage)
	userProtected.GET("/Cameras/:camera_id/ImageList", handler.handleImageList)
	userProtected.GET("/Cameras/:camera_id/Image/:image_id", handler.handleImage)
	userProtected.GET("/Cameras/:camera_id/GetConfigUser", handler.handleGetConfigUser)

	cameraProtected := router.Group("/")
	cameraProtected.Use(handler.authenticateCamera)
	cameraProtected.POST("/UploadImage", handler.handleUploadImage)
	cameraProtected.GET("/Cameras/GetConfigCamera", handler.handleGetConfigCamera)

	return router, nil
}

type httpHandler struct {
	accounts      *accounts.Service
	cameras       *cameras.Service
	authenticator *auth.Authenticator
	images        *images.Store
	logger        *zap.Logger
}

// authenticateUser resolves the user token header into a user principal and
// stores it on the context for downstream handlers.
func (h *httpHandler) authenticateUser(c *gin.Context) {
	token, err := h.authenticator.ResolveUserToken(c.Request.Context(), c.GetHeader(userTokenHeader))
	if err != nil {
		h.respondTokenError(c, err)
		return
	}
	c.Set(userIDContextKey, token.UserID)
	c.Next()
}

// authenticateCamera resolves the camera token header into a camera
// principal. A valid camera token is authorization proof for that one
// camera, so no further access check happens behind this middleware.
func (h *httpHandler) authenticateCamera(c *gin.Context) {
	token, err := h.authenticator.ResolveCameraToken(c.Request.Context(), c.GetHeader(cameraTokenHeader))
	if err != nil {
		h.respondTokenError(c, err)
		return
	}
	c.Set(cameraIDContextKey, token.CameraID)
	c.Next()
}

func (h *httpHandler) respondTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrNoToken):
		errTokenMissing.respond(c)
	case errors.Is(err, auth.ErrMalformedToken):
		errTokenMalformed.respond(c)
	case errors.Is(err, auth.ErrUnknownToken):
		h.logger.Warn("request with unknown token", zap.String("path", c.FullPath()))
		errTokenUnknown.respond(c)
	default:
		h.logger.Error("token resolution failed", zap.Error(err))
		errAuthFailed.respond(c)
	}
}

// requireAccess gates user-token endpoints on the ownership join table.
// It responds on failure and reports whether the handler may proceed.
func (h *httpHandler) requireAccess(c *gin.Context, userID, cameraID string) bool {
	granted, err := h.cameras.HasAccess(c.Request.Context(), userID, cameraID)
	if err != nil {
		errAccessCheckFailed.respond(c)
		return false
	}
	if !granted {
		errNoAccess.respond(c)
		return false
	}
	return true
}
