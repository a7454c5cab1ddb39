package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorKind is the closed set of failure categories a handler can produce.
// Kinds are mapped to HTTP statuses here and nowhere else; handlers never
// pick status codes ad hoc.
type errorKind int

const (
	kindParse errorKind = iota
	kindUnauthorized
	kindNotFound
	kindConflict
	kindUnprocessable
	kindInternal
)

func (k errorKind) status() int {
	switch k {
	case kindParse:
		return http.StatusBadRequest
	case kindUnauthorized:
		return http.StatusUnauthorized
	case kindNotFound:
		return http.StatusNotFound
	case kindConflict:
		return http.StatusConflict
	case kindUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// apiError carries a fixed message across the boundary; internal detail
// stays in the logs.
type apiError struct {
	kind    errorKind
	message string
}

func (e apiError) respond(c *gin.Context) {
	c.AbortWithStatusJSON(e.kind.status(), gin.H{"error": e.message})
}

var (
	errInvalidRequest     = apiError{kindParse, "invalid request body"}
	errTokenMissing       = apiError{kindUnauthorized, "no token provided"}
	errTokenMalformed     = apiError{kindParse, "token is not a valid uuid"}
	errTokenUnknown       = apiError{kindUnauthorized, "token not recognized"}
	errAuthFailed         = apiError{kindInternal, "failed to authenticate request"}
	errNoAccess           = apiError{kindUnauthorized, "no access to camera"}
	errAccessCheckFailed  = apiError{kindInternal, "failed to check camera access"}
	errPasswordTooShort   = apiError{kindUnprocessable, "password must be at least 8 characters long"}
	errUsernameTaken      = apiError{kindConflict, "username already exists"}
	errUserCreateFailed   = apiError{kindInternal, "failed to create user"}
	errInvalidCredentials = apiError{kindUnauthorized, "invalid credentials"}
	errLoginFailed        = apiError{kindInternal, "failed to log in"}
	errCameraCreateFailed = apiError{kindInternal, "failed to create camera"}
	errCameraListFailed   = apiError{kindInternal, "failed to list cameras"}
	errImageSaveFailed    = apiError{kindInternal, "failed to save image to server"}
	errNoImages           = apiError{kindNotFound, "camera has no images"}
	errImageNotFound      = apiError{kindNotFound, "image not found"}
	errImageLoadFailed    = apiError{kindInternal, "failed to load image"}
	errImageListFailed    = apiError{kindInternal, "failed to get list of images"}
	errCameraIDMalformed  = apiError{kindUnprocessable, "failed to parse camera id"}
	errConfigNotFound     = apiError{kindNotFound, "config not found"}
	errConfigReadFailed   = apiError{kindInternal, "failed to read config"}
)
