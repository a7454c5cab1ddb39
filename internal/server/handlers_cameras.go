package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/perchcam/perch/internal/cameras"
	"github.com/perchcam/perch/internal/images"
	"go.uber.org/zap"
)

type addCameraPayload struct {
	Name string `json:"name" binding:"required"`
}

func (h *httpHandler) handleAddCamera(c *gin.Context) {
	var request addCameraPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		errInvalidRequest.respond(c)
		return
	}

	token, err := h.cameras.Create(c.Request.Context(), c.GetString(userIDContextKey), request.Name)
	if err != nil {
		errCameraCreateFailed.respond(c)
		return
	}

	c.JSON(http.StatusCreated, token)
}

func (h *httpHandler) handleListCameras(c *gin.Context) {
	listed, err := h.cameras.ListForUser(c.Request.Context(), c.GetString(userIDContextKey))
	if err != nil {
		errCameraListFailed.respond(c)
		return
	}
	if listed == nil {
		listed = []cameras.Camera{}
	}
	c.JSON(http.StatusOK, listed)
}

func (h *httpHandler) handleUploadImage(c *gin.Context) {
	cameraID := c.GetString(cameraIDContextKey)

	imageID, err := h.images.Save(cameraID, c.Request.Body)
	if err != nil {
		h.logger.Error("image upload failed", zap.Error(err), zap.String("camera_id", cameraID))
		errImageSaveFailed.respond(c)
		return
	}

	c.String(http.StatusCreated, imageID)
}

func (h *httpHandler) handleLatestImage(c *gin.Context) {
	cameraID := c.Param("camera_id")
	if !h.requireAccess(c, c.GetString(userIDContextKey), cameraID) {
		return
	}

	path, err := h.images.LatestPath(cameraID)
	switch {
	case errors.Is(err, images.ErrNoImages):
		errNoImages.respond(c)
		return
	case err != nil:
		errImageLoadFailed.respond(c)
		return
	}

	c.File(path)
}

func (h *httpHandler) handleImageList(c *gin.Context) {
	cameraID := c.Param("camera_id")
	if !h.requireAccess(c, c.GetString(userIDContextKey), cameraID) {
		return
	}

	ids, err := h.images.List(cameraID)
	switch {
	case errors.Is(err, images.ErrNoImages):
		errNoImages.respond(c)
		return
	case err != nil:
		errImageListFailed.respond(c)
		return
	}

	c.JSON(http.StatusOK, ids)
}

func (h *httpHandler) handleImage(c *gin.Context) {
	cameraID := c.Param("camera_id")
	if !h.requireAccess(c, c.GetString(userIDContextKey), cameraID) {
		return
	}

	path, err := h.images.Path(cameraID, c.Param("image_id"))
	switch {
	case errors.Is(err, images.ErrNoImages):
		errNoImages.respond(c)
		return
	case errors.Is(err, images.ErrImageNotFound):
		errImageNotFound.respond(c)
		return
	case err != nil:
		errImageLoadFailed.respond(c)
		return
	}

	c.File(path)
}

func (h *httpHandler) handleGetConfigUser(c *gin.Context) {
	cameraID := c.Param("camera_id")
	if !h.requireAccess(c, c.GetString(userIDContextKey), cameraID) {
		return
	}
	if _, err := uuid.Parse(cameraID); err != nil {
		errCameraIDMalformed.respond(c)
		return
	}

	h.respondConfig(c, cameraID)
}

func (h *httpHandler) handleGetConfigCamera(c *gin.Context) {
	h.respondConfig(c, c.GetString(cameraIDContextKey))
}

func (h *httpHandler) respondConfig(c *gin.Context, cameraID string) {
	config, err := h.cameras.GetConfig(c.Request.Context(), cameraID)
	switch {
	case errors.Is(err, cameras.ErrConfigNotFound):
		errConfigNotFound.respond(c)
		return
	case err != nil:
		errConfigReadFailed.respond(c)
		return
	}
	c.JSON(http.StatusOK, config)
}
