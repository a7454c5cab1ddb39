package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/perchcam/perch/internal/accounts"
)

type credentialsPayload struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *httpHandler) handleAddUser(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		errInvalidRequest.respond(c)
		return
	}

	session, err := h.accounts.Register(c.Request.Context(), request.Username, request.Password)
	switch {
	case errors.Is(err, accounts.ErrPasswordTooShort):
		errPasswordTooShort.respond(c)
		return
	case errors.Is(err, accounts.ErrUsernameTaken):
		errUsernameTaken.respond(c)
		return
	case err != nil:
		errUserCreateFailed.respond(c)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		errInvalidRequest.respond(c)
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), request.Username, request.Password)
	switch {
	case errors.Is(err, accounts.ErrInvalidCredentials):
		errInvalidCredentials.respond(c)
		return
	case err != nil:
		errLoginFailed.respond(c)
		return
	}

	c.JSON(http.StatusOK, session)
}
