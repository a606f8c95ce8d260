package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campuskit/campus-api/internal/application"
	"github.com/campuskit/campus-api/internal/domain/entity"
	"github.com/campuskit/campus-api/pkg/response"
	"github.com/campuskit/campus-api/pkg/validation"
)

const maxAvatarSize = 5 << 20

type UserHandler struct {
	Accounts *application.AccountService
	Auth     *application.AuthService
	Logger   *logrus.Logger
}

func NewUserHandler(accounts *application.AccountService, auth *application.AuthService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Accounts: accounts, Auth: auth, Logger: logger}
}

type profileResponse struct {
	ID        string        `json:"id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Phone     string        `json:"phone"`
	Email     string        `json:"email"`
	AvatarURL string        `json:"avatar_url,omitempty"`
	Status    entity.Status `json:"status"`
	Role      entity.Role   `json:"role"`
}

func toProfile(u *entity.User) profileResponse {
	return profileResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Status:    u.Status,
		Role:      u.Role,
	}
}

type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone" binding:"omitempty,phone"`
}

type completeProfileRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone" binding:"required,phone"`
}

// Profile GET /api/users/me
func (h *UserHandler) Profile(c *gin.Context) {
	u, err := h.Auth.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.writeUserError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toProfile(u), "profile", nil)
}

// UpdateProfile PUT /api/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Auth.UpdateProfile(c.Request.Context(), c.GetString("userID"), application.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.writeUserError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toProfile(u), "profile updated", nil)
}

// CompleteProfile POST /api/users/me/profile — finishes profile-first
// onboarding for accounts still in PendingProfileInformation.
func (h *UserHandler) CompleteProfile(c *gin.Context) {
	var req completeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Accounts.CompleteProfile(c.Request.Context(), c.GetString("userID"), application.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.writeUserError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toProfile(u), "profile completed", nil)
}

// UploadAvatar POST /api/users/me/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	if fileHeader.Size > maxAvatarSize {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "avatar exceeds 5MB", nil)
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error[any](c, http.StatusBadRequest, "avatar must be an image", nil)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read avatar file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Auth.UploadAvatar(c.Request.Context(), c.GetString("userID"), f, fileHeader.Filename, contentType)
	if err != nil {
		h.Logger.WithError(err).Error("avatar upload failed")
		h.writeUserError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"avatar_url": url}, "avatar uploaded", nil)
}

func (h *UserHandler) writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, entity.ErrInvalidStateTransition):
		response.Error[any](c, http.StatusConflict, "account is not in a state that allows this", nil)
	default:
		h.Logger.WithError(err).Error("user operation failed")
		response.Error[any](c, http.StatusInternalServerError, "operation failed", nil)
	}
}
