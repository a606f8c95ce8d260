package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campuskit/campus-api/internal/application"
	"github.com/campuskit/campus-api/internal/domain/entity"
	"github.com/campuskit/campus-api/pkg/credential"
	"github.com/campuskit/campus-api/pkg/helpers"
	"github.com/campuskit/campus-api/pkg/response"
	"github.com/campuskit/campus-api/pkg/validation"
)

type AuthHandler struct {
	Accounts *application.AccountService
	Auth     *application.AuthService
	Logger   *logrus.Logger
	Cookies  *helpers.Manager
}

func NewAuthHandler(accounts *application.AccountService, auth *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Auth: auth, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone" binding:"required,phone"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,pwd"`
}

type activateRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,otpcode"`
}

type resendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,otpcode"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Accounts.Register(c.Request.Context(), application.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, application.ErrEmailTaken):
			response.Error[any](c, http.StatusConflict, "email already registered", nil)
		case errors.Is(err, credential.ErrEmptyPlaintext):
			response.Error[any](c, http.StatusBadRequest, "password is required", nil)
		default:
			h.Logger.WithError(err).Error("registration failed")
			response.Error[any](c, http.StatusInternalServerError, "registration failed", nil)
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"id":     u.ID,
		"email":  u.Email,
		"status": u.Status,
	}, "registered; check your email for the activation code", nil)
}

// Activate POST /api/auth/activate {email, code}
func (h *AuthHandler) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Accounts.ActivateEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.writeVerificationError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": u.Status}, "email verified", nil)
}

// ResendActivation POST /api/auth/activate/resend {email}
func (h *AuthHandler) ResendActivation(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Accounts.ResendActivation(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, application.ErrUserNotFound) {
		// Unknown emails get the same 200 to avoid account enumeration.
		h.writeVerificationError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "activation code sent", nil)
}

// ResetInit POST /api/auth/reset/init {email}
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Accounts.RequestPasswordReset(c.Request.Context(), req.Email); err != nil &&
		!errors.Is(err, application.ErrUserNotFound) {
		h.Logger.WithError(err).Error("reset init failed")
		response.Error[any](c, http.StatusInternalServerError, "reset failed", nil)
		return
	}
	// Same 200 whether or not the email exists.
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "reset code sent", nil)
}

// ResetConfirm POST /api/auth/reset/confirm {email, code, new_password}
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Accounts.ConfirmPasswordReset(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		h.writeVerificationError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, pair, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, application.ErrAccountNotActive) {
			response.Error[any](c, http.StatusForbidden, "account is not active", nil)
			return
		}
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, res, "login successful", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Refresh POST /api/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Auth.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Logout POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Auth.Logout(c.Request.Context(), c.GetString("userID"))
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// writeVerificationError maps token verification failures onto distinct
// client messages: an expired or already-used code should prompt requesting a
// new one, a wrong code should not.
func (h *AuthHandler) writeVerificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, application.ErrTokenExpiredOrConsumed):
		response.Error[any](c, http.StatusGone, "code expired or already used; request a new one", nil)
	case errors.Is(err, application.ErrCodeMismatch):
		response.Error[any](c, http.StatusBadRequest, "incorrect code", nil)
	case errors.Is(err, entity.ErrInvalidStateTransition):
		response.Error[any](c, http.StatusConflict, "account is not in a state that allows this", nil)
	case errors.Is(err, credential.ErrEmptyPlaintext):
		response.Error[any](c, http.StatusBadRequest, "password is required", nil)
	default:
		h.Logger.WithError(err).Error("verification failed")
		response.Error[any](c, http.StatusInternalServerError, "verification failed", nil)
	}
}
