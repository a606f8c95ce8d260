package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/campuskit/campus-api/internal/application"
	"github.com/campuskit/campus-api/internal/domain/entity"
	"github.com/campuskit/campus-api/pkg/response"
)

// AdminHandler exposes the account moderation surface: approval, denial,
// suspension, soft delete, listing and directory search.
type AdminHandler struct {
	Accounts *application.AccountService
	Logger   *logrus.Logger
}

func NewAdminHandler(accounts *application.AccountService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Accounts: accounts, Logger: logger}
}

// Approve POST /api/admin/users/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	h.moderate(c, h.Accounts.Approve, "user approved")
}

// Deny POST /api/admin/users/:id/deny
func (h *AdminHandler) Deny(c *gin.Context) {
	h.moderate(c, h.Accounts.Deny, "user denied")
}

// Deactivate POST /api/admin/users/:id/deactivate
func (h *AdminHandler) Deactivate(c *gin.Context) {
	h.moderate(c, h.Accounts.Deactivate, "user deactivated")
}

// Reactivate POST /api/admin/users/:id/reactivate
func (h *AdminHandler) Reactivate(c *gin.Context) {
	h.moderate(c, h.Accounts.Reactivate, "user reactivated")
}

// Delete DELETE /api/admin/users/:id — soft delete, the row is retained.
func (h *AdminHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Accounts.SoftDelete(c.Request.Context(), id); err != nil {
		h.writeAdminError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "user deleted", nil)
}

// List GET /api/admin/users?limit=&offset=
func (h *AdminHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	users, err := h.Accounts.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.Logger.WithError(err).Error("user list failed")
		response.Error[any](c, http.StatusInternalServerError, "list failed", nil)
		return
	}
	out := make([]profileResponse, 0, len(users))
	for i := range users {
		out = append(out, toProfile(&users[i]))
	}
	response.Success(c, http.StatusOK, out, "users", gin.H{"limit": limit, "offset": offset, "count": len(out)})
}

// Search GET /api/admin/users/search?q=&size=
func (h *AdminHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Accounts.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("user search failed")
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

func (h *AdminHandler) moderate(c *gin.Context, op func(ctx context.Context, id string) (*entity.User, error), msg string) {
	u, err := op(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeAdminError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toProfile(u), msg, nil)
}

func (h *AdminHandler) writeAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, entity.ErrInvalidStateTransition):
		response.Error[any](c, http.StatusConflict, "invalid status change for this account", nil)
	default:
		h.Logger.WithError(err).Error("admin operation failed")
		response.Error[any](c, http.StatusInternalServerError, "operation failed", nil)
	}
}
