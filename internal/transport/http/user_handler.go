package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/service"
)

type UserHandler struct {
	auth     *service.AuthService
	users    *service.UserService
	sessions *service.SessionService
}

func RegisterUsers(e *echo.Echo, auth *service.AuthService, users *service.UserService, sessions *service.SessionService) {
	h := &UserHandler{auth: auth, users: users, sessions: sessions}

	me := e.Group("/api/v1/users/me", RequireAuth(auth))
	me.PATCH("", h.updateMe)

	admin := e.Group("/api/v1/users", RequireAuth(auth), RequireSuperuser())
	admin.GET("", h.listUsers)
	admin.GET("/:id", h.getUser)
	admin.PATCH("/:id", h.updateUser)
	admin.POST("/:id/activate", h.activateUser)
	admin.POST("/:id/deactivate", h.deactivateUser)
	admin.DELETE("/:id", h.deleteUser)

	ops := e.Group("/api/v1/admin", RequireAuth(auth), RequireSuperuser())
	ops.POST("/sessions/cleanup", h.cleanupSessions)
}

// updateMe godoc
// @Summary Update the caller's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} UserEnvelope
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/users/me [patch]
func (h *UserHandler) updateMe(c echo.Context) error {
	user, _ := CurrentUser(c)

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	updated, err := h.users.UpdateUser(c.Request().Context(), user.ID, service.UserUpdateInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, UserEnvelope{User: toUserResponse(updated)})
}

// listUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param filter query string false "all, active or superuser"
// @Param limit query int false "Page size"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} UsersListResponse
// @Router /api/v1/users [get]
func (h *UserHandler) listUsers(c echo.Context) error {
	ctx := c.Request().Context()
	page := parsePagination(c, 20)

	var (
		list  []domain.User
		total int64
		err   error
	)
	switch strings.ToLower(c.QueryParam("filter")) {
	case "", "all":
		list, err = h.users.GetMany(ctx, page, domain.Asc(domain.UserFieldCreatedAt))
		if err == nil {
			total, err = h.users.Count(ctx)
		}
	case "active":
		list, err = h.users.GetActiveUsers(ctx, page)
		if err == nil {
			total, err = h.users.CountActiveUsers(ctx)
		}
	case "superuser":
		list, err = h.users.GetSuperusers(ctx, page)
		if err == nil {
			total, err = h.users.Count(ctx,
				domain.Eq(domain.UserFieldIsSuperuser, true),
				domain.IsNull(domain.UserFieldDeletedAt))
		}
	default:
		return badRequest(c, "filter must be one of all, active, superuser")
	}
	if err != nil {
		return writeError(c, err)
	}

	out := make([]UserResponse, 0, len(list))
	for i := range list {
		out = append(out, toUserResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, UsersListResponse{
		Users: out,
		Meta:  UsersMeta{Limit: page.Limit, Offset: page.Skip, Count: len(out), Total: total},
	})
}

func (h *UserHandler) getUser(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	user, err := h.users.GetByIDOrFail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, UserEnvelope{User: toUserResponse(user)})
}

// updateUser applies an admin edit. A new password or a deactivation also
// revokes the user's sessions.
func (h *UserHandler) updateUser(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	var req AdminUpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	updated, err := h.auth.UpdateUser(c.Request().Context(), id, service.UserUpdateInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, UserEnvelope{User: toUserResponse(updated)})
}

func (h *UserHandler) activateUser(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	user, err := h.users.ActivateUser(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, UserEnvelope{User: toUserResponse(user)})
}

func (h *UserHandler) deactivateUser(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	user, err := h.auth.DeactivateUser(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, UserEnvelope{User: toUserResponse(user)})
}

// deleteUser soft-deletes the account; the row and its email stay on record
// but the email may be registered again.
func (h *UserHandler) deleteUser(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	user, err := h.auth.DeleteUser(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, UserEnvelope{User: toUserResponse(user)})
}

// cleanupSessions godoc
// @Summary Delete expired and revoked sessions
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CleanupResponse
// @Router /api/v1/admin/sessions/cleanup [post]
func (h *UserHandler) cleanupSessions(c echo.Context) error {
	n, err := h.sessions.CleanupExpiredSessions(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, CleanupResponse{Deleted: n})
}

func userIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return uuid.Nil, domain.Invalid("id", "id must be a valid UUID")
	}
	return id, nil
}
