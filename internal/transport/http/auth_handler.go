package http

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/repository/ports"
	"github.com/njprem/web-starter-api/internal/service"
)

const (
	maxIPAddressLength = 45
	maxUserAgentLength = 255
)

type AuthHandler struct {
	auth     *service.AuthService
	sessions *service.SessionService
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, sessions *service.SessionService) {
	h := &AuthHandler{auth: auth, sessions: sessions}

	g := e.Group("/api/v1/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)

	protected := g.Group("", RequireAuth(auth))
	protected.POST("/logout", h.logout)
	protected.GET("/me", h.me)
	protected.GET("/sessions", h.listSessions)
	protected.POST("/sessions/revoke-all", h.revokeAll)
	protected.POST("/password", h.changePassword)
}

// register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 201 {object} AuthTokenResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.auth.Register(c.Request().Context(), service.UserCreateInput{
		Email:     req.Email,
		Password:  req.Password,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, sessionMetadata(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toAuthTokenResponse(res.User, res.Session))
}

// login godoc
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} AuthTokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password, sessionMetadata(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthTokenResponse(res.User, res.Session))
}

func (h *AuthHandler) logout(c echo.Context) error {
	session, ok := CurrentSession(c)
	if !ok {
		return writeError(c, domain.Unauthorized("authentication required"))
	}
	if err := h.auth.Logout(c.Request().Context(), session.Token); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) me(c echo.Context) error {
	user, _ := CurrentUser(c)
	return c.JSON(http.StatusOK, UserEnvelope{User: toUserResponse(user)})
}

// listSessions returns the caller's sessions, newest first. Expired and
// revoked sessions are included on request until cleanup removes them.
func (h *AuthHandler) listSessions(c echo.Context) error {
	user, _ := CurrentUser(c)
	current, _ := CurrentSession(c)

	filter := ports.SessionFilter{
		IncludeExpired: queryBool(c, "include_expired"),
		IncludeRevoked: queryBool(c, "include_revoked"),
	}
	list, err := h.sessions.GetUserSessions(c.Request().Context(), user.ID, filter)
	if err != nil {
		return writeError(c, err)
	}

	out := make([]SessionResponse, 0, len(list))
	for i := range list {
		out = append(out, toSessionResponse(&list[i], current.ID.String()))
	}
	return c.JSON(http.StatusOK, SessionsResponse{Sessions: out})
}

func (h *AuthHandler) revokeAll(c echo.Context) error {
	user, _ := CurrentUser(c)
	n, err := h.sessions.RevokeUserSessions(c.Request().Context(), user.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, RevokedResponse{Revoked: n})
}

// changePassword godoc
// @Summary Change the caller's password
// @Description Revokes every session of the caller and returns a new one.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} AuthTokenResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/auth/password [post]
func (h *AuthHandler) changePassword(c echo.Context) error {
	user, _ := CurrentUser(c)

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.auth.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword, sessionMetadata(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthTokenResponse(res.User, res.Session))
}

func sessionMetadata(c echo.Context) service.SessionMetadata {
	var meta service.SessionMetadata
	if ip := truncate(c.RealIP(), maxIPAddressLength); ip != "" {
		meta.IPAddress = &ip
	}
	if ua := truncate(c.Request().UserAgent(), maxUserAgentLength); ua != "" {
		meta.UserAgent = &ua
	}
	return meta
}

// truncate caps s at n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

func queryBool(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}

func parsePagination(c echo.Context, defaultLimit int) domain.Page {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return domain.Page{Skip: offset, Limit: limit}.Normalize()
}
