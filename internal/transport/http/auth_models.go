package http

import (
	"time"

	"github.com/njprem/web-starter-api/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string         `json:"error" example:"VALIDATION_ERROR"`
	Message string         `json:"message" example:"password: password must be at least 8 characters long"`
	Details map[string]any `json:"details"`
}

// UserResponse is the public user representation. The password hash is never
// serialised.
type UserResponse struct {
	ID          string     `json:"id" example:"01928c3e-5a7b-7c1d-9e2f-3a4b5c6d7e8f"`
	Email       string     `json:"email" example:"user@example.com"`
	Username    *string    `json:"username,omitempty" example:"starter_user"`
	FirstName   *string    `json:"first_name,omitempty" example:"Ada"`
	LastName    *string    `json:"last_name,omitempty" example:"Lovelace"`
	FullName    *string    `json:"full_name,omitempty" example:"Ada Lovelace"`
	IsActive    bool       `json:"is_active" example:"true"`
	IsSuperuser bool       `json:"is_superuser" example:"false"`
	CreatedAt   time.Time  `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt   time.Time  `json:"updated_at" example:"2024-01-02T09:30:00Z"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// SessionResponse describes a session without its token.
type SessionResponse struct {
	ID        string     `json:"id"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	IPAddress *string    `json:"ip_address,omitempty"`
	UserAgent *string    `json:"user_agent,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Current   bool       `json:"current"`
}

// AuthTokenResponse is returned by endpoints that issue a session.
type AuthTokenResponse struct {
	Token     string       `json:"token" example:"Jk1xV3p0...URL-safe"`
	TokenType string       `json:"token_type" example:"bearer"`
	ExpiresAt time.Time    `json:"expires_at" example:"2024-01-02T09:30:00Z"`
	User      UserResponse `json:"user"`
}

type UserEnvelope struct {
	User UserResponse `json:"user"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type RevokedResponse struct {
	Revoked int64 `json:"revoked" example:"3"`
}

type CleanupResponse struct {
	Deleted int64 `json:"deleted" example:"12"`
}

type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

type UsersMeta struct {
	Limit  int   `json:"limit" example:"20"`
	Offset int   `json:"offset" example:"0"`
	Count  int   `json:"count" example:"2"`
	Total  int64 `json:"total" example:"42"`
}

type UsersListResponse struct {
	Users []UserResponse `json:"users"`
	Meta  UsersMeta      `json:"meta"`
}

type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Database string `json:"database" example:"up"`
}

type RegisterRequest struct {
	Email     string  `json:"email" example:"user@example.com"`
	Password  string  `json:"password" example:"StrongPass123"`
	Username  *string `json:"username,omitempty" example:"starter_user"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass123"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" example:"OldPass123"`
	NewPassword     string `json:"new_password" example:"NewPass456"`
}

// UpdateProfileRequest is the self-service subset of user fields.
type UpdateProfileRequest struct {
	Email     *string `json:"email,omitempty"`
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type AdminUpdateUserRequest struct {
	UpdateProfileRequest
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt.UTC(),
		UpdatedAt:   u.UpdatedAt.UTC(),
		DeletedAt:   u.DeletedAt,
	}
}

func toSessionResponse(s *domain.Session, currentID string) SessionResponse {
	return SessionResponse{
		ID:        s.ID.String(),
		ExpiresAt: s.ExpiresAt.UTC(),
		RevokedAt: s.RevokedAt,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt.UTC(),
		Current:   s.ID.String() == currentID,
	}
}

func toAuthTokenResponse(u *domain.User, s *domain.Session) AuthTokenResponse {
	return AuthTokenResponse{
		Token:     s.Token,
		TokenType: "bearer",
		ExpiresAt: s.ExpiresAt.UTC(),
		User:      toUserResponse(u),
	}
}
