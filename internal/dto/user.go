package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
)

// UserDTO is the public view of a user. It never carries credentials.
type UserDTO struct {
	ID        uint64      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	Avatar    *string     `json:"avatar"`
	CreatedAt time.Time   `json:"createdAt"`
}

// MemberDTO is the minimal view of a project member
type MemberDTO struct {
	ID    uint64      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

// UserRefDTO is the minimal view of a user referenced by another record
type UserRefDTO struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// MessageResponse carries a human readable outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// SignupRequest is the signup body
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

func ToMemberDTO(user models.User) MemberDTO {
	return MemberDTO{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}

// toUserRef returns nil when the relation was not loaded
func toUserRef(user *models.User) *UserRefDTO {
	if user == nil || user.ID == 0 {
		return nil
	}
	return &UserRefDTO{ID: user.ID, Email: user.Email, Name: user.Name}
}

// AvatarResponse is returned after an avatar upload
type AvatarResponse struct {
	Message string  `json:"message"`
	Avatar  *string `json:"avatar"`
	User    UserDTO `json:"user"`
}

// SuccessResponse acknowledges a write with no body of its own
type SuccessResponse struct {
	Success bool `json:"success"`
}
