package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"crowdfund_backend/internals/features/users/users/model"
)

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	UserName  string    `json:"user_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func FromModel(u *model.UserModel) UserResponse {
	return UserResponse{
		ID:        u.ID,
		UserName:  u.UserName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func FromModelList(rows []model.UserModel) []UserResponse {
	out := make([]UserResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

type UpdateMeRequest struct {
	UserName string `json:"user_name" validate:"required,min=3,max=50"`
}

func (r *UpdateMeRequest) Normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}
