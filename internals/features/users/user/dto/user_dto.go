package dto

import (
	"strings"
)

// UpdateProfileRequest: partial update (pointer = field dikirim).
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name,omitempty" validate:"omitempty,min=3,max=120"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// Normalize: trim spasi
func (r *UpdateProfileRequest) Normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(r.FullName)
	trim(r.Phone)
	trim(r.AvatarURL)
}

func (r *UpdateProfileRequest) Empty() bool {
	return r.FullName == nil && r.Phone == nil && r.AvatarURL == nil
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user instructor admin"`
}

type UpdateActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ListUsersQuery: GET /api/a/users?q=&role=&is_active=
type ListUsersQuery struct {
	Q        string
	Role     string
	IsActive *bool
}
