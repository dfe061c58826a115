package user

import "time"

// UpdateProfileDTO carries the mutable profile fields; nil means "leave as is".
type UpdateProfileDTO struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
}

type AssignRoleDTO struct {
	RoleID string `json:"role_id" validate:"required"`
}

type GrantPermissionDTO struct {
	PermissionID string `json:"permission_id" validate:"required"`
}

// ResponseV1 is the API-facing view of a principal, sensitive fields excluded.
type ResponseV1 struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	IsActive      bool       `json:"is_active"`
	IsSuperuser   bool       `json:"is_superuser"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	RoleIDs       []string   `json:"role_ids"`
	GroupIDs      []string   `json:"group_ids"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func ToV1(u *User) ResponseV1 {
	return ResponseV1{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		Bio:           u.Bio,
		IsActive:      u.IsActive,
		IsSuperuser:   u.IsSuperuser,
		EmailVerified: u.EmailVerified,
		LastLogin:     u.LastLogin,
		RoleIDs:       u.RoleIDs,
		GroupIDs:      u.GroupIDs,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
