package group

import "github.com/frahmantamala/identity-service/internal"

type CreateGroupDTO struct {
	Name             string `json:"name" validate:"required,min=1,max=100"`
	Description      string `json:"description,omitempty" validate:"max=500"`
	MaxMembers       int    `json:"max_members,omitempty" validate:"min=0"`
	IsPublic         bool   `json:"is_public,omitempty"`
	RequiresApproval bool   `json:"requires_approval,omitempty"`
}

func (d CreateGroupDTO) Validate() error {
	return internal.ValidateStruct(d)
}

type UpdateGroupDTO struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description      *string `json:"description,omitempty" validate:"omitempty,max=500"`
	MaxMembers       *int    `json:"max_members,omitempty" validate:"omitempty,min=0"`
	IsPublic         *bool   `json:"is_public,omitempty"`
	RequiresApproval *bool   `json:"requires_approval,omitempty"`
}

func (d UpdateGroupDTO) Validate() error {
	return internal.ValidateStruct(d)
}

type MemberDTO struct {
	UserID string `json:"user_id" validate:"required"`
}

func (d MemberDTO) Validate() error {
	return internal.ValidateStruct(d)
}

type AttachPermissionDTO struct {
	PermissionID string `json:"permission_id" validate:"required"`
}

func (d AttachPermissionDTO) Validate() error {
	return internal.ValidateStruct(d)
}
