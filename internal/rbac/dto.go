package rbac

type CreateRoleDTO struct {
	Name          string   `json:"name" validate:"required,min=1,max=50"`
	Description   string   `json:"description" validate:"required,max=500"`
	PermissionIDs []string `json:"permission_ids,omitempty"`
}

type UpdateRoleDTO struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type SetRolePermissionsDTO struct {
	PermissionIDs []string `json:"permission_ids" validate:"required,dive,required"`
}

type CreatePermissionDTO struct {
	Resource    string `json:"resource" validate:"required,max=50"`
	Action      string `json:"action" validate:"required,max=50"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

type UpdatePermissionDTO struct {
	Description string `json:"description" validate:"max=500"`
}
