package auth

import "github.com/frahmantamala/identity-service/internal"

// LoginDTO is the transport shape for password login. Identifier
// accepts either a username or an email address.
type LoginDTO struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

func (d LoginDTO) Validate() error {
	return internal.ValidateStruct(d)
}

// EmailLoginDTO covers both halves of the passwordless flow: without a
// magic token a link is issued, with one the login completes.
type EmailLoginDTO struct {
	Email      string `json:"email" validate:"required,email"`
	MagicToken string `json:"magic_token,omitempty"`
}

func (d EmailLoginDTO) Validate() error {
	return internal.ValidateStruct(d)
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d RefreshTokenDTO) Validate() error {
	return internal.ValidateStruct(d)
}

type RegisterDTO struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name,omitempty" validate:"omitempty,max=200"`
}

func (d RegisterDTO) Validate() error {
	return internal.ValidateStruct(d)
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

func (d ChangePasswordDTO) Validate() error {
	return internal.ValidateStruct(d)
}

// SetPasswordDTO completes an onboarding or reset link.
type SetPasswordDTO struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

func (d SetPasswordDTO) Validate() error {
	return internal.ValidateStruct(d)
}
