package auth

import (
	"github.com/frahmantamala/tasktracker/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

type OTPRequestDTO struct {
	Phone string `json:"phone"`
}

type OTPVerifyDTO struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d RefreshTokenDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("refresh_token", d.RefreshToken).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d OTPRequestDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("phone", d.Phone).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d OTPVerifyDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("phone", d.Phone).Required()
	v.Field("code", d.Code).Required().MaxLength(10)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
