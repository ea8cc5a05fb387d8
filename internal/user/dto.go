package user

import (
	"strings"

	"github.com/frahmantamala/tasktracker/internal"
	"github.com/frahmantamala/tasktracker/internal/core/common/validation"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes and newer versions refuse it.
	maxPasswordBytes = 72
)

// RegisterDTO creates an account. Phone and password are each optional but
// at least one is needed to sign in: a passcode goes to the phone, a
// password works on its own.
type RegisterDTO struct {
	Username string  `json:"username"`
	Phone    string  `json:"phone"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (d *RegisterDTO) Validate() error {
	d.Username = strings.TrimSpace(d.Username)
	d.Phone = strings.TrimSpace(d.Phone)
	if d.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*d.Email))
		if email == "" {
			d.Email = nil
		} else {
			d.Email = &email
		}
	}

	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(50)
	v.Field("phone", d.Phone).Custom(func(value interface{}) *internal.AppError {
		if value.(string) == "" && d.Password == nil {
			return internal.NewValidationFieldError("phone", "phone or password is required", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	v.Field("email", d.Email).Custom(func(value interface{}) *internal.AppError {
		email, _ := value.(*string)
		if email != nil && !strings.Contains(*email, "@") {
			return internal.NewValidationFieldError("email", "email must be a valid address", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	v.Field("password", d.Password).Custom(func(value interface{}) *internal.AppError {
		password, _ := value.(*string)
		if password == nil {
			return nil
		}
		if len(*password) < minPasswordLength {
			return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
		}
		if len(*password) > maxPasswordBytes {
			return internal.NewValidationFieldError("password", "password must not exceed 72 bytes", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type DeviceTokenDTO struct {
	Token string `json:"token"`
}

func (d *DeviceTokenDTO) Validate() error {
	d.Token = strings.TrimSpace(d.Token)
	v := validation.NewValidator()
	v.Field("token", d.Token).Required().MaxLength(512)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type PermissionsResponse struct {
	Permissions []string `json:"permissions"`
}

type DevicesResponse struct {
	Devices []DeviceToken `json:"devices"`
}
