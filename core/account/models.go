// Package account holds identity records: the login accounts bound to
// roles and, for professors and students, to their profile rows.
package account

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-playground/validator/v10"

	"github.com/mzalendo/daftari/core"
)

type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	RoleID       string    `json:"role_id"`
	RoleName     string    `json:"role_name"` // joined from roles at read time
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

// NewAccount contains information needed to create a new Account.
type NewAccount struct {
	Username        string `json:"username" validate:"required,min=4,alphanum_"`
	FullName        string `json:"full_name" validate:"required"`
	RoleID          string `json:"role_id" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	// LinkedEntityID ties the account to an existing professor or student
	// profile; required when RoleID implies one.
	LinkedEntityID string `json:"linked_entity_id"`
}

func (na *NewAccount) Validate(validate *validator.Validate, svc *Service) error {
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.FullName = core.CleanString(na.FullName)

	if err := validate.Struct(na); err != nil {
		return err
	}
	return svc.checkUniqueness(na.Username)
}

// ResetAccountPassword is the password-reset confirmation payload.
type ResetAccountPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetAccountPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}
