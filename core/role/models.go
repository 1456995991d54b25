// Package role manages the role catalog and the role-permission mapping,
// including the exclusive-permission rule guarding Super Admin powers.
package role

import (
	"github.com/go-playground/validator/v10"

	"github.com/mzalendo/daftari/core"
)

type (
	Role struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		UserCount   int    `json:"user_count"`
	}

	Permission struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
)

// NewRole contains information needed to create a custom role.
type NewRole struct {
	ID          string `json:"id" validate:"required,alphanum_"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (nr *NewRole) Validate(validate *validator.Validate) error {
	nr.ID = core.CleanString(nr.ID)
	nr.Name = core.CleanString(nr.Name)
	nr.Description = core.CleanString(nr.Description)
	return validate.Struct(nr)
}
