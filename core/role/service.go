package role

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core"
	"github.com/mzalendo/daftari/core/access"
)

var (
	// errors
	ErrNotFound     = errors.New("role not found")
	ErrRoleIDExists = errors.New("a role with this ID already exists")
)

type (
	Repository interface {
		QueryRoles(ctx context.Context) ([]Role, error)
		GetRoleByID(ctx context.Context, id string) (Role, error)
		CreateRole(ctx context.Context, r Role) (Role, error)
		QueryPermissions(ctx context.Context) ([]Permission, error)
		GetPermissionByID(ctx context.Context, id string) (Permission, error)
		PermissionIDsForRole(ctx context.Context, roleID string) ([]string, error)
		// ReplaceRolePermissions swaps the role's whole mapping in one
		// transaction: the previous set is kept intact if any step fails.
		ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) QueryAll(ctx context.Context) ([]Role, error) {
	return svc.repo.QueryRoles(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Role, error) {
	return svc.repo.GetRoleByID(ctx, id)
}

func (svc *Service) Permissions(ctx context.Context) ([]Permission, error) {
	return svc.repo.QueryPermissions(ctx)
}

func (svc *Service) RolePermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	return svc.repo.PermissionIDsForRole(ctx, roleID)
}

func (svc *Service) Create(ctx context.Context, nr NewRole) (Role, error) {
	if _, err := svc.repo.GetRoleByID(ctx, nr.ID); err == nil {
		return Role{}, core.NewValidationError(ErrRoleIDExists, core.FieldError{Field: "id", Error: ErrRoleIDExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return Role{}, err
	}
	return svc.repo.CreateRole(ctx, Role{ID: nr.ID, Name: nr.Name, Description: nr.Description})
}

// UpdateRolePermissions replaces a role's permission set. The whole
// proposed set is vetted first: if the target role is not Super Admin
// and any proposed permission is exclusive, the entire update is
// rejected before anything is written. The swap itself is atomic.
func (svc *Service) UpdateRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := svc.repo.GetRoleByID(ctx, roleID); err != nil {
		return err
	}

	if roleID != access.RoleSuperAdmin {
		for _, permID := range permissionIDs {
			perm, err := svc.repo.GetPermissionByID(ctx, permID)
			if err != nil {
				return errors.Wrapf(err, "resolving permission %s", permID)
			}
			if access.IsExclusive(perm.Name) {
				return core.NewValidationError(nil, core.FieldError{
					Field: "permissions",
					Error: fmt.Sprintf("cannot assign exclusive permission %s (reserved for Super Admin only)", perm.Name),
				})
			}
		}
	}

	return svc.repo.ReplaceRolePermissions(ctx, roleID, permissionIDs)
}
