package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/role"
)

type roleApi struct {
	svc       *role.Service
	accessSvc *access.Service
	validate  *validator.Validate
}

func registerRoleAPI(g *echo.Group, jwt, seat echo.MiddlewareFunc, deps ServerDeps) {
	api := roleApi{
		svc:       deps.RoleSvc,
		accessSvc: deps.AccessSvc,
		validate:  deps.Validate,
	}

	// role administration is an exclusive permission
	rg := g.Group("/roles", jwt, seat, requirePermission(deps.AccessSvc.CanManageRoles))
	rg.GET("", api.query)
	rg.POST("", api.create)
	rg.GET("/:id", api.retrieve)
	rg.GET("/:id/permissions", api.rolePermissions)
	rg.PUT("/:id/permissions", api.updateRolePermissions)

	pg := g.Group("/permissions", jwt, seat, requirePermission(deps.AccessSvc.CanManageRoles))
	pg.GET("", api.queryPermissions)
}

// Handlers

func (api *roleApi) query(ctx echo.Context) error {
	roles, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying roles")
	}
	if roles == nil {
		roles = []role.Role{}
	}
	return ctx.JSON(http.StatusOK, roles)
}

func (api *roleApi) create(ctx echo.Context) error {
	var data role.NewRole
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRole")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating role")
	}

	api.accessSvc.LogAction(ctx.Request().Context(), "CREATE", "roles", r.ID, "role created: "+r.Name)
	return ctx.JSON(http.StatusCreated, r)
}

func (api *roleApi) retrieve(ctx echo.Context) error {
	r, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == role.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding role by ID")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *roleApi) rolePermissions(ctx echo.Context) error {
	ids, err := api.svc.RolePermissionIDs(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying role permissions")
	}
	if ids == nil {
		ids = []string{}
	}
	return ctx.JSON(http.StatusOK, RolePermissionsResponse{PermissionIDs: ids})
}

func (api *roleApi) updateRolePermissions(ctx echo.Context) error {
	var data UpdateRolePermissionsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRolePermissionsRequest")
	}

	err := api.svc.UpdateRolePermissions(ctx.Request().Context(), ctx.Param("id"), data.PermissionIDs)
	if err != nil {
		if errors.Cause(err) == role.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating role permissions")
	}

	api.accessSvc.LogAction(ctx.Request().Context(), "UPDATE", "role_permissions", ctx.Param("id"), "permission mapping replaced")
	return ctx.NoContent(http.StatusNoContent)
}

func (api *roleApi) queryPermissions(ctx echo.Context) error {
	perms, err := api.svc.Permissions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying permissions")
	}
	if perms == nil {
		perms = []role.Permission{}
	}
	return ctx.JSON(http.StatusOK, perms)
}

type (
	RolePermissionsResponse struct {
		PermissionIDs []string `json:"permission_ids"`
	}

	UpdateRolePermissionsRequest struct {
		PermissionIDs []string `json:"permission_ids"`
	}
)
