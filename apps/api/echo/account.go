package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/account"
)

type accountApi struct {
	svc       *account.Service
	accessSvc *access.Service
	validate  *validator.Validate
}

func registerAccountAPI(g *echo.Group, jwt, seat echo.MiddlewareFunc, deps ServerDeps) {
	api := accountApi{
		svc:       deps.AccountSvc,
		accessSvc: deps.AccessSvc,
		validate:  deps.Validate,
	}

	ug := g.Group("/accounts")

	// un-authed endpoints
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// account administration is an exclusive permission
	ag := ug.Group("", jwt, seat, requirePermission(deps.AccessSvc.CanManageUsers))
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id/active", api.setActive)
}

// Handlers

func (api *accountApi) create(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	acct, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}

	api.accessSvc.LogAction(ctx.Request().Context(), "CREATE", "users", acct.ID, "account created: "+acct.Username)
	return ctx.JSON(http.StatusCreated, acct)
}

func (api *accountApi) query(ctx echo.Context) error {
	accounts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	if accounts == nil {
		accounts = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, accounts)
}

func (api *accountApi) retrieve(ctx echo.Context) error {
	acct, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding account by ID")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) setActive(ctx echo.Context) error {
	var data SetActiveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetActiveRequest")
	}

	// deactivating your own account would strand the seat
	if ctx.Param("id") == api.accessSvc.Session().UserID && !data.IsActive {
		return errHttpForbidden
	}

	if err := api.svc.SetActive(ctx.Request().Context(), ctx.Param("id"), data.IsActive); err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "setting account active state")
	}

	action := "DEACTIVATE"
	if data.IsActive {
		action = "ACTIVATE"
	}
	api.accessSvc.LogAction(ctx.Request().Context(), action, "users", ctx.Param("id"), "")
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Username); !(err == nil || errors.Cause(err) == account.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the username supplied is associated with an active account on this system, " +
			"an email will arrive in the account's inbox shortly with instructions to reset the password.",
	})
}

func (api *accountApi) confirmPasswordReset(ctx echo.Context) error {
	var data account.ResetAccountPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetAccountPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

type (
	PasswordResetRequest struct {
		Username string `json:"username" validate:"required"`
	}

	SetActiveRequest struct {
		IsActive bool `json:"is_active"`
	}
)

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(pr)
}
