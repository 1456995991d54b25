package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core"
	"github.com/mzalendo/daftari/core/access"
)

// claimsContextKey is where the JWT middleware stores the parsed token.
const claimsContextKey = "userToken"

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    claimsContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	RoleID       string `json:"role_id,omitempty"`
	RoleName     string `json:"role_name,omitempty"`
	LinkedID     string `json:"linked_id,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
	IsProfessor  bool   `json:"is_professor,omitempty"`
	IsStudent    bool   `json:"is_student,omitempty"`
}

func GetSessionClaims(conf *core.Config, sess access.Session, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   sess.UserID,
			Audience:  "Daftari",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     sess.Username,
		FullName:     sess.FullName,
		RoleID:       sess.Role.ID,
		RoleName:     sess.Role.Name,
		LinkedID:     sess.LinkedID,
		IsAdmin:      sess.IsAdmin(),
		IsProfessor:  sess.IsProfessor(),
		IsStudent:    sess.IsStudent(),
	}
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(conf.SecretKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(claimsContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// activeSessionMiddleware rejects tokens that no longer match the live
// session: the holder logged out, or someone else took the seat since the
// token was issued.
func activeSessionMiddleware(svc *access.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			sess := svc.Session()
			if !sess.LoggedIn || sess.UserID != claims.Subject {
				return errSessionInactive
			}
			return next(ctx)
		}
	}
}

// requirePermission gates a route on any of the given checks passing.
func requirePermission(checks ...func() bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			for _, check := range checks {
				if check() {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

type authApi struct {
	conf     *core.Config
	svc      *access.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt, seat echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:     deps.Conf,
		svc:      deps.AccessSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)

	sg := ag.Group("", jwt, seat)
	sg.POST("/logout", api.logout)
	sg.GET("/session", api.session)
	sg.POST("/token-refresh", api.refreshToken)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) == access.ErrAuthenticationFailed {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "logging in")
	}

	token, err := GenerateToken(api.conf, GetSessionClaims(api.conf, sess))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Session: sess})
}

func (api *authApi) logout(ctx echo.Context) error {
	api.svc.Logout()
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) session(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Session())
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(api.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return errRefreshExpired
	}

	sess := api.svc.Session()
	token, err := GenerateToken(api.conf, GetSessionClaims(api.conf, sess, claims.OrigIssuedAt))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Session: sess})
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token   string         `json:"token"`
		Session access.Session `json:"session"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
