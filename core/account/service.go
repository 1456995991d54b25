package account

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core"
)

var (
	// errors
	ErrNotFound       = errors.New("account not found")
	ErrUsernameExists = errors.New("an account with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username string, excluded ...Account) error
		// CreateAccount persists the account and, when linkedEntityID is
		// non-empty, binds the professor/student profile to it in the same
		// transaction: no profile may end up without its account row.
		CreateAccount(ctx context.Context, acct Account, linkedEntityID string) (Account, error)
		QueryAllAccounts(ctx context.Context) ([]Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByUsername(ctx context.Context, username string) (Account, error)
		GetActiveAccountByUsername(ctx context.Context, username string) (Account, error)
		ContactEmailForAccount(ctx context.Context, accountID string) (string, error)
		UpdatePasswordHash(ctx context.Context, accountID string, hash []byte) error
		SetAccountActive(ctx context.Context, accountID string, active bool) error
		TouchLastLogin(ctx context.Context, accountID string) error
	}

	Service struct {
		repo   Repository
		mail   core.EmailService
		conf   *core.Config
		logger core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {
	// package-level token parameters; see token.go
	secretKey = conf.SecretKey
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &Service{repo: repo, mail: mailSvc, conf: conf, logger: logger}
}

func (svc *Service) checkUniqueness(uname string, excluded ...Account) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, excluded...); err != nil {
		if errors.Cause(err) == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	now := time.Now().UTC()
	acct := Account{
		Username:  na.Username,
		FullName:  na.FullName,
		RoleID:    na.RoleID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acct.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateAccount(ctx, acct, na.LinkedEntityID)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAllAccounts(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (Account, error) {
	return svc.repo.GetAccountByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) SetActive(ctx context.Context, id string, active bool) error {
	return svc.repo.SetAccountActive(ctx, id, active)
}

// SetPassword hashes and stores a new password for the account. Used by
// the admin CLI; the self-service path goes through the reset token.
func (svc *Service) SetPassword(ctx context.Context, id, pwd string) error {
	var acct Account
	if err := acct.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdatePasswordHash(ctx, id, acct.PasswordHash)
}

// RequestPasswordReset mails a single-use reset link to the account's
// contact address. Callers should treat ErrNotFound as success to avoid
// leaking which usernames exist.
func (svc *Service) RequestPasswordReset(ctx context.Context, uname string) error {
	acct, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}

	email, err := svc.repo.ContactEmailForAccount(ctx, acct.ID)
	if err != nil {
		return errors.Wrap(err, "resolving contact email")
	}

	token := makeToken(acct)
	url := fmt.Sprintf("%s/password-reset?uid=%s&token=%s", svc.conf.FrontendBaseURL, EncodeUID(acct), token)

	svc.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: acct.FullName, Address: email}},
		Subject: "Password reset",
		Body: fmt.Sprintf(
			"Hi %s,\r\n\r\nFollow this link to set a new password for your account:\r\n%s\r\n\r\n"+
				"If you did not request this, you can ignore this message.\r\n",
			acct.FullName, url,
		),
	})
	return nil
}

// ResetPassword consumes a reset token and stores the new password.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetAccountPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	acct, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyToken(acct, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = acct.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdatePasswordHash(ctx, acct.ID, acct.PasswordHash)
}
