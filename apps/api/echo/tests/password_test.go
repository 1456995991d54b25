package tests

import (
	"net/http"
	"regexp"
	"testing"

	. "github.com/mzalendo/daftari/apps/api/echo"
	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/account"
	emailsvc "github.com/mzalendo/daftari/services/email"
	testutil "github.com/mzalendo/daftari/tests"
)

var resetURLRegex = regexp.MustCompile(`/password-reset\?uid=([^&\s]+)&token=([^&\s]+)`)

func Test_accountApi_passwordReset(t *testing.T) {
	ta := setup(t)
	acct := testutil.CreateAccount(t, ta.acctRepo, "jdoe", "Jane Doe", access.RoleProfessor, testPwd, true, "PRF001")
	ta.db.SetContactEmail(acct.ID, "jdoe@example.test")

	successMsg := marchallObj(t, SuccessResponse{
		Success: "If the username supplied is associated with an active account on this system, " +
			"an email will arrive in the account's inbox shortly with instructions to reset the password.",
	})

	var uid, token string

	t.Run("request sends a reset email", func(t *testing.T) {
		sent := len(emailsvc.SentMessages)

		tt := httpTest{wantCode: http.StatusOK, wantData: successMsg}
		body := marchallObj(t, PasswordResetRequest{Username: "jdoe"})
		req, rec := newRequest(http.MethodPost, "/v1/accounts/password-reset", body)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		if len(emailsvc.SentMessages) != sent+1 {
			t.Fatalf("expected 1 new email, got %d", len(emailsvc.SentMessages)-sent)
		}
		msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
		if len(msg.To) != 1 || msg.To[0].Address != "jdoe@example.test" {
			t.Errorf("unexpected recipients: %+v", msg.To)
		}
		m := resetURLRegex.FindStringSubmatch(msg.Body)
		if m == nil {
			t.Fatalf("no reset link in body: %q", msg.Body)
		}
		uid, token = m[1], m[2]
	})

	t.Run("unknown username still reads as success", func(t *testing.T) {
		sent := len(emailsvc.SentMessages)

		tt := httpTest{wantCode: http.StatusOK, wantData: successMsg}
		body := marchallObj(t, PasswordResetRequest{Username: "nobody"})
		req, rec := newRequest(http.MethodPost, "/v1/accounts/password-reset", body)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		if len(emailsvc.SentMessages) != sent {
			t.Error("no email should go out for an unknown username")
		}
	})

	t.Run("confirm with a bad token", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid token"})}
		body := marchallObj(t, account.ResetAccountPassword{
			Token:           "bogus-token",
			UID:             uid,
			Password:        "n3w!passw0rd",
			PasswordConfirm: "n3w!passw0rd",
		})
		req, rec := newRequest(http.MethodPost, "/v1/accounts/password-reset-confirm", body)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("confirm sets the new password", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		}
		body := marchallObj(t, account.ResetAccountPassword{
			Token:           token,
			UID:             uid,
			Password:        "n3w!passw0rd",
			PasswordConfirm: "n3w!passw0rd",
		})
		req, rec := newRequest(http.MethodPost, "/v1/accounts/password-reset-confirm", body)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		// the old password no longer opens the seat
		loginBody := marchallObj(t, LoginRequest{Username: "jdoe", Password: testPwd})
		req, rec = newRequest(http.MethodPost, "/v1/auth/login", loginBody)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("old password accepted; code = %v", rec.Code)
		}

		loginBody = marchallObj(t, LoginRequest{Username: "jdoe", Password: "n3w!passw0rd"})
		req, rec = newRequest(http.MethodPost, "/v1/auth/login", loginBody)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("new password rejected; code = %v; body %s", rec.Code, rec.Body.String())
		}
	})
}
