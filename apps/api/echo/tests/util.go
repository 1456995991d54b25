package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/mzalendo/daftari/apps/api/echo"
	"github.com/mzalendo/daftari/core"
	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/account"
	"github.com/mzalendo/daftari/core/grade"
	"github.com/mzalendo/daftari/core/role"
	emailsvc "github.com/mzalendo/daftari/services/email"
	dummydb "github.com/mzalendo/daftari/storage/database/dummy"
	testutil "github.com/mzalendo/daftari/tests"
)

const testPwd = "str0ngpa55"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	conf      *core.Config
	db        *dummydb.DB
	app       Server
	accessSvc *access.Service
	acctRepo  account.Repository
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	db := dummydb.Open()
	seedRBAC(db)

	logger := testutil.NopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	acctRepo := dummydb.NewAccountRepository(db)
	accessSvc := access.NewService(dummydb.NewAccessRepository(db), logger)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	app := NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         logger,
			AccessSvc:      accessSvc,
			AccountSvc:     account.NewService(acctRepo, mailSvc, conf, logger),
			GradeSvc:       grade.NewService(dummydb.NewGradeRepository(db), logger),
			RoleSvc:        role.NewService(dummydb.NewRoleRepository(db)),
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)

	return &testApp{
		conf:      conf,
		db:        db,
		app:       app,
		accessSvc: accessSvc,
		acctRepo:  acctRepo,
	}
}

// seedRBAC loads the built-in roles, a permission catalog and a small
// gradebook: one professor assigned to CS101 in SEM1, one student
// registered in it.
func seedRBAC(db *dummydb.DB) {
	db.AddRole(role.Role{ID: access.RoleSuperAdmin, Name: "Super Admin"})
	db.AddRole(role.Role{ID: access.RoleStudentAffairs, Name: "Student Affairs"})
	db.AddRole(role.Role{ID: access.RoleProfessor, Name: "Professor"})
	db.AddRole(role.Role{ID: access.RoleStudent, Name: "Student"})

	perms := map[string]string{
		"P1": access.PermGradeEnter,
		"P2": access.PermGradeViewAssigned,
		"P3": access.PermGradeViewOwn,
		"P4": access.PermGradeViewAll,
		"P5": access.PermUserManage,
		"P6": access.PermRoleManage,
		"P7": access.PermStudentViewAll,
	}
	for id, name := range perms {
		db.AddPermission(role.Permission{ID: id, Name: name})
	}

	db.GrantPermission(access.RoleProfessor, "P1")
	db.GrantPermission(access.RoleProfessor, "P2")
	db.GrantPermission(access.RoleStudent, "P3")
	db.GrantPermission(access.RoleStudentAffairs, "P4")
	db.GrantPermission(access.RoleStudentAffairs, "P7")
	db.GrantPermission(access.RoleSuperAdmin, "P5")
	db.GrantPermission(access.RoleSuperAdmin, "P6")

	db.SetCourse("CS101", grade.Distribution{
		Assignment1Max: 10,
		Assignment2Max: 10,
		YearWorkMax:    20,
		FinalExamMax:   60,
		TotalMax:       100,
	}, 3)
	db.AddAssignment("PRF001", "CS101", "SEM1")
	db.AddRegistration(grade.Registration{
		ID:         "REG1",
		StudentID:  "STU001",
		CourseID:   "CS101",
		SemesterID: "SEM1",
		Status:     grade.StatusRegistered,
	})
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// logIn takes the seat for the given account and returns a matching token.
func logIn(t *testing.T, ta *testApp, username string) string {
	t.Helper()

	sess, err := ta.accessSvc.Login(context.Background(), username, testPwd)
	if err != nil {
		t.Fatalf("logIn() failed: %v", err)
	}
	token, err := GenerateToken(ta.conf, GetSessionClaims(ta.conf, sess))
	if err != nil {
		t.Fatalf("logIn() failed: %v", err)
	}
	return token
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
