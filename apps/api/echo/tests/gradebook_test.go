package tests

import (
	"net/http"
	"testing"

	. "github.com/mzalendo/daftari/apps/api/echo"
	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/grade"
	testutil "github.com/mzalendo/daftari/tests"
)

var errPermissionDenied = httpErr{Error: "permission denied"}

func seedGradebookAccounts(t *testing.T, ta *testApp) {
	t.Helper()
	testutil.CreateAccount(t, ta.acctRepo, "jdoe", "Jane Doe", access.RoleProfessor, testPwd, true, "PRF001")
	testutil.CreateAccount(t, ta.acctRepo, "msmith", "Mark Smith", access.RoleProfessor, testPwd, true, "PRF002")
	testutil.CreateAccount(t, ta.acctRepo, "stud", "Omar Ali", access.RoleStudent, testPwd, true, "STU001")
	testutil.CreateAccount(t, ta.acctRepo, "affairs", "Amina Yusuf", access.RoleStudentAffairs, testPwd, true, "")
	testutil.CreateAccount(t, ta.acctRepo, "admin", "Root Admin", access.RoleSuperAdmin, testPwd, true, "")
}

func Test_gradeApi_enterComponent(t *testing.T) {
	ta := setup(t)
	seedGradebookAccounts(t, ta)

	path := "/v1/registrations/REG1/grade"
	profToken := logIn(t, ta, "jdoe")

	tests := []httpTest{
		{
			name:     "missing component name",
			token:    profToken,
			body:     []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"component": "this field is required"}),
		},
		{
			name:     "unknown component name",
			token:    profToken,
			body:     marchallObj(t, EnterComponentRequest{Component: "quiz", Value: 5}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"component": `unknown grade component "quiz"`}),
		},
		{
			name:     "score above the component maximum",
			token:    profToken,
			body:     marchallObj(t, EnterComponentRequest{Component: grade.ComponentAssignment1, Value: 12}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"assignment1": "score cannot exceed 10.0"}),
		},
		{
			name:     "negative score",
			token:    profToken,
			body:     marchallObj(t, EnterComponentRequest{Component: grade.ComponentYearWork, Value: -1}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"year_work": "score cannot be negative"}),
		},
		{
			name:     "accepted score returns the derived result",
			token:    profToken,
			body:     marchallObj(t, EnterComponentRequest{Component: grade.ComponentFinalExam, Value: 60}),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, grade.Result{Total: 60, Percentage: 60, Evaluation: "Pass", Letter: "D", GPA: 1}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, path, tt.token, tt.body)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("unknown registration", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		body := marchallObj(t, EnterComponentRequest{Component: grade.ComponentAssignment1, Value: 5})
		req, rec := newAuthRequest(http.MethodPut, "/v1/registrations/NOPE/grade", profToken, body)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("professor outside their assignment", func(t *testing.T) {
		token := logIn(t, ta, "msmith")
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}
		body := marchallObj(t, EnterComponentRequest{Component: grade.ComponentAssignment1, Value: 5})
		req, rec := newAuthRequest(http.MethodPut, path, token, body)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("student cannot enter grades", func(t *testing.T) {
		token := logIn(t, ta, "stud")
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}
		body := marchallObj(t, EnterComponentRequest{Component: grade.ComponentAssignment1, Value: 5})
		req, rec := newAuthRequest(http.MethodPut, path, token, body)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin may enter anywhere", func(t *testing.T) {
		token := logIn(t, ta, "admin")
		body := marchallObj(t, EnterComponentRequest{Component: grade.ComponentAssignment1, Value: 10})
		req, rec := newAuthRequest(http.MethodPut, path, token, body)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})
}

func Test_gradeApi_courseGrades(t *testing.T) {
	ta := setup(t)
	seedGradebookAccounts(t, ta)

	path := "/v1/courses/CS101/semesters/SEM1/grades"

	t.Run("assigned professor", func(t *testing.T) {
		token := logIn(t, ta, "jdoe")
		req, rec := newAuthRequest(http.MethodGet, path, token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		var grades []grade.Grade
		unmarshalBody(t, rec, &grades)
		if len(grades) != 1 || grades[0].RegistrationID != "REG1" {
			t.Errorf("unexpected grades: %+v", grades)
		}
	})

	t.Run("unassigned professor", func(t *testing.T) {
		token := logIn(t, ta, "msmith")
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}
		req, rec := newAuthRequest(http.MethodGet, path, token)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("student affairs sees every offering", func(t *testing.T) {
		token := logIn(t, ta, "affairs")
		req, rec := newAuthRequest(http.MethodGet, path, token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
	})

	t.Run("empty offering returns an empty list", func(t *testing.T) {
		token := logIn(t, ta, "affairs")
		tt := httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/CS999/semesters/SEM1/grades", token)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_gradeApi_studentRecords(t *testing.T) {
	ta := setup(t)
	seedGradebookAccounts(t, ta)
	testutil.CreateAccount(t, ta.acctRepo, "stud2", "Sara Noor", access.RoleStudent, testPwd, true, "STU002")
	ta.db.AddRegistration(grade.Registration{
		ID:         "REG2",
		StudentID:  "STU002",
		CourseID:   "CS101",
		SemesterID: "SEM1",
		Status:     grade.StatusRegistered,
	})

	t.Run("student reads their own report", func(t *testing.T) {
		token := logIn(t, ta, "stud")
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/STU001/grades", token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		var grades []grade.StudentGrade
		unmarshalBody(t, rec, &grades)
		if len(grades) != 1 || grades[0].CourseID != "CS101" {
			t.Errorf("unexpected grades: %+v", grades)
		}
	})

	t.Run("student cannot read another student's report", func(t *testing.T) {
		token := logIn(t, ta, "stud")
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/STU002/grades", token)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("student reads their own registration grade", func(t *testing.T) {
		token := logIn(t, ta, "stud")
		req, rec := newAuthRequest(http.MethodGet, "/v1/registrations/REG1/grade", token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
	})

	t.Run("student cannot read another registration's grade", func(t *testing.T) {
		token := logIn(t, ta, "stud")
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/registrations/REG2/grade", token)
		ta.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("student affairs reads any report", func(t *testing.T) {
		token := logIn(t, ta, "affairs")
		req, rec := newAuthRequest(http.MethodGet, "/v1/students/STU002/grades", token)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
	})
}

func Test_gradeApi_studentGPA(t *testing.T) {
	ta := setup(t)
	seedGradebookAccounts(t, ta)

	// full marks in the only registered course
	adminToken := logIn(t, ta, "admin")
	for component, value := range map[string]float64{
		grade.ComponentAssignment1: 10,
		grade.ComponentAssignment2: 10,
		grade.ComponentYearWork:    20,
		grade.ComponentFinalExam:   60,
	} {
		body := marchallObj(t, EnterComponentRequest{Component: component, Value: value})
		req, rec := newAuthRequest(http.MethodPut, "/v1/registrations/REG1/grade", adminToken, body)
		ta.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("entering %s failed: %s", component, rec.Body.String())
		}
	}

	studToken := logIn(t, ta, "stud")

	tests := []httpTest{
		{
			name:     "cumulative",
			path:     "/v1/students/STU001/gpa",
			token:    studToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, GPAResponse{StudentID: "STU001", GPA: 4}),
		},
		{
			name:     "per semester",
			path:     "/v1/students/STU001/gpa?semester_id=SEM1",
			token:    studToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, GPAResponse{StudentID: "STU001", SemesterID: "SEM1", GPA: 4}),
		},
		{
			name:     "another student's GPA is off limits",
			path:     "/v1/students/STU999/gpa",
			token:    studToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errPermissionDenied),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_gradeApi_assignedCourses(t *testing.T) {
	ta := setup(t)
	seedGradebookAccounts(t, ta)

	tests := []struct {
		name     string
		username string
		wantData AssignedCoursesResponse
	}{
		{"assigned professor", "jdoe", AssignedCoursesResponse{CourseIDs: []string{"CS101"}}},
		{"unassigned professor", "msmith", AssignedCoursesResponse{CourseIDs: []string{}}},
		{"student has no assignments", "stud", AssignedCoursesResponse{CourseIDs: []string{}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token := logIn(t, ta, tc.username)
			tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, tc.wantData)}
			req, rec := newAuthRequest(http.MethodGet, "/v1/me/courses", token)
			ta.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
