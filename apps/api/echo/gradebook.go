package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/grade"
)

type gradeApi struct {
	svc       *grade.Service
	accessSvc *access.Service
	validate  *validator.Validate
}

func registerGradeAPI(g *echo.Group, jwt, seat echo.MiddlewareFunc, deps ServerDeps) {
	api := gradeApi{
		svc:       deps.GradeSvc,
		accessSvc: deps.AccessSvc,
		validate:  deps.Validate,
	}

	ag := g.Group("", jwt, seat)
	ag.GET("/courses/:courseID/semesters/:semesterID/grades", api.courseGrades)
	ag.GET("/registrations/:id/grade", api.retrieve)
	ag.PUT("/registrations/:id/grade", api.enterComponent)
	ag.GET("/students/:studentID/grades", api.studentGrades)
	ag.GET("/students/:studentID/gpa", api.studentGPA)
	ag.GET("/me/courses", api.assignedCourses)
}

// canViewCourse allows administrative grade viewers everywhere and
// professors inside their assignment.
func (api *gradeApi) canViewCourse(ctx echo.Context, courseID, semesterID string) bool {
	if api.accessSvc.CanViewAllGrades() {
		return true
	}
	if api.accessSvc.CanViewAssignedCourses() {
		return api.accessSvc.CanAccessCourse(ctx.Request().Context(), courseID, semesterID).Allowed()
	}
	return false
}

// Handlers

func (api *gradeApi) courseGrades(ctx echo.Context) error {
	courseID, semesterID := ctx.Param("courseID"), ctx.Param("semesterID")
	if !api.canViewCourse(ctx, courseID, semesterID) {
		return errHttpForbidden
	}

	grades, err := api.svc.CourseGrades(ctx.Request().Context(), courseID, semesterID)
	if err != nil {
		return errors.Wrap(err, "querying course grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	reg, err := api.svc.GetRegistration(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grade.ErrRegistrationNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding registration")
	}

	ownRecord := api.accessSvc.IsOwnStudentID(reg.StudentID) && api.accessSvc.HasPermission(access.PermGradeViewOwn)
	if !ownRecord && !api.canViewCourse(ctx, reg.CourseID, reg.SemesterID) {
		return errHttpForbidden
	}

	grd, err := api.svc.Get(ctx.Request().Context(), reg.ID)
	if err != nil {
		return errors.Wrap(err, "getting grade")
	}
	return ctx.JSON(http.StatusOK, grd)
}

func (api *gradeApi) enterComponent(ctx echo.Context) error {
	if !api.accessSvc.CanEnterGrades() {
		return errHttpForbidden
	}

	var data EnterComponentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnterComponentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.svc.GetRegistration(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == grade.ErrRegistrationNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding registration")
	}

	// grade entry is scoped to the professor's assigned offerings
	sess := api.accessSvc.Session()
	if !sess.IsAdmin() && !api.accessSvc.CanAccessCourse(ctx.Request().Context(), reg.CourseID, reg.SemesterID).Allowed() {
		return errHttpForbidden
	}

	res, err := api.svc.EnterComponent(ctx.Request().Context(), reg.ID, data.Component, data.Value)
	if err != nil {
		return errors.Wrap(err, "entering grade component")
	}

	api.accessSvc.LogAction(ctx.Request().Context(), "UPDATE", "grades", reg.ID,
		fmt.Sprintf("%s=%g", data.Component, data.Value))
	return ctx.JSON(http.StatusOK, res)
}

func (api *gradeApi) studentGrades(ctx echo.Context) error {
	studentID := ctx.Param("studentID")

	ownRecord := api.accessSvc.IsOwnStudentID(studentID) && api.accessSvc.HasPermission(access.PermGradeViewOwn)
	if !ownRecord && !api.accessSvc.CanViewAllGrades() {
		return errHttpForbidden
	}

	grades, err := api.svc.StudentGrades(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying student grades")
	}
	if grades == nil {
		grades = []grade.StudentGrade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) studentGPA(ctx echo.Context) error {
	studentID := ctx.Param("studentID")

	ownRecord := api.accessSvc.IsOwnStudentID(studentID) && api.accessSvc.HasPermission(access.PermGradeViewOwn)
	if !ownRecord && !api.accessSvc.CanViewAllGrades() {
		return errHttpForbidden
	}

	var gpa float64
	var err error
	semesterID := ctx.QueryParam("semester_id")
	if semesterID != "" {
		gpa, err = api.svc.SemesterGPA(ctx.Request().Context(), studentID, semesterID)
	} else {
		gpa, err = api.svc.CGPA(ctx.Request().Context(), studentID)
	}
	if err != nil {
		return errors.Wrap(err, "computing GPA")
	}
	return ctx.JSON(http.StatusOK, GPAResponse{StudentID: studentID, SemesterID: semesterID, GPA: gpa})
}

func (api *gradeApi) assignedCourses(ctx echo.Context) error {
	ids := api.accessSvc.AssignedCourseIDs(ctx.Request().Context(), ctx.QueryParam("semester_id"))
	if ids == nil {
		ids = []string{}
	}
	return ctx.JSON(http.StatusOK, AssignedCoursesResponse{CourseIDs: ids})
}

type (
	EnterComponentRequest struct {
		Component string  `json:"component" validate:"required"`
		Value     float64 `json:"value"`
	}

	GPAResponse struct {
		StudentID  string  `json:"student_id"`
		SemesterID string  `json:"semester_id,omitempty"`
		GPA        float64 `json:"gpa"`
	}

	AssignedCoursesResponse struct {
		CourseIDs []string `json:"course_ids"`
	}
)

func (er *EnterComponentRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(er)
}
