package grade_test

import (
	"context"
	"testing"

	"github.com/mzalendo/daftari/core"
	"github.com/mzalendo/daftari/core/grade"
	dummydb "github.com/mzalendo/daftari/storage/database/dummy"
	testutil "github.com/mzalendo/daftari/tests"
)

var standardDist = grade.Distribution{
	Assignment1Max: 10,
	Assignment2Max: 10,
	YearWorkMax:    20,
	FinalExamMax:   60,
	TotalMax:       100,
}

func newGradeService(db *dummydb.DB) *grade.Service {
	return grade.NewService(dummydb.NewGradeRepository(db), testutil.NopLogger{})
}

func TestServiceEnterComponent(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	db.SetCourse("CRS1", standardDist, 3)
	reg := db.AddRegistration(grade.Registration{StudentID: "STU1", CourseID: "CRS1", SemesterID: "SEM1"})
	svc := newGradeService(db)

	res, err := svc.EnterComponent(ctx, reg.ID, grade.ComponentFinalExam, 55)
	if err != nil {
		t.Fatalf("EnterComponent() failed: %v", err)
	}
	if res.Total != 55 || res.Letter != "F" {
		t.Errorf("unexpected result %+v", res)
	}

	res, err = svc.EnterComponent(ctx, reg.ID, grade.ComponentYearWork, 18)
	if err != nil {
		t.Fatalf("EnterComponent() failed: %v", err)
	}
	if res.Total != 73 || res.Evaluation != "Good" || res.Letter != "C" || res.GPA != 2.0 {
		t.Errorf("unexpected result %+v", res)
	}

	// unknown registration
	if _, err = svc.EnterComponent(ctx, "nope", grade.ComponentFinalExam, 10); err == nil {
		t.Error("expected an error for an unknown registration")
	}
}

func TestServiceEnterComponentRejectedBeforeWrite(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	db.SetCourse("CRS1", standardDist, 3)
	reg := db.AddRegistration(grade.Registration{StudentID: "STU1", CourseID: "CRS1", SemesterID: "SEM1"})
	svc := newGradeService(db)

	if _, err := svc.EnterComponent(ctx, reg.ID, grade.ComponentAssignment1, 8); err != nil {
		t.Fatalf("EnterComponent() failed: %v", err)
	}

	_, err := svc.EnterComponent(ctx, reg.ID, grade.ComponentAssignment1, 10.5)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("expected *core.ValidationError, got %T", err)
	}

	// the rejected score must not have reached the store
	grd, err := svc.Get(ctx, reg.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if grd.Components.Assignment1 != 8 {
		t.Errorf("stored assignment1 = %g, expected the previous 8", grd.Components.Assignment1)
	}
}

func TestServiceRecomputeIdempotent(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	db.SetCourse("CRS1", standardDist, 3)
	reg := db.AddRegistration(grade.Registration{StudentID: "STU1", CourseID: "CRS1", SemesterID: "SEM1"})
	svc := newGradeService(db)

	if _, err := svc.EnterComponent(ctx, reg.ID, grade.ComponentFinalExam, 60); err != nil {
		t.Fatalf("EnterComponent() failed: %v", err)
	}

	first, err := svc.Recompute(ctx, reg.ID)
	if err != nil {
		t.Fatalf("Recompute() failed: %v", err)
	}
	second, err := svc.Recompute(ctx, reg.ID)
	if err != nil {
		t.Fatalf("Recompute() failed: %v", err)
	}
	if first != second {
		t.Errorf("Recompute() not idempotent: %+v then %+v", first, second)
	}
}

func TestServiceCourseGradesReflectDistributionChange(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	db.SetCourse("CRS1", standardDist, 3)
	reg := db.AddRegistration(grade.Registration{StudentID: "STU1", CourseID: "CRS1", SemesterID: "SEM1"})
	svc := newGradeService(db)

	if _, err := svc.EnterComponent(ctx, reg.ID, grade.ComponentFinalExam, 60); err != nil {
		t.Fatalf("EnterComponent() failed: %v", err)
	}
	if _, err := svc.EnterComponent(ctx, reg.ID, grade.ComponentYearWork, 20); err != nil {
		t.Fatalf("EnterComponent() failed: %v", err)
	}

	grades, err := svc.CourseGrades(ctx, "CRS1", "SEM1")
	if err != nil {
		t.Fatalf("CourseGrades() failed: %v", err)
	}
	if len(grades) != 1 || grades[0].Percentage != 80 {
		t.Fatalf("unexpected gradebook %+v", grades)
	}

	// doubling the course total halves every percentage on the next read,
	// without any explicit recompute call
	wider := standardDist
	wider.TotalMax = 200
	wider.FinalExamMax = 160
	db.SetCourse("CRS1", wider, 3)

	grades, err = svc.CourseGrades(ctx, "CRS1", "SEM1")
	if err != nil {
		t.Fatalf("CourseGrades() failed: %v", err)
	}
	if grades[0].Percentage != 40 {
		t.Errorf("percentage = %g after distribution change, expected 40", grades[0].Percentage)
	}
	if grades[0].Letter != "F" {
		t.Errorf("letter = %q after distribution change, expected F", grades[0].Letter)
	}
}

func TestServiceGPA(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	db.SetCourse("CRS1", standardDist, 3) // will score 90 -> 4.0
	db.SetCourse("CRS2", standardDist, 2) // will score 70 -> 2.0
	db.SetCourse("CRS3", standardDist, 4) // dropped, must not count toward CGPA

	reg1 := db.AddRegistration(grade.Registration{StudentID: "STU1", CourseID: "CRS1", SemesterID: "SEM1"})
	reg2 := db.AddRegistration(grade.Registration{StudentID: "STU1", CourseID: "CRS2", SemesterID: "SEM1", Status: grade.StatusCompleted})
	reg3 := db.AddRegistration(grade.Registration{StudentID: "STU1", CourseID: "CRS3", SemesterID: "SEM2", Status: grade.StatusDropped})

	svc := newGradeService(db)
	// score reg1 at 90, reg2 at 70, reg3 at 100
	seed := func(regID string, a1, a2, yw, fe float64) {
		t.Helper()
		for _, c := range []struct {
			name  string
			value float64
		}{
			{grade.ComponentAssignment1, a1},
			{grade.ComponentAssignment2, a2},
			{grade.ComponentYearWork, yw},
			{grade.ComponentFinalExam, fe},
		} {
			if _, err := svc.EnterComponent(ctx, regID, c.name, c.value); err != nil {
				t.Fatalf("EnterComponent() failed: %v", err)
			}
		}
	}
	seed(reg1.ID, 10, 10, 20, 50)
	seed(reg2.ID, 8, 8, 14, 40)
	seed(reg3.ID, 10, 10, 20, 60)

	gpa, err := svc.SemesterGPA(ctx, "STU1", "SEM1")
	if err != nil {
		t.Fatalf("SemesterGPA() failed: %v", err)
	}
	// (4.0*3 + 2.0*2) / 5
	if expected := 16.0 / 5; gpa != expected {
		t.Errorf("SemesterGPA() = %g, expected %g", gpa, expected)
	}

	cgpa, err := svc.CGPA(ctx, "STU1")
	if err != nil {
		t.Fatalf("CGPA() failed: %v", err)
	}
	// the dropped SEM2 registration is excluded, so CGPA equals the SEM1 GPA
	if expected := 16.0 / 5; cgpa != expected {
		t.Errorf("CGPA() = %g, expected %g", cgpa, expected)
	}

	// student with no registrations
	gpa, err = svc.CGPA(ctx, "STU2")
	if err != nil {
		t.Fatalf("CGPA() failed: %v", err)
	}
	if gpa != 0 {
		t.Errorf("CGPA() = %g for an unknown student, expected 0", gpa)
	}
}

func TestServiceStudentGrades(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	db.SetCourse("CRS1", standardDist, 3)
	reg := db.AddRegistration(grade.Registration{StudentID: "STU1", CourseID: "CRS1", SemesterID: "SEM1"})
	svc := newGradeService(db)

	if _, err := svc.EnterComponent(ctx, reg.ID, grade.ComponentFinalExam, 45); err != nil {
		t.Fatalf("EnterComponent() failed: %v", err)
	}

	rows, err := svc.StudentGrades(ctx, "STU1")
	if err != nil {
		t.Fatalf("StudentGrades() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].CourseID != "CRS1" || rows[0].CreditHours != 3 {
		t.Errorf("unexpected row %+v", rows[0])
	}
}
