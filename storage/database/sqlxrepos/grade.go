package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core/grade"
)

type (
	gradeRow struct {
		ID             string  `db:"id"`
		RegistrationID string  `db:"registration_id"`
		Assignment1    float64 `db:"assignment1"`
		Assignment2    float64 `db:"assignment2"`
		YearWork       float64 `db:"year_work"`
		FinalExam      float64 `db:"final_exam"`
		Total          float64 `db:"total"`
		Percentage     float64 `db:"percentage"`
		Evaluation     string  `db:"evaluation"`
		Letter         string  `db:"letter_grade"`
		GPA            float64 `db:"gpa"`
	}

	studentGradeRow struct {
		gradeRow
		CourseID    string  `db:"course_id"`
		CourseCode  string  `db:"course_code"`
		CourseName  string  `db:"course_name"`
		SemesterID  string  `db:"semester_id"`
		CreditHours float64 `db:"credit_hours"`
		Status      string  `db:"status"`
	}
)

func (row gradeRow) toGrade() grade.Grade {
	return grade.Grade{
		ID:             row.ID,
		RegistrationID: row.RegistrationID,
		Components: grade.Components{
			Assignment1: row.Assignment1,
			Assignment2: row.Assignment2,
			YearWork:    row.YearWork,
			FinalExam:   row.FinalExam,
		},
		Result: grade.Result{
			Total:      row.Total,
			Percentage: row.Percentage,
			Evaluation: row.Evaluation,
			Letter:     row.Letter,
			GPA:        row.GPA,
		},
	}
}

const selectGrade = `
SELECT g.id, g.registration_id, g.assignment1, g.assignment2, g.year_work, g.final_exam,
       g.total, g.percentage, g.evaluation, g.letter_grade, g.gpa
FROM grades g`

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) GetRegistration(ctx context.Context, registrationID string) (grade.Registration, error) {
	var row struct {
		ID         string `db:"id"`
		StudentID  string `db:"student_id"`
		CourseID   string `db:"course_id"`
		SemesterID string `db:"semester_id"`
		Status     string `db:"status"`
	}
	err := repo.db.GetContext(ctx, &row, `
SELECT id, student_id, course_id, semester_id, status
FROM registrations WHERE id = $1`, registrationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return grade.Registration{}, grade.ErrRegistrationNotFound
		}
		return grade.Registration{}, errors.Wrap(err, "getting registration")
	}
	return grade.Registration{
		ID:         row.ID,
		StudentID:  row.StudentID,
		CourseID:   row.CourseID,
		SemesterID: row.SemesterID,
		Status:     grade.Status(row.Status),
	}, nil
}

func (repo *gradeRepository) GetGradeByRegistrationID(ctx context.Context, registrationID string) (grade.Grade, error) {
	var row gradeRow
	err := repo.db.GetContext(ctx, &row, selectGrade+` WHERE g.registration_id = $1`, registrationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return grade.Grade{}, grade.ErrRegistrationNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "getting grade")
	}
	return row.toGrade(), nil
}

func (repo *gradeRepository) DistributionForRegistration(ctx context.Context, registrationID string) (grade.Distribution, error) {
	var row struct {
		Assignment1Max float64 `db:"assignment1_max"`
		Assignment2Max float64 `db:"assignment2_max"`
		YearWorkMax    float64 `db:"year_work_max"`
		FinalExamMax   float64 `db:"final_exam_max"`
		TotalMax       float64 `db:"total_max"`
	}
	err := repo.db.GetContext(ctx, &row, `
SELECT c.assignment1_max, c.assignment2_max, c.year_work_max, c.final_exam_max, c.total_max
FROM courses c
JOIN registrations r ON r.course_id = c.id
WHERE r.id = $1`, registrationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return grade.Distribution{}, grade.ErrRegistrationNotFound
		}
		return grade.Distribution{}, errors.Wrap(err, "getting mark distribution")
	}

	dist := grade.Distribution{
		Assignment1Max: row.Assignment1Max,
		Assignment2Max: row.Assignment2Max,
		YearWorkMax:    row.YearWorkMax,
		FinalExamMax:   row.FinalExamMax,
		TotalMax:       row.TotalMax,
	}
	// legacy rows may carry an unset overall total
	if dist.TotalMax <= 0 {
		dist.TotalMax = dist.Assignment1Max + dist.Assignment2Max + dist.YearWorkMax + dist.FinalExamMax
	}
	return dist, nil
}

// componentColumns whitelists the updatable score columns; the component
// name travels in from the API and must never be spliced into SQL raw.
var componentColumns = map[string]string{
	grade.ComponentAssignment1: "assignment1",
	grade.ComponentAssignment2: "assignment2",
	grade.ComponentYearWork:    "year_work",
	grade.ComponentFinalExam:   "final_exam",
}

func (repo *gradeRepository) WriteComponent(ctx context.Context, registrationID, component string, value float64) error {
	column, ok := componentColumns[component]
	if !ok {
		return errors.Errorf("unknown grade component %q", component)
	}

	res, err := repo.db.ExecContext(ctx,
		`UPDATE grades SET `+column+` = $1 WHERE registration_id = $2`, value, registrationID)
	if err != nil {
		return errors.Wrap(err, "writing grade component")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "writing grade component")
	}
	if n == 0 {
		return grade.ErrRegistrationNotFound
	}
	return nil
}

func (repo *gradeRepository) WriteDerived(ctx context.Context, registrationID string, res grade.Result) error {
	result, err := repo.db.ExecContext(ctx, `
UPDATE grades
SET total = $1, percentage = $2, evaluation = $3, letter_grade = $4, gpa = $5
WHERE registration_id = $6`,
		res.Total, res.Percentage, res.Evaluation, res.Letter, res.GPA, registrationID)
	if err != nil {
		return errors.Wrap(err, "writing derived grade fields")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "writing derived grade fields")
	}
	if n == 0 {
		return grade.ErrRegistrationNotFound
	}
	return nil
}

func (repo *gradeRepository) RegistrationIDsForCourse(ctx context.Context, courseID, semesterID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids, `
SELECT id FROM registrations WHERE course_id = $1 AND semester_id = $2`, courseID, semesterID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course registrations")
	}
	return ids, nil
}

func (repo *gradeRepository) GradesForCourse(ctx context.Context, courseID, semesterID string) ([]grade.Grade, error) {
	var rows []gradeRow
	err := repo.db.SelectContext(ctx, &rows, selectGrade+`
JOIN registrations r ON r.id = g.registration_id
WHERE r.course_id = $1 AND r.semester_id = $2`, courseID, semesterID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course grades")
	}

	grades := make([]grade.Grade, len(rows))
	for i, row := range rows {
		grades[i] = row.toGrade()
	}
	return grades, nil
}

func (repo *gradeRepository) GradesForStudent(ctx context.Context, studentID string) ([]grade.StudentGrade, error) {
	var rows []studentGradeRow
	err := repo.db.SelectContext(ctx, &rows, `
SELECT g.id, g.registration_id, g.assignment1, g.assignment2, g.year_work, g.final_exam,
       g.total, g.percentage, g.evaluation, g.letter_grade, g.gpa,
       r.course_id, c.code AS course_code, c.name AS course_name,
       r.semester_id, c.credit_hours, r.status
FROM grades g
JOIN registrations r ON r.id = g.registration_id
JOIN courses c ON c.id = r.course_id
WHERE r.student_id = $1
ORDER BY r.semester_id, c.code`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student grades")
	}

	grades := make([]grade.StudentGrade, len(rows))
	for i, row := range rows {
		grades[i] = grade.StudentGrade{
			Grade:       row.toGrade(),
			CourseID:    row.CourseID,
			CourseCode:  row.CourseCode,
			CourseName:  row.CourseName,
			SemesterID:  row.SemesterID,
			CreditHours: row.CreditHours,
			Status:      grade.Status(row.Status),
		}
	}
	return grades, nil
}

func (repo *gradeRepository) CreditedPoints(ctx context.Context, studentID, semesterID string, statuses []grade.Status) ([]grade.CreditedPoint, error) {
	query := `
SELECT g.gpa AS point, c.credit_hours AS credit_hours
FROM grades g
JOIN registrations r ON r.id = g.registration_id
JOIN courses c ON c.id = r.course_id
WHERE r.student_id = ?`
	args := []interface{}{studentID}

	if semesterID != "" {
		query += ` AND r.semester_id = ?`
		args = append(args, semesterID)
	}
	if len(statuses) > 0 {
		query += ` AND r.status IN (?)`
		args = append(args, statuses)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building grade points query")
	}

	var points []grade.CreditedPoint
	type pointRow struct {
		Point       float64 `db:"point"`
		CreditHours float64 `db:"credit_hours"`
	}
	var rows []pointRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying grade points")
	}
	for _, row := range rows {
		points = append(points, grade.CreditedPoint{Point: row.Point, CreditHours: row.CreditHours})
	}
	return points, nil
}
