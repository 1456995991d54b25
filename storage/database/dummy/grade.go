package dummydb

import (
	"context"

	"github.com/mzalendo/daftari/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) GetRegistration(_ context.Context, registrationID string) (grade.Registration, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if reg, ok := repo.db.registrations[registrationID]; ok {
		return *reg, nil
	}
	return grade.Registration{}, grade.ErrRegistrationNotFound
}

func (repo *gradeRepository) GetGradeByRegistrationID(_ context.Context, registrationID string) (grade.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if grd, ok := repo.db.grades[registrationID]; ok {
		return *grd, nil
	}
	return grade.Grade{}, grade.ErrRegistrationNotFound
}

func (repo *gradeRepository) DistributionForRegistration(_ context.Context, registrationID string) (grade.Distribution, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	reg, ok := repo.db.registrations[registrationID]
	if !ok {
		return grade.Distribution{}, grade.ErrRegistrationNotFound
	}
	crs, ok := repo.db.courses[reg.CourseID]
	if !ok {
		return grade.Distribution{}, grade.ErrRegistrationNotFound
	}

	dist := crs.Distribution
	if dist.TotalMax <= 0 {
		dist.TotalMax = dist.Assignment1Max + dist.Assignment2Max + dist.YearWorkMax + dist.FinalExamMax
	}
	return dist, nil
}

func (repo *gradeRepository) WriteComponent(_ context.Context, registrationID, component string, value float64) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	grd, ok := repo.db.grades[registrationID]
	if !ok {
		return grade.ErrRegistrationNotFound
	}
	switch component {
	case grade.ComponentAssignment1:
		grd.Assignment1 = value
	case grade.ComponentAssignment2:
		grd.Assignment2 = value
	case grade.ComponentYearWork:
		grd.YearWork = value
	case grade.ComponentFinalExam:
		grd.FinalExam = value
	default:
		return grade.ErrRegistrationNotFound
	}
	return nil
}

func (repo *gradeRepository) WriteDerived(_ context.Context, registrationID string, res grade.Result) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	grd, ok := repo.db.grades[registrationID]
	if !ok {
		return grade.ErrRegistrationNotFound
	}
	grd.Result = res
	return nil
}

func (repo *gradeRepository) RegistrationIDsForCourse(_ context.Context, courseID, semesterID string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ids []string
	for _, reg := range repo.db.registrations {
		if reg.CourseID == courseID && reg.SemesterID == semesterID {
			ids = append(ids, reg.ID)
		}
	}
	return ids, nil
}

func (repo *gradeRepository) GradesForCourse(_ context.Context, courseID, semesterID string) ([]grade.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var grades []grade.Grade
	for _, reg := range repo.db.registrations {
		if reg.CourseID != courseID || reg.SemesterID != semesterID {
			continue
		}
		if grd, ok := repo.db.grades[reg.ID]; ok {
			grades = append(grades, *grd)
		}
	}
	return grades, nil
}

func (repo *gradeRepository) GradesForStudent(_ context.Context, studentID string) ([]grade.StudentGrade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var grades []grade.StudentGrade
	for _, reg := range repo.db.registrations {
		if reg.StudentID != studentID {
			continue
		}
		grd, ok := repo.db.grades[reg.ID]
		if !ok {
			continue
		}
		row := grade.StudentGrade{
			Grade:      *grd,
			CourseID:   reg.CourseID,
			SemesterID: reg.SemesterID,
			Status:     reg.Status,
		}
		if crs, ok := repo.db.courses[reg.CourseID]; ok {
			row.CreditHours = crs.CreditHours
		}
		grades = append(grades, row)
	}
	return grades, nil
}

func (repo *gradeRepository) CreditedPoints(_ context.Context, studentID, semesterID string, statuses []grade.Status) ([]grade.CreditedPoint, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var points []grade.CreditedPoint
	for _, reg := range repo.db.registrations {
		if reg.StudentID != studentID {
			continue
		}
		if semesterID != "" && reg.SemesterID != semesterID {
			continue
		}
		if len(statuses) > 0 && !statusIn(reg.Status, statuses) {
			continue
		}
		grd, ok := repo.db.grades[reg.ID]
		if !ok {
			continue
		}
		crs, ok := repo.db.courses[reg.CourseID]
		if !ok {
			continue
		}
		points = append(points, grade.CreditedPoint{Point: grd.GPA, CreditHours: crs.CreditHours})
	}
	return points, nil
}

func statusIn(s grade.Status, in []grade.Status) bool {
	for _, st := range in {
		if s == st {
			return true
		}
	}
	return false
}
