package grade

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core"
)

var (
	// errors
	ErrRegistrationNotFound = errors.New("registration not found")
)

type (
	Repository interface {
		GetRegistration(ctx context.Context, registrationID string) (Registration, error)
		GetGradeByRegistrationID(ctx context.Context, registrationID string) (Grade, error)
		// DistributionForRegistration resolves the owning course's mark
		// distribution. Implementations fall back to the component-max sum
		// when the stored overall total is unset.
		DistributionForRegistration(ctx context.Context, registrationID string) (Distribution, error)
		WriteComponent(ctx context.Context, registrationID, component string, value float64) error
		WriteDerived(ctx context.Context, registrationID string, res Result) error
		RegistrationIDsForCourse(ctx context.Context, courseID, semesterID string) ([]string, error)
		GradesForCourse(ctx context.Context, courseID, semesterID string) ([]Grade, error)
		GradesForStudent(ctx context.Context, studentID string) ([]StudentGrade, error)
		// CreditedPoints returns (gpa point, credit hours) pairs for the
		// student's registrations, filtered to one semester when semesterID
		// is non-empty and to the given statuses when any are supplied.
		CreditedPoints(ctx context.Context, studentID, semesterID string, statuses []Status) ([]CreditedPoint, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Recompute is the single entry point that re-derives a grade's stored
// fields from its components and the course's current distribution.
// Every mutation path funnels through here; it is idempotent, so calling
// it with unchanged inputs rewrites the same values.
func (svc *Service) Recompute(ctx context.Context, registrationID string) (Result, error) {
	grd, err := svc.repo.GetGradeByRegistrationID(ctx, registrationID)
	if err != nil {
		return Result{}, errors.Wrap(err, "reading grade components")
	}
	dist, err := svc.repo.DistributionForRegistration(ctx, registrationID)
	if err != nil {
		return Result{}, errors.Wrap(err, "reading mark distribution")
	}

	res := Compute(grd.Components, dist)
	if err = svc.repo.WriteDerived(ctx, registrationID, res); err != nil {
		return Result{}, errors.Wrap(err, "writing derived grade fields")
	}
	return res, nil
}

// EnterComponent validates and stores one component score, then
// recomputes the derived fields. A failed validation happens before any
// write and leaves the stored grade untouched.
func (svc *Service) EnterComponent(ctx context.Context, registrationID, component string, value float64) (Result, error) {
	dist, err := svc.repo.DistributionForRegistration(ctx, registrationID)
	if err != nil {
		return Result{}, errors.Wrap(err, "reading mark distribution")
	}
	if err = ValidateComponent(dist, component, value); err != nil {
		return Result{}, err
	}

	if err = svc.repo.WriteComponent(ctx, registrationID, component, value); err != nil {
		return Result{}, errors.Wrap(err, "writing grade component")
	}
	return svc.Recompute(ctx, registrationID)
}

// Get returns one registration's grade, recomputed first so the derived
// fields reflect the current distribution.
func (svc *Service) Get(ctx context.Context, registrationID string) (Grade, error) {
	if _, err := svc.Recompute(ctx, registrationID); err != nil {
		return Grade{}, err
	}
	return svc.repo.GetGradeByRegistrationID(ctx, registrationID)
}

func (svc *Service) GetRegistration(ctx context.Context, registrationID string) (Registration, error) {
	return svc.repo.GetRegistration(ctx, registrationID)
}

// CourseGrades returns the gradebook for one course offering. Lazy pull
// model: every registration is recomputed before the read, so a course
// edit that changed max marks is reflected without an eager push from the
// course side.
func (svc *Service) CourseGrades(ctx context.Context, courseID, semesterID string) ([]Grade, error) {
	regIDs, err := svc.repo.RegistrationIDsForCourse(ctx, courseID, semesterID)
	if err != nil {
		return nil, errors.Wrap(err, "listing course registrations")
	}
	for _, id := range regIDs {
		if _, err = svc.Recompute(ctx, id); err != nil {
			return nil, errors.Wrapf(err, "recomputing grade for registration %s", id)
		}
	}
	return svc.repo.GradesForCourse(ctx, courseID, semesterID)
}

// StudentGrades returns a student's grades joined with course info.
func (svc *Service) StudentGrades(ctx context.Context, studentID string) ([]StudentGrade, error) {
	return svc.repo.GradesForStudent(ctx, studentID)
}

// SemesterGPA averages one semester's grade points weighted by credit
// hours; 0 with no credited registrations.
func (svc *Service) SemesterGPA(ctx context.Context, studentID, semesterID string) (float64, error) {
	points, err := svc.repo.CreditedPoints(ctx, studentID, semesterID, nil)
	if err != nil {
		return 0, errors.Wrap(err, "reading semester grade points")
	}
	return AggregateGPA(points), nil
}

// CGPA averages across all semesters, counting only registered and
// completed registrations.
func (svc *Service) CGPA(ctx context.Context, studentID string) (float64, error) {
	points, err := svc.repo.CreditedPoints(ctx, studentID, "", CountedStatuses)
	if err != nil {
		return 0, errors.Wrap(err, "reading cumulative grade points")
	}
	return AggregateGPA(points), nil
}
