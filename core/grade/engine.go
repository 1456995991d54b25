// Package grade implements the grade pipeline: pure derivation of
// totals, percentages, letter grades and GPA points from component
// scores, plus the service that keeps stored derived fields consistent
// with their sources.
package grade

import (
	"fmt"

	"github.com/mzalendo/daftari/core"
)

// Component names as stored in the grades table.
const (
	ComponentAssignment1 = "assignment1"
	ComponentAssignment2 = "assignment2"
	ComponentYearWork    = "year_work"
	ComponentFinalExam   = "final_exam"
)

type (
	// Components are the raw scores entered per registration.
	Components struct {
		Assignment1 float64 `json:"assignment1"`
		Assignment2 float64 `json:"assignment2"`
		YearWork    float64 `json:"year_work"`
		FinalExam   float64 `json:"final_exam"`
	}

	// Distribution is a course's mark configuration: the maximum for each
	// component and the overall total the percentage is computed against.
	Distribution struct {
		Assignment1Max float64 `json:"assignment1_max"`
		Assignment2Max float64 `json:"assignment2_max"`
		YearWorkMax    float64 `json:"year_work_max"`
		FinalExamMax   float64 `json:"final_exam_max"`
		TotalMax       float64 `json:"total_max"`
	}

	// Result holds every derived grade field.
	Result struct {
		Total      float64 `json:"total"`
		Percentage float64 `json:"percentage"`
		Evaluation string  `json:"evaluation"`
		Letter     string  `json:"letter_grade"`
		GPA        float64 `json:"gpa"`
	}

	// CreditedPoint pairs a course's GPA point with its credit hours for
	// aggregation.
	CreditedPoint struct {
		Point       float64
		CreditHours float64
	}
)

func (c Components) Total() float64 {
	return c.Assignment1 + c.Assignment2 + c.YearWork + c.FinalExam
}

// MaxFor returns the configured maximum for the named component; ok is
// false for unknown names.
func (d Distribution) MaxFor(component string) (max float64, ok bool) {
	switch component {
	case ComponentAssignment1:
		return d.Assignment1Max, true
	case ComponentAssignment2:
		return d.Assignment2Max, true
	case ComponentYearWork:
		return d.YearWorkMax, true
	case ComponentFinalExam:
		return d.FinalExamMax, true
	}
	return 0, false
}

// Validate enforces the course-configuration rule: when all four
// component maxima are set (> 0), they must add up to TotalMax. Runs at
// course create/update time, not at grade entry.
func (d Distribution) Validate() error {
	if d.Assignment1Max > 0 && d.Assignment2Max > 0 && d.YearWorkMax > 0 && d.FinalExamMax > 0 {
		if sum := d.Assignment1Max + d.Assignment2Max + d.YearWorkMax + d.FinalExamMax; sum != d.TotalMax {
			return core.NewValidationError(nil, core.FieldError{
				Field: "total_max",
				Error: fmt.Sprintf("component maximums add up to %g, not the configured total %g", sum, d.TotalMax),
			})
		}
	}
	return nil
}

// Grading tiers; lower bounds inclusive.

func EvaluationFrom(percentage float64) string {
	switch {
	case percentage >= 85:
		return "Excellent"
	case percentage >= 75:
		return "Very Good"
	case percentage >= 65:
		return "Good"
	case percentage >= 60:
		return "Pass"
	}
	return "Fail"
}

func LetterFrom(percentage float64) string {
	switch {
	case percentage >= 85:
		return "A"
	case percentage >= 75:
		return "B"
	case percentage >= 65:
		return "C"
	case percentage >= 60:
		return "D"
	}
	return "F"
}

func PointFrom(percentage float64) float64 {
	switch {
	case percentage >= 85:
		return 4.0
	case percentage >= 75:
		return 3.0
	case percentage >= 65:
		return 2.0
	case percentage >= 60:
		return 1.0
	}
	return 0.0
}

// Compute derives every grade field from component scores under the
// given distribution. Deterministic; never fails for numeric input.
func Compute(c Components, d Distribution) Result {
	total := c.Total()

	var percentage float64
	if d.TotalMax > 0 {
		percentage = total / d.TotalMax * 100.0
	}

	return Result{
		Total:      total,
		Percentage: percentage,
		Evaluation: EvaluationFrom(percentage),
		Letter:     LetterFrom(percentage),
		GPA:        PointFrom(percentage),
	}
}

// ValidateComponent checks a proposed score against the distribution.
// It must run before any write; the reasons come back as a
// core.ValidationError, never a panic.
func ValidateComponent(d Distribution, component string, value float64) error {
	max, ok := d.MaxFor(component)
	if !ok {
		return core.NewValidationError(nil, core.FieldError{
			Field: "component",
			Error: fmt.Sprintf("unknown grade component %q", component),
		})
	}
	if value < 0 {
		return core.NewValidationError(nil, core.FieldError{
			Field: component,
			Error: "score cannot be negative",
		})
	}
	if value > max {
		return core.NewValidationError(nil, core.FieldError{
			Field: component,
			Error: fmt.Sprintf("score cannot exceed %.1f", max),
		})
	}
	return nil
}

// AggregateGPA computes the credit-hour weighted grade point average.
// Zero total credit hours yields 0, never a division by zero.
func AggregateGPA(points []CreditedPoint) float64 {
	var totalPoints, totalCredits float64
	for _, p := range points {
		totalPoints += p.Point * p.CreditHours
		totalCredits += p.CreditHours
	}
	if totalCredits <= 0 {
		return 0
	}
	return totalPoints / totalCredits
}
