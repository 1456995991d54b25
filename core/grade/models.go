package grade

// Registration status values.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusDropped    Status = "dropped"
	StatusCompleted  Status = "completed"
)

// GPA-bearing statuses: dropped registrations carry no weight in the
// cumulative average.
var CountedStatuses = []Status{StatusRegistered, StatusCompleted}

type (
	// Registration links a student, a course and a semester. Each owns
	// exactly one Grade row, created with zero scores alongside it.
	Registration struct {
		ID         string `json:"id"`
		StudentID  string `json:"student_id"`
		CourseID   string `json:"course_id"`
		SemesterID string `json:"semester_id"`
		Status     Status `json:"status"`
	}

	// Grade is one registration's scores plus the derived fields last
	// written by Recompute. The derived fields are a cache, never ground
	// truth: they must be recomputed before being read whenever a
	// component or the course's mark distribution may have changed.
	Grade struct {
		ID             string `json:"id"`
		RegistrationID string `json:"registration_id"`
		Components
		Result
	}

	// StudentGrade is a report row: a grade joined with its course info.
	StudentGrade struct {
		Grade
		CourseID    string  `json:"course_id"`
		CourseCode  string  `json:"course_code"`
		CourseName  string  `json:"course_name"`
		SemesterID  string  `json:"semester_id"`
		CreditHours float64 `json:"credit_hours"`
		Status      Status  `json:"status"`
	}
)
