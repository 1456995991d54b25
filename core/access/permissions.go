// Package access implements the role-based access control core: the
// permission catalog, the single-seat session and every authorization
// decision the rest of the system relies on.
package access

// Permission names. These are stable identifiers persisted in the
// permissions table; renaming one is a data migration.
const (
	// System
	PermSystemSettings = "system.settings"
	PermSystemLogs     = "system.logs"
	PermUserManage     = "user.manage"

	// Students
	PermStudentCreate  = "student.create"
	PermStudentViewAll = "student.view"
	PermStudentViewOwn = "student.view.own"
	PermStudentEdit    = "student.edit"
	PermStudentDelete  = "student.delete"

	// Professors
	PermProfessorCreate = "professor.create"
	PermProfessorView   = "professor.view"
	PermProfessorEdit   = "professor.edit"
	PermProfessorDelete = "professor.delete"

	// Courses
	PermCourseCreate = "course.create"
	PermCourseView   = "course.view"
	PermCourseEdit   = "course.edit"
	PermCourseDelete = "course.delete"
	PermCourseAssign = "course.assign"

	// Registrations
	PermRegistrationCreate = "registration.create"
	PermRegistrationView   = "registration.view"
	PermRegistrationEdit   = "registration.edit"
	PermRegistrationDelete = "registration.delete"

	// Grades
	PermGradeViewAll      = "grade.view.all"
	PermGradeViewOwn      = "grade.view.own"
	PermGradeViewAssigned = "grade.view.assigned"
	PermGradeEnter        = "grade.enter"

	// Attendance
	PermAttendanceViewAll = "attendance.view.all"
	PermAttendanceViewOwn = "attendance.view.own"
	PermAttendanceRecord  = "attendance.record"

	// Fees & payments
	PermFeeView       = "fee.view"
	PermFeeCreate     = "fee.create"
	PermFeeEdit       = "fee.edit"
	PermFeeDelete     = "fee.delete"
	PermPaymentCreate = "payment.create"
	PermPaymentView   = "payment.view"

	// Password viewing
	PermPasswordViewAll     = "password.view.all"
	PermPasswordViewStudent = "password.view.student"

	// Role management
	PermRoleManage = "role.manage"
)

// ExclusivePermissions may only ever be mapped to the Super Admin role.
// Role-permission updates must reject the whole batch if any of these is
// proposed for another role.
var ExclusivePermissions = []string{
	PermUserManage,
	PermRoleManage,
	PermPasswordViewAll,
	PermSystemSettings,
	PermSystemLogs,
	PermFeeDelete,
}

// IsExclusive reports whether the named permission is reserved for the
// Super Admin role. Pure; no I/O.
func IsExclusive(name string) bool {
	for _, p := range ExclusivePermissions {
		if p == name {
			return true
		}
	}
	return false
}
