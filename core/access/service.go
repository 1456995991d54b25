package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core"
	"github.com/mzalendo/daftari/core/account"
)

var (
	// ErrAuthenticationFailed covers unknown username, wrong password and
	// deactivated accounts alike; callers get one indistinguishable answer.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

type (
	// IdentityRepository is the external identity store.
	IdentityRepository interface {
		GetActiveAccountByUsername(ctx context.Context, username string) (account.Account, error)
		TouchLastLogin(ctx context.Context, userID string) error
	}

	// PermissionRepository resolves the role -> permission mapping.
	PermissionRepository interface {
		PermissionsForRole(ctx context.Context, roleID string) ([]string, error)
	}

	// LinkedEntityRepository resolves the professor/student record owned
	// by an account. Implementations return "" (not an error) when the
	// account owns none.
	LinkedEntityRepository interface {
		ProfessorIDForUser(ctx context.Context, userID string) (string, error)
		StudentIDForUser(ctx context.Context, userID string) (string, error)
	}

	// AssignmentRepository answers professor/course/semester scoping queries.
	AssignmentRepository interface {
		IsProfessorAssigned(ctx context.Context, professorID, courseID, semesterID string) (bool, error)
		AssignedCourseIDs(ctx context.Context, professorID, semesterID string) ([]string, error)
	}

	AuditEntry struct {
		UserID   string
		Action   string
		Table    string
		RecordID string
		Details  string
		At       time.Time
	}

	// AuditLog is a best-effort sink; Append failures never reach callers
	// of LogAction.
	AuditLog interface {
		AppendAuditEntry(ctx context.Context, entry AuditEntry) error
	}

	// Repository bundles every collaborator the Service consumes; the
	// sqlx and in-memory stores implement the whole set.
	Repository interface {
		IdentityRepository
		PermissionRepository
		LinkedEntityRepository
		AssignmentRepository
		AuditLog
	}

	// Service owns the session slot and answers all authorization queries.
	// It is the single choke point: nothing else in the system decides
	// whether an operation is permitted.
	Service struct {
		mu      sync.Mutex
		session Session

		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Session returns a copy of the current session.
func (svc *Service) Session() Session {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.session.clone()
}

func (svc *Service) IsLoggedIn() bool {
	return svc.Session().LoggedIn
}

// Login authenticates the given credentials and, on success, replaces the
// session slot. A failed login leaves the current session untouched.
// Credential mismatch, unknown user and inactive account all surface as
// ErrAuthenticationFailed; only storage faults surface as other errors.
func (svc *Service) Login(ctx context.Context, username, password string) (Session, error) {
	uname := core.CleanString(username, true /* lower */)

	acct, err := svc.repo.GetActiveAccountByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return Session{}, ErrAuthenticationFailed
		}
		return Session{}, errors.Wrap(err, "finding account by username")
	}
	if err = acct.CheckPassword(password); err != nil {
		return Session{}, ErrAuthenticationFailed
	}

	sess := Session{
		UserID:   acct.ID,
		Username: acct.Username,
		FullName: acct.FullName,
		Role:     Role{ID: acct.RoleID, Name: acct.RoleName, Kind: KindOfRole(acct.RoleID)},
		LoggedIn: true,
	}
	sess.Permissions = svc.loadPermissions(ctx, acct.RoleID)

	switch sess.Role.Kind {
	case KindProfessor:
		sess.LinkedID, err = svc.repo.ProfessorIDForUser(ctx, acct.ID)
	case KindStudent:
		sess.LinkedID, err = svc.repo.StudentIDForUser(ctx, acct.ID)
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "resolving linked entity")
	}

	if err = svc.repo.TouchLastLogin(ctx, acct.ID); err != nil {
		return Session{}, errors.Wrap(err, "updating last login")
	}

	svc.mu.Lock()
	svc.session = sess
	svc.mu.Unlock()

	svc.logger.Info(fmt.Sprintf("session opened: %s (%s)", sess.Username, sess.Role.Name))
	return sess.clone(), nil
}

// Logout wipes the session slot back to the zero value. The permission
// set and linked ID are discarded, not flagged off, so nothing stale can
// leak into a later check.
func (svc *Service) Logout() {
	svc.mu.Lock()
	uname := svc.session.Username
	svc.session = Session{}
	svc.mu.Unlock()

	if uname != "" {
		svc.logger.Info(fmt.Sprintf("session closed: %s", uname))
	}
}

// loadPermissions resolves the role's permission set. Fail-closed: any
// lookup error yields the empty set.
func (svc *Service) loadPermissions(ctx context.Context, roleID string) map[string]struct{} {
	perms := make(map[string]struct{})
	names, err := svc.repo.PermissionsForRole(ctx, roleID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("loading permissions for role %s: treating as none", roleID), err)
		return perms
	}
	for _, n := range names {
		perms[n] = struct{}{}
	}
	return perms
}

// HasPermission reports whether the active session holds the named
// permission. Super Admin short-circuits to true for every name,
// granted or not.
func (svc *Service) HasPermission(name string) bool {
	sess := svc.Session()
	if sess.IsSuperAdmin() {
		return true
	}
	return sess.HasPermission(name)
}

// Named permission aliases, so call sites read as policy.

func (svc *Service) CanViewAllStudents() bool { return svc.HasPermission(PermStudentViewAll) }

func (svc *Service) CanEditStudents() bool {
	return svc.HasPermission(PermStudentCreate) || svc.HasPermission(PermStudentEdit)
}

func (svc *Service) CanViewAllGrades() bool { return svc.HasPermission(PermGradeViewAll) }

func (svc *Service) CanEnterGrades() bool { return svc.HasPermission(PermGradeEnter) }

func (svc *Service) CanViewAssignedCourses() bool {
	return svc.HasPermission(PermGradeViewAssigned)
}

func (svc *Service) CanRecordAttendance() bool { return svc.HasPermission(PermAttendanceRecord) }

func (svc *Service) CanManageUsers() bool { return svc.HasPermission(PermUserManage) }

func (svc *Service) CanManageRoles() bool { return svc.HasPermission(PermRoleManage) }

// CanAccessCourse is the scoping rule keeping a professor inside their
// assigned courses. Administrative sessions pass unconditionally; a
// professor passes only on an exact (professor, course, semester)
// assignment match; everyone else is denied.
func (svc *Service) CanAccessCourse(ctx context.Context, courseID, semesterID string) Decision {
	sess := svc.Session()

	if sess.IsAdmin() {
		return Granted
	}

	if sess.IsProfessor() && sess.LinkedID != "" {
		ok, err := svc.repo.IsProfessorAssigned(ctx, sess.LinkedID, courseID, semesterID)
		if err != nil {
			svc.logger.Error("checking course assignment", err)
			return DeniedOnError
		}
		if ok {
			return Granted
		}
	}

	return Denied
}

// AssignedCourseIDs lists the courses assigned to the session's
// professor, optionally narrowed to one semester. Empty for
// non-professor sessions and on lookup error.
func (svc *Service) AssignedCourseIDs(ctx context.Context, semesterID string) []string {
	sess := svc.Session()
	if !sess.IsProfessor() || sess.LinkedID == "" {
		return nil
	}

	ids, err := svc.repo.AssignedCourseIDs(ctx, sess.LinkedID, semesterID)
	if err != nil {
		svc.logger.Error("listing assigned courses", err)
		return nil
	}
	return ids
}

// IsOwnStudentID reports whether the session belongs to the student who
// owns the given record. Scopes self-service views.
func (svc *Service) IsOwnStudentID(studentID string) bool {
	sess := svc.Session()
	return sess.IsStudent() && sess.LinkedID != "" && sess.LinkedID == studentID
}

// LogAction appends an audit entry for the active session. Best-effort:
// a failed append is logged and swallowed so it can never abort the
// caller's primary operation.
func (svc *Service) LogAction(ctx context.Context, action, table, recordID, details string) {
	sess := svc.Session()
	entry := AuditEntry{
		UserID:   sess.UserID,
		Action:   action,
		Table:    table,
		RecordID: recordID,
		Details:  details,
		At:       time.Now().UTC(),
	}
	if err := svc.repo.AppendAuditEntry(ctx, entry); err != nil {
		svc.logger.Warn(fmt.Sprintf("audit append failed (%s %s/%s): %v", action, table, recordID, err))
	}
}
