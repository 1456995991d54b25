// Package dummydb is an in-memory implementation of every repository the
// core consumes. It backs the tests and local experimentation; the real
// store lives in storage/database/sqlxrepos.
package dummydb

import (
	"fmt"
	"sync"

	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/account"
	"github.com/mzalendo/daftari/core/grade"
	"github.com/mzalendo/daftari/core/role"
)

type (
	assignment struct {
		ProfessorID string
		CourseID    string
		SemesterID  string
	}

	course struct {
		Distribution grade.Distribution
		CreditHours  float64
	}

	DB struct {
		mu sync.RWMutex

		accounts      map[string]*account.Account // by ID
		contactEmails map[string]string           // accountID -> email
		roles         map[string]*role.Role
		permissions   map[string]*role.Permission // by ID
		rolePerms     map[string][]string         // roleID -> permission IDs
		professors    map[string]string           // accountID -> professorID
		students      map[string]string           // accountID -> studentID
		assignments   []assignment
		courses       map[string]*course
		registrations map[string]*grade.Registration
		grades        map[string]*grade.Grade // by registrationID
		audit         []access.AuditEntry

		pkCount int
	}
)

func Open() *DB {
	return &DB{
		accounts:      make(map[string]*account.Account),
		contactEmails: make(map[string]string),
		roles:         make(map[string]*role.Role),
		permissions:   make(map[string]*role.Permission),
		rolePerms:     make(map[string][]string),
		professors:    make(map[string]string),
		students:      make(map[string]string),
		courses:       make(map[string]*course),
		registrations: make(map[string]*grade.Registration),
		grades:        make(map[string]*grade.Grade),
	}
}

func (db *DB) nextID(prefix string) string {
	db.pkCount++
	return fmt.Sprintf("%s%03d", prefix, db.pkCount)
}

// Seed helpers. The core does not own CRUD for courses, assignments or
// registrations; tests set those up directly.

func (db *DB) AddRole(r role.Role) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := r
	db.roles[r.ID] = &cp
}

func (db *DB) AddPermission(p role.Permission) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := p
	db.permissions[p.ID] = &cp
}

func (db *DB) GrantPermission(roleID, permissionID string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.rolePerms[roleID] = append(db.rolePerms[roleID], permissionID)
}

func (db *DB) LinkProfessor(accountID, professorID string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.professors[accountID] = professorID
}

func (db *DB) LinkStudent(accountID, studentID string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.students[accountID] = studentID
}

func (db *DB) SetContactEmail(accountID, email string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.contactEmails[accountID] = email
}

func (db *DB) AddAssignment(professorID, courseID, semesterID string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.assignments = append(db.assignments, assignment{professorID, courseID, semesterID})
}

func (db *DB) SetCourse(courseID string, dist grade.Distribution, creditHours float64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.courses[courseID] = &course{Distribution: dist, CreditHours: creditHours}
}

// AddRegistration creates the registration together with its zero-score
// grade row, mirroring the transactional pairing of the real store.
func (db *DB) AddRegistration(reg grade.Registration) grade.Registration {
	db.mu.Lock()
	defer db.mu.Unlock()

	if reg.ID == "" {
		reg.ID = db.nextID("REG")
	}
	if reg.Status == "" {
		reg.Status = grade.StatusRegistered
	}
	cp := reg
	db.registrations[reg.ID] = &cp
	db.grades[reg.ID] = &grade.Grade{
		ID:             db.nextID("GRD"),
		RegistrationID: reg.ID,
		Result:         grade.Result{Evaluation: "Fail", Letter: "F"},
	}
	return reg
}

// AuditEntries returns a snapshot of the audit log.
func (db *DB) AuditEntries() []access.AuditEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]access.AuditEntry, len(db.audit))
	copy(out, db.audit)
	return out
}
