package dummydb

import (
	"context"

	"github.com/mzalendo/daftari/core/access"
)

// accessRepository implements access.Repository on top of the in-memory
// tables, reusing the account repository for the identity part.
type accessRepository struct {
	db *DB
	*accountRepository
}

var _ access.Repository = (*accessRepository)(nil) // interface compliance check

func NewAccessRepository(db *DB) *accessRepository {
	return &accessRepository{db: db, accountRepository: NewAccountRepository(db)}
}

func (repo *accessRepository) PermissionsForRole(_ context.Context, roleID string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := repo.db.rolePerms[roleID]
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := repo.db.permissions[id]; ok {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

func (repo *accessRepository) ProfessorIDForUser(_ context.Context, userID string) (string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.professors[userID], nil
}

func (repo *accessRepository) StudentIDForUser(_ context.Context, userID string) (string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.students[userID], nil
}

func (repo *accessRepository) IsProfessorAssigned(_ context.Context, professorID, courseID, semesterID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, a := range repo.db.assignments {
		if a.ProfessorID == professorID && a.CourseID == courseID && a.SemesterID == semesterID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *accessRepository) AssignedCourseIDs(_ context.Context, professorID, semesterID string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	seen := make(map[string]struct{})
	var ids []string
	for _, a := range repo.db.assignments {
		if a.ProfessorID != professorID {
			continue
		}
		if semesterID != "" && a.SemesterID != semesterID {
			continue
		}
		if _, ok := seen[a.CourseID]; ok {
			continue
		}
		seen[a.CourseID] = struct{}{}
		ids = append(ids, a.CourseID)
	}
	return ids, nil
}

func (repo *accessRepository) AppendAuditEntry(_ context.Context, entry access.AuditEntry) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.audit = append(repo.db.audit, entry)
	return nil
}
