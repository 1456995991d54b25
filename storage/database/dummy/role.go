package dummydb

import (
	"context"
	"sort"

	"github.com/mzalendo/daftari/core/role"
)

type roleRepository struct {
	db *DB
}

var _ role.Repository = (*roleRepository)(nil) // interface compliance check

func NewRoleRepository(db *DB) *roleRepository {
	return &roleRepository{db: db}
}

func (repo *roleRepository) QueryRoles(_ context.Context) ([]role.Role, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	roles := make([]role.Role, 0, len(repo.db.roles))
	for _, r := range repo.db.roles {
		cp := *r
		for _, acct := range repo.db.accounts {
			if acct.RoleID == r.ID {
				cp.UserCount++
			}
		}
		roles = append(roles, cp)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (repo *roleRepository) GetRoleByID(_ context.Context, id string) (role.Role, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if r, ok := repo.db.roles[id]; ok {
		return *r, nil
	}
	return role.Role{}, role.ErrNotFound
}

func (repo *roleRepository) CreateRole(_ context.Context, r role.Role) (role.Role, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cp := r
	repo.db.roles[r.ID] = &cp
	return r, nil
}

func (repo *roleRepository) QueryPermissions(_ context.Context) ([]role.Permission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	perms := make([]role.Permission, 0, len(repo.db.permissions))
	for _, p := range repo.db.permissions {
		perms = append(perms, *p)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].Name < perms[j].Name })
	return perms, nil
}

func (repo *roleRepository) GetPermissionByID(_ context.Context, id string) (role.Permission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if p, ok := repo.db.permissions[id]; ok {
		return *p, nil
	}
	return role.Permission{}, role.ErrNotFound
}

func (repo *roleRepository) PermissionIDsForRole(_ context.Context, roleID string) ([]string, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ids := make([]string, len(repo.db.rolePerms[roleID]))
	copy(ids, repo.db.rolePerms[roleID])
	return ids, nil
}

func (repo *roleRepository) ReplaceRolePermissions(_ context.Context, roleID string, permissionIDs []string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ids := make([]string, len(permissionIDs))
	copy(ids, permissionIDs)
	repo.db.rolePerms[roleID] = ids
	return nil
}
