package role_test

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"github.com/pkg/errors"

	"github.com/mzalendo/daftari/core"
	"github.com/mzalendo/daftari/core/access"
	"github.com/mzalendo/daftari/core/role"
	dummydb "github.com/mzalendo/daftari/storage/database/dummy"
)

func seedRoles(db *dummydb.DB) {
	db.AddRole(role.Role{ID: access.RoleSuperAdmin, Name: "Super Admin"})
	db.AddRole(role.Role{ID: access.RoleProfessor, Name: "Professor"})

	db.AddPermission(role.Permission{ID: "P1", Name: access.PermGradeEnter})
	db.AddPermission(role.Permission{ID: "P2", Name: access.PermGradeViewAssigned})
	db.AddPermission(role.Permission{ID: "P3", Name: access.PermUserManage}) // exclusive
	db.AddPermission(role.Permission{ID: "P4", Name: access.PermFeeDelete})  // exclusive

	db.GrantPermission(access.RoleProfessor, "P1")
}

func TestServiceUpdateRolePermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the mapping", func(t *testing.T) {
		db := dummydb.Open()
		seedRoles(db)
		svc := role.NewService(dummydb.NewRoleRepository(db))

		if err := svc.UpdateRolePermissions(ctx, access.RoleProfessor, []string{"P1", "P2"}); err != nil {
			t.Fatalf("UpdateRolePermissions() failed: %v", err)
		}
		ids, err := svc.RolePermissionIDs(ctx, access.RoleProfessor)
		if err != nil {
			t.Fatalf("RolePermissionIDs() failed: %v", err)
		}
		sort.Strings(ids)
		if !reflect.DeepEqual(ids, []string{"P1", "P2"}) {
			t.Errorf("mapping = %v, expected [P1 P2]", ids)
		}
	})

	t.Run("exclusive permission rejects the whole batch", func(t *testing.T) {
		db := dummydb.Open()
		seedRoles(db)
		svc := role.NewService(dummydb.NewRoleRepository(db))

		err := svc.UpdateRolePermissions(ctx, access.RoleProfessor, []string{"P2", "P3"})
		if err == nil {
			t.Fatal("expected an error")
		}
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("expected *core.ValidationError, got %T", err)
		}

		// nothing from the batch reached the store, including the
		// non-exclusive P2
		ids, err := svc.RolePermissionIDs(ctx, access.RoleProfessor)
		if err != nil {
			t.Fatalf("RolePermissionIDs() failed: %v", err)
		}
		if !reflect.DeepEqual(ids, []string{"P1"}) {
			t.Errorf("mapping = %v, expected the untouched [P1]", ids)
		}
	})

	t.Run("super admin may hold exclusive permissions", func(t *testing.T) {
		db := dummydb.Open()
		seedRoles(db)
		svc := role.NewService(dummydb.NewRoleRepository(db))

		if err := svc.UpdateRolePermissions(ctx, access.RoleSuperAdmin, []string{"P3", "P4"}); err != nil {
			t.Fatalf("UpdateRolePermissions() failed: %v", err)
		}
	})

	t.Run("empty set revokes everything", func(t *testing.T) {
		db := dummydb.Open()
		seedRoles(db)
		svc := role.NewService(dummydb.NewRoleRepository(db))

		if err := svc.UpdateRolePermissions(ctx, access.RoleProfessor, nil); err != nil {
			t.Fatalf("UpdateRolePermissions() failed: %v", err)
		}
		ids, _ := svc.RolePermissionIDs(ctx, access.RoleProfessor)
		if len(ids) != 0 {
			t.Errorf("mapping = %v, expected empty", ids)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		db := dummydb.Open()
		seedRoles(db)
		svc := role.NewService(dummydb.NewRoleRepository(db))

		if err := svc.UpdateRolePermissions(ctx, "ROLE_NOPE", []string{"P1"}); errors.Cause(err) != role.ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unknown permission", func(t *testing.T) {
		db := dummydb.Open()
		seedRoles(db)
		svc := role.NewService(dummydb.NewRoleRepository(db))

		if err := svc.UpdateRolePermissions(ctx, access.RoleProfessor, []string{"P999"}); errors.Cause(err) != role.ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	seedRoles(db)
	svc := role.NewService(dummydb.NewRoleRepository(db))

	r, err := svc.Create(ctx, role.NewRole{ID: "ROLE_REGISTRAR", Name: "Registrar"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if r.ID != "ROLE_REGISTRAR" {
		t.Errorf("unexpected role %+v", r)
	}

	// duplicate ID
	if _, err = svc.Create(ctx, role.NewRole{ID: access.RoleProfessor, Name: "Professor 2"}); err == nil {
		t.Error("expected an error for a duplicate role ID")
	}
}
