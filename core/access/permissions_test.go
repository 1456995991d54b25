package access

import "testing"

func TestIsExclusive(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{PermUserManage, true},
		{PermRoleManage, true},
		{PermPasswordViewAll, true},
		{PermSystemSettings, true},
		{PermSystemLogs, true},
		{PermFeeDelete, true},
		{PermStudentViewAll, false},
		{PermGradeEnter, false},
		{PermPasswordViewStudent, false},
		{"made.up", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsExclusive(tt.name); got != tt.expected {
			t.Errorf("IsExclusive(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestKindOfRole(t *testing.T) {
	tests := []struct {
		roleID   string
		expected Kind
	}{
		{RoleSuperAdmin, KindSuperAdmin},
		{RoleStudentAffairs, KindStudentAffairs},
		{RoleProfessor, KindProfessor},
		{RoleStudent, KindStudent},
		{"ROLE_REGISTRAR", KindCustom},
		{"", KindCustom},
	}
	for _, tt := range tests {
		if got := KindOfRole(tt.roleID); got != tt.expected {
			t.Errorf("KindOfRole(%q) = %v, expected %v", tt.roleID, got, tt.expected)
		}
	}
}

func TestSessionClone(t *testing.T) {
	sess := Session{
		UserID:      "USR001",
		Permissions: map[string]struct{}{PermGradeEnter: {}},
		LoggedIn:    true,
	}
	cp := sess.clone()
	cp.Permissions[PermUserManage] = struct{}{}

	if sess.HasPermission(PermUserManage) {
		t.Error("mutating a clone leaked into the original permission set")
	}
}
