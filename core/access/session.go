package access

// Built-in role IDs (seeded by the initial migration). Custom roles get
// arbitrary IDs and KindCustom behavior: mapped permissions only, no
// linked entity, no scoping shortcuts.
const (
	RoleSuperAdmin     = "ROLE_SUPERADMIN"
	RoleStudentAffairs = "ROLE_STUDENT_AFFAIRS"
	RoleProfessor      = "ROLE_PROFESSOR"
	RoleStudent        = "ROLE_STUDENT"
)

// Kind is the closed enumeration of role behaviors. Authorization rules
// switch on Kind, never on raw role ID strings, so every rule handles
// every case.
type Kind int

const (
	KindCustom Kind = iota // zero value: least privilege
	KindSuperAdmin
	KindStudentAffairs
	KindProfessor
	KindStudent
)

func (k Kind) String() string {
	switch k {
	case KindSuperAdmin:
		return "super-admin"
	case KindStudentAffairs:
		return "student-affairs"
	case KindProfessor:
		return "professor"
	case KindStudent:
		return "student"
	default:
		return "custom"
	}
}

// KindOfRole maps a role ID to its behavior Kind.
func KindOfRole(roleID string) Kind {
	switch roleID {
	case RoleSuperAdmin:
		return KindSuperAdmin
	case RoleStudentAffairs:
		return KindStudentAffairs
	case RoleProfessor:
		return KindProfessor
	case RoleStudent:
		return KindStudent
	default:
		return KindCustom
	}
}

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"-"`
}

// Session is the authenticated principal's in-memory state. There is
// exactly one live session per process (single-seat desktop semantics);
// the Service owns and replaces it, everyone else reads copies.
//
// Invariant: LoggedIn == false implies Permissions is empty and LinkedID
// is empty. The zero value is a logged-out session.
type Session struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`

	// LinkedID is the professor or student record bound to this account,
	// empty for administrative and custom roles.
	LinkedID string `json:"linked_id,omitempty"`

	Permissions map[string]struct{} `json:"-"`
	LoggedIn    bool                `json:"logged_in"`
}

// HasPermission is a plain membership test; the superuser bypass lives in
// Service.HasPermission, not here.
func (s Session) HasPermission(name string) bool {
	_, ok := s.Permissions[name]
	return ok
}

// IsAdmin reports whether the session holds an administrative role
// (unconditional course access).
func (s Session) IsAdmin() bool {
	return s.Role.Kind == KindSuperAdmin || s.Role.Kind == KindStudentAffairs
}

func (s Session) IsSuperAdmin() bool { return s.Role.Kind == KindSuperAdmin }
func (s Session) IsProfessor() bool  { return s.Role.Kind == KindProfessor }
func (s Session) IsStudent() bool    { return s.Role.Kind == KindStudent }

// clone returns a copy safe to hand out: the permission set is copied so
// no caller can alias the Service-owned map.
func (s Session) clone() Session {
	cp := s
	cp.Permissions = make(map[string]struct{}, len(s.Permissions))
	for p := range s.Permissions {
		cp.Permissions[p] = struct{}{}
	}
	return cp
}
