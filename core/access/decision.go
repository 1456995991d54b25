package access

// Decision is the outcome of a scoping check. DeniedOnError marks a
// denial caused by a collaborator failure rather than policy; callers
// must treat it exactly like Denied (fail-closed), the distinction exists
// so tests can tell the two apart.
type Decision int

const (
	Denied Decision = iota
	DeniedOnError
	Granted
)

func (d Decision) Allowed() bool { return d == Granted }

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case DeniedOnError:
		return "denied (lookup error)"
	default:
		return "denied"
	}
}
