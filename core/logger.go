package core

// Logger is the app-wide logging contract. Implementations may forward
// Error/Fatal to an external error tracker; args may carry structured
// context (the active session identity in particular).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, err error, args ...interface{})
	Fatal(msg string, err error, args ...interface{})
}
