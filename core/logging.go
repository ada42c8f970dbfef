package core

// Logger is any service that can log leveled messages to a backend.
// Extra args may carry errors or context objects understood by the backend.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
