package core

// Logger logs messages with increasing severity.
// Implementations may inspect args for well-known types (eg. the acting session)
// and report them to an external service.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
