package core

// Logger is any service that can log messages at different levels.
// args may contain errors, maps of extra data, or the user.User to whom the event relates.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogFielder is implemented by errors carrying structured data worth reporting along with them.
type LogFielder interface {
	LogFields() map[string]interface{}
}
