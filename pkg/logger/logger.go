package logger

// Instance defines the interface for logging backends.
type Instance interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var backends []Instance

// Init configures the global logger with one or more backends. It must be
// called before any logging function; calls before Init are dropped.
func Init(instances ...Instance) {
	backends = instances
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	for _, b := range backends {
		b.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	for _, b := range backends {
		b.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	for _, b := range backends {
		b.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	for _, b := range backends {
		b.Error(message, keyvals...)
	}
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	for _, b := range backends {
		b.Fatal(message, keyvals...)
	}
}
