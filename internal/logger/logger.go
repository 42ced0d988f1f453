package logger

import "sync"

// Backend receives leveled log calls with alternating key/value pairs
type Backend interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var (
	mu       sync.RWMutex
	backends []Backend
)

// Init replaces the active backends. Calls made before Init are dropped.
func Init(b ...Backend) {
	mu.Lock()
	defer mu.Unlock()
	backends = b
}

func each(fn func(Backend)) {
	mu.RLock()
	defer mu.RUnlock()
	for _, b := range backends {
		fn(b)
	}
}

// Debug writes a message at DEBUG level to all backends
func Debug(message string, keyvals ...any) {
	each(func(b Backend) { b.Debug(message, keyvals...) })
}

// Info writes a message at INFO level to all backends
func Info(message string, keyvals ...any) {
	each(func(b Backend) { b.Info(message, keyvals...) })
}

// Warn writes a message at WARN level to all backends
func Warn(message string, keyvals ...any) {
	each(func(b Backend) { b.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level to all backends
func Error(message string, keyvals ...any) {
	each(func(b Backend) { b.Error(message, keyvals...) })
}

// Fatal writes a message at FATAL level; backends terminate the program
func Fatal(message string, keyvals ...any) {
	each(func(b Backend) { b.Fatal(message, keyvals...) })
}
