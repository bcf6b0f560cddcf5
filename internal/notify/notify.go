package notify

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Level classifies a user-facing notification
type Level string

// Notification levels
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a single user-facing message, the equivalent of a toast
// in the portal UI
type Notification struct {
	ID      string `json:"id"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives user-facing notifications emitted by the session layer
type Notifier interface {
	Success(message string)
	Error(message string)
}

// ZapNotifier logs notifications through a zap logger
type ZapNotifier struct {
	log *zap.Logger
}

// NewZapNotifier creates a notifier backed by a zap logger
func NewZapNotifier(log *zap.Logger) *ZapNotifier {
	return &ZapNotifier{log: log}
}

// Success logs a success notification
func (n *ZapNotifier) Success(message string) {
	n.log.Info("notification", zap.String("level", string(LevelSuccess)), zap.String("message", message))
}

// Error logs an error notification
func (n *ZapNotifier) Error(message string) {
	n.log.Warn("notification", zap.String("level", string(LevelError)), zap.String("message", message))
}

// Recorder collects notifications so callers can surface them, e.g. in a
// gateway response envelope or in tests
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

// NewRecorder creates an empty notification recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Success records a success notification
func (r *Recorder) Success(message string) {
	r.append(LevelSuccess, message)
}

// Error records an error notification
func (r *Recorder) Error(message string) {
	r.append(LevelError, message)
}

func (r *Recorder) append(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{
		ID:      uuid.New().String(),
		Level:   level,
		Message: message,
	})
}

// Drain returns the recorded notifications and resets the recorder
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notifications
	r.notifications = nil
	return out
}

// Messages returns the recorded messages at the given level without
// resetting the recorder
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notifications {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// Fanout duplicates notifications to several notifiers
type Fanout []Notifier

// Success forwards a success notification to every notifier
func (f Fanout) Success(message string) {
	for _, n := range f {
		n.Success(message)
	}
}

// Error forwards an error notification to every notifier
func (f Fanout) Error(message string) {
	for _, n := range f {
		n.Error(message)
	}
}
