package notification

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/door2door/fieldvisits/internal/core/domain"
)

// TaskTypeVisitNotify is the asynq task that emails the office about a visit
const TaskTypeVisitNotify = "visit:notify"

// Kind selects the subject and header of a notification
type Kind string

const (
	KindNew    Kind = "new"    // first save of a visit
	KindUpdate Kind = "update" // edit of a previously saved visit
	KindSubmit Kind = "submit" // draft promoted to saved
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindNew, KindUpdate, KindSubmit:
		return true
	}
	return false
}

// Config for the notification enqueuer
type Config struct {
	Queue     string        `json:"queue"`
	MaxRetry  int           `json:"max_retry"`
	Timeout   time.Duration `json:"timeout"`
	Retention time.Duration `json:"retention"` // how long the task id blocks duplicates
}

// DefaultConfig returns default notification configuration
func DefaultConfig() Config {
	return Config{
		Queue:     "notifications",
		MaxRetry:  3,
		Timeout:   30 * time.Second,
		Retention: 24 * time.Hour,
	}
}

// TaskPayload is the queued snapshot of a visit. Card data never enters the
// queue; only whether one was provided.
type TaskPayload struct {
	Kind          Kind         `json:"kind"`
	Fingerprint   string       `json:"fingerprint"`
	Visit         domain.Visit `json:"visit"`
	HasCreditCard bool         `json:"has_credit_card"`
}

// Message is a rendered email
type Message struct {
	Subject string
	HTML    string
}

// TaskEnqueuer is the subset of the asynq client the enqueuer needs
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Mailer delivers rendered messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
