package queue

import "time"

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

// ValidStatus reports whether the string names a known status.
func ValidStatus(value string) bool {
	for _, status := range allStatuses {
		if Status(value) == status {
			return true
		}
	}
	return false
}

// Item is one video awaiting or undergoing enhancement.
type Item struct {
	ID              int64
	SourcePath      string
	Status          Status
	RequestID       string
	ErrorMessage    string
	FinalFile       string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetProgress updates the in-memory progress fields. Callers persist the
// change with Store.Update.
func (i *Item) SetProgress(stage string, percent float64, message string) {
	i.ProgressStage = stage
	i.ProgressPercent = percent
	i.ProgressMessage = message
}
