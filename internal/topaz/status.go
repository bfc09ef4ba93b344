package topaz

import "strings"

// Job states reported by the API, lowercased.
const (
	StateComplete  = "complete"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

type statusResponse struct {
	State    string  `json:"state"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Download struct {
		URL string `json:"url"`
	} `json:"download"`
}

// JobStatus is the normalized view of a status poll.
type JobStatus struct {
	State       string
	Progress    float64
	DownloadURL string
}

// Complete reports whether the job has finished and its result is available.
func (s JobStatus) Complete() bool {
	return s.State == StateComplete || s.DownloadURL != ""
}

// Terminal reports whether the job ended without producing a result.
func (s JobStatus) Terminal() bool {
	return s.State == StateFailed || s.State == StateCancelled
}

func (r statusResponse) normalize() JobStatus {
	state := r.State
	if state == "" {
		state = r.Status
	}
	return JobStatus{
		State:       strings.ToLower(strings.TrimSpace(state)),
		Progress:    NormalizeProgress(r.Progress),
		DownloadURL: r.Download.URL,
	}
}

// NormalizeProgress maps raw API progress onto a 0-100 percentage. The API
// reports either a fraction or a percentage depending on endpoint version.
func NormalizeProgress(raw float64) float64 {
	value := raw
	if value <= 1 {
		value *= 100
	}
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
