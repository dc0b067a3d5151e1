package dto

import (
	"time"

	"github.com/pyrooka/mail2mp3/internal/enum"
)

// JobOutcomeEvent is published after a job reaches a terminal state.
type JobOutcomeEvent struct {
	JobID     string           `json:"jobId"`
	Sender    string           `json:"sender"`
	Subject   string           `json:"subject"`
	VideoID   string           `json:"videoId,omitempty"`
	Source    enum.ShareSource `json:"source"`
	Outcome   enum.JobOutcome  `json:"outcome"`
	Title     string           `json:"title,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
