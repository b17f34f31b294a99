package events

import "time"

const SalaryRunCompletedTopic = "ems.salary.run.completed.v1"

type SalaryRunCompletedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id,omitempty"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Processed   int       `json:"processed"`
	Failed      int       `json:"failed"`
	TriggeredBy string    `json:"triggered_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}
