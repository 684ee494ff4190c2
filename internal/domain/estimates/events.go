package estimates

import "time"

type EstimateCompletedEvent struct {
	RecordID         RecordID  `json:"record_id,omitempty"`
	SubjectID        string    `json:"subject_id,omitempty"`
	Method           string    `json:"method"`
	BMR              float64   `json:"bmr"`
	Confidence       float64   `json:"confidence"`
	BodyFatEstimated bool      `json:"body_fat_estimated"`
	Cached           bool      `json:"cached"`
	At               time.Time `json:"at"`
}

func (e EstimateCompletedEvent) EventName() string     { return "bmr.estimate.completed" }
func (e EstimateCompletedEvent) AggregateID() string   { return aggregateOf(e.SubjectID, e.Method) }
func (e EstimateCompletedEvent) OccurredAt() time.Time { return e.At }

type EstimateFailedEvent struct {
	SubjectID string    `json:"subject_id,omitempty"`
	Method    string    `json:"method"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (e EstimateFailedEvent) EventName() string     { return "bmr.estimate.failed" }
func (e EstimateFailedEvent) AggregateID() string   { return aggregateOf(e.SubjectID, e.Method) }
func (e EstimateFailedEvent) OccurredAt() time.Time { return e.At }

func aggregateOf(subject, method string) string {
	if subject != "" {
		return subject
	}
	return method
}
