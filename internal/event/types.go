package event

import "time"

const (
	TypeRecordingStarted   = "recording_started"
	TypeRecordingWriting   = "recording_writing"
	TypeRecordingFinished  = "recording_finished"
	TypeRecordingAbandoned = "recording_abandoned"
	TypeUploadStarted      = "upload_started"
	TypeUploadCompleted    = "upload_completed"
	TypeUploadFailed       = "upload_failed"
	TypeUploadSkipped      = "upload_skipped"
)

// RecordingEvent captures tracker and upload lifecycle changes for a single
// recording path.
type RecordingEvent struct {
	EventType  string            `json:"type"`
	Path       string            `json:"path"`
	Detail     map[string]string `json:"detail,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewRecordingEvent(eventType, path string, detail map[string]string) RecordingEvent {
	return RecordingEvent{
		EventType:  eventType,
		Path:       path,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
}

func (event RecordingEvent) Type() string {
	return event.EventType
}

func (event RecordingEvent) Timestamp() time.Time {
	return event.OccurredAt
}
