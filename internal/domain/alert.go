package domain

import "time"

// Event type tags assigned by the classifier.
const (
	EventFlashFloodRisk = "flash_flood_risk"
	EventFlashFlood     = "flash_flood"
	EventFloodSubsided  = "flood_subsided"
	EventHeavyRain      = "heavy_rain"
	EventUnclassified   = "unclassified"
)

// RawMessage is a channel message as received by the listener. The ID is the
// channel's own message id; it is not globally unique across reconnect or
// backfill runs.
type RawMessage struct {
	ID       int64     `json:"id"`
	SenderID int64     `json:"sender_id"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
}

// ParsedAlert is the classifier output for a single message text. It is a
// pure function of (text, anchor): no I/O, no hidden state.
type ParsedAlert struct {
	Event    string     `json:"event"`
	Location string     `json:"location,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
}

// StoredAlertRecord is the unit handed to the storage sink: the raw message
// fields merged with the classifier output. Created once per inbound message
// and never mutated afterwards.
type StoredAlertRecord struct {
	MsgID         int64      `json:"msg_id"`
	SenderID      int64      `json:"sender_id"`
	Text          string     `json:"text"`
	EventDateTime time.Time  `json:"event_date_time"`
	Event         string     `json:"event"`
	Location      string     `json:"location,omitempty"`
	Start         *time.Time `json:"start,omitempty"`
	End           *time.Time `json:"end,omitempty"`
	IngestedAt    time.Time  `json:"ingested_at"`
}

// NewStoredRecord merges a raw message with its parsed alert, renaming id to
// msg_id and the receipt date to event_date_time. The ingestion stamp comes
// from the package clock so tests can freeze it.
func NewStoredRecord(msg RawMessage, parsed ParsedAlert) StoredAlertRecord {
	return StoredAlertRecord{
		MsgID:         msg.ID,
		SenderID:      msg.SenderID,
		Text:          msg.Text,
		EventDateTime: msg.Date,
		Event:         parsed.Event,
		Location:      parsed.Location,
		Start:         parsed.Start,
		End:           parsed.End,
		IngestedAt:    clock.Now(),
	}
}
