package eventstore

import (
	"encoding/json"
	"time"
)

// Event types written to the ledger.
const (
	TypeBuildStarted   = "BuildStarted"
	TypePageBuilt      = "PageBuilt"
	TypePageNotFound   = "PageNotFound"
	TypeSoftFailure    = "SoftFailure"
	TypeBuildCompleted = "BuildCompleted"
)

// Event is one ledger row. Slug is empty for build-level events.
type Event struct {
	ID        int64           `json:"id"`
	BuildID   string          `json:"build_id"`
	Type      string          `json:"type"`
	Slug      string          `json:"slug,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// BuildStarted is the payload of a TypeBuildStarted event.
type BuildStarted struct {
	BaseURL     string `json:"base_url"`
	Pages       int    `json:"pages"`
	Concurrency int    `json:"concurrency"`
	Seed        uint64 `json:"seed,omitempty"`
}

// PageBuilt is the payload of a TypePageBuilt event.
type PageBuilt struct {
	Slug       string `json:"slug"`
	ManifestID string `json:"manifest_id"`
	Output     string `json:"output"`
	DurationMS int64  `json:"duration_ms"`
}

// PageNotFound is the payload of a TypePageNotFound event.
type PageNotFound struct {
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// SoftFailure is the payload of a TypeSoftFailure event.
type SoftFailure struct {
	Slug      string `json:"slug"`
	Component string `json:"component"`
	Error     string `json:"error"`
}

// BuildCompleted is the payload of a TypeBuildCompleted event.
type BuildCompleted struct {
	Status       string `json:"status"`
	Built        int    `json:"built"`
	NotFound     int    `json:"not_found"`
	SoftFailures int    `json:"soft_failures"`
	DurationMS   int64  `json:"duration_ms"`
}

// Decode unmarshals an event payload into out.
func Decode(e Event, out any) error {
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return ErrUnmarshalPayloadFailed.WithCause(err).WithContext("event_type", e.Type)
	}
	return nil
}
