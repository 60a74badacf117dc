package eventstore

import (
	"sort"
	"time"
)

const (
	buildStatusRunning = "running"
)

// BuildSummary is a read model of one build, reconstructed from its events.
type BuildSummary struct {
	BuildID      string        `json:"build_id"`
	Status       string        `json:"status"`
	BaseURL      string        `json:"base_url,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Pages        int           `json:"pages"`
	Built        []string      `json:"built"`
	NotFound     []string      `json:"not_found"`
	SoftFailures []SoftFailure `json:"soft_failures"`
}

// Project folds events into per-build summaries, newest build first.
// Events of a build must be in append order.
func Project(events []Event) ([]*BuildSummary, error) {
	builds := make(map[string]*BuildSummary)
	order := make([]*BuildSummary, 0)

	summary := func(e Event) *BuildSummary {
		s, ok := builds[e.BuildID]
		if !ok {
			s = &BuildSummary{
				BuildID:      e.BuildID,
				Status:       buildStatusRunning,
				StartedAt:    e.Timestamp,
				Built:        []string{},
				NotFound:     []string{},
				SoftFailures: []SoftFailure{},
			}
			builds[e.BuildID] = s
			order = append(order, s)
		}
		return s
	}

	for _, e := range events {
		s := summary(e)
		switch e.Type {
		case TypeBuildStarted:
			var p BuildStarted
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			s.StartedAt = e.Timestamp
			s.BaseURL = p.BaseURL
			s.Pages = p.Pages
		case TypePageBuilt:
			var p PageBuilt
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			s.Built = append(s.Built, p.Slug)
		case TypePageNotFound:
			var p PageNotFound
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			s.NotFound = append(s.NotFound, p.Slug)
		case TypeSoftFailure:
			var p SoftFailure
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			s.SoftFailures = append(s.SoftFailures, p)
		case TypeBuildCompleted:
			var p BuildCompleted
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			at := e.Timestamp
			s.CompletedAt = &at
			s.Status = p.Status
			s.Duration = time.Duration(p.DurationMS) * time.Millisecond
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].StartedAt.After(order[j].StartedAt)
	})
	return order, nil
}

// PageRecord is one recorded outcome of a slug.
type PageRecord struct {
	BuildID string    `json:"build_id"`
	At      time.Time `json:"at"`
	Outcome string    `json:"outcome"`
	Detail  string    `json:"detail,omitempty"`
}

// Page outcomes reported by ProjectPage.
const (
	OutcomeBuilt       = "built"
	OutcomeNotFound    = "not_found"
	OutcomeSoftFailure = "soft_failure"
)

// ProjectPage converts slug events into page records, preserving order.
func ProjectPage(events []Event) ([]PageRecord, error) {
	records := make([]PageRecord, 0, len(events))
	for _, e := range events {
		r := PageRecord{BuildID: e.BuildID, At: e.Timestamp}
		switch e.Type {
		case TypePageBuilt:
			var p PageBuilt
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			r.Outcome, r.Detail = OutcomeBuilt, p.Output
		case TypePageNotFound:
			var p PageNotFound
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			r.Outcome, r.Detail = OutcomeNotFound, p.Reason
		case TypeSoftFailure:
			var p SoftFailure
			if err := Decode(e, &p); err != nil {
				return nil, err
			}
			r.Outcome, r.Detail = OutcomeSoftFailure, p.Component+": "+p.Error
		default:
			continue
		}
		records = append(records, r)
	}
	return records, nil
}
