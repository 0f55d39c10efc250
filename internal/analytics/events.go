package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventError      EventType = "error"
)

// SearchEvent is published once per answered /api/search request.
type SearchEvent struct {
	Type         EventType `json:"type"`
	Query        string    `json:"query"`
	StemmedQuery []string  `json:"stemmed_query"`
	PhraseMode   string    `json:"phrase_mode"`
	MatchInTitle bool      `json:"match_in_title"`
	WithPageRank bool      `json:"page_rank"`
	TotalResults int       `json:"total_results"`
	LatencyMs    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id"`
}

// Classify derives the event type from the outcome.
func Classify(totalResults int, err error) EventType {
	switch {
	case err != nil:
		return EventError
	case totalResults == 0:
		return EventZeroResult
	default:
		return EventSearch
	}
}
