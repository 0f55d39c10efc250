package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/assembler"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
)

// optionKeys lists the query parameters echoed back under "options", in
// the order clients send them.
var optionKeys = []string{
	"phrase-search-options",
	"match-in-title",
	"page-rank",
	"phrase-search-distance",
	"skip-history",
	"exclude-words",
	"date-start",
	"time-start",
	"date-end",
	"time-end",
}

// Options is the raw option set. A nil entry means the option is unset.
type Options map[string]any

func defaultOptions(distance int) Options {
	return Options{
		"phrase-search-options":  "0",
		"match-in-title":         nil,
		"page-rank":              true,
		"phrase-search-distance": distance,
		"skip-history":           nil,
		"exclude-words":          nil,
		"date-start":             nil,
		"time-start":             nil,
		"date-end":               nil,
		"time-end":               nil,
	}
}

// readOptions applies the defaults when the query is the only parameter;
// otherwise every option comes from the request and absent ones are unset.
func readOptions(q url.Values, defaultDistance int) Options {
	opts := defaultOptions(defaultDistance)
	if len(q) <= 1 {
		return opts
	}
	for _, key := range optionKeys {
		if v := q.Get(key); isSet(v) {
			opts[key] = v
		} else {
			opts[key] = nil
		}
	}
	return opts
}

func isSet(v string) bool {
	switch v {
	case "", "null", "undefined":
		return false
	}
	return true
}

func (o Options) flag(key string) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		return v != "false"
	default:
		return false
	}
}

func (o Options) str(key string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return ""
}

// request converts the options into an engine request.
func (o Options) request(query string, defaultDistance int, now time.Time) (executor.Request, error) {
	req := executor.Request{
		Query:        query,
		PhraseMode:   executor.ParsePhraseMode(o.str("phrase-search-options")),
		MatchInTitle: o.flag("match-in-title"),
		WithPageRank: o.flag("page-rank"),
		Distance:     defaultDistance,
		ExcludeWords: o.str("exclude-words"),
	}
	if raw := o.str("phrase-search-distance"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: phrase-search-distance %q is not an integer", apperrors.ErrInvalidInput, raw)
		}
		req.Distance = d
	}
	window, err := o.window(now)
	if err != nil {
		return req, err
	}
	req.Window = window
	return req, nil
}

// window builds the last-modified filter. Missing bounds default to the
// epoch and to the end of today.
func (o Options) window(now time.Time) (*assembler.DateWindow, error) {
	dateStart, timeStart := o.str("date-start"), o.str("time-start")
	dateEnd, timeEnd := o.str("date-end"), o.str("time-end")
	if dateStart == "" && timeStart == "" && dateEnd == "" && timeEnd == "" {
		return nil, nil
	}

	startDay := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	endDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startClock := time.Duration(0)
	endClock := 23*time.Hour + 59*time.Minute + 59*time.Second

	var err error
	if dateStart != "" {
		if startDay, err = parseDate(dateStart); err != nil {
			return nil, err
		}
	}
	if dateEnd != "" {
		if endDay, err = parseDate(dateEnd); err != nil {
			return nil, err
		}
	}
	if timeStart != "" {
		if startClock, err = parseClock(timeStart); err != nil {
			return nil, err
		}
	}
	if timeEnd != "" {
		if endClock, err = parseClock(timeEnd); err != nil {
			return nil, err
		}
	}
	return &assembler.DateWindow{
		Start: startDay.Add(startClock),
		End:   endDay.Add(endClock),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", apperrors.ErrInvalidInput, s)
	}
	return t, nil
}

func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%w: time %q must be HH:MM[:SS]", apperrors.ErrInvalidInput, s)
}
