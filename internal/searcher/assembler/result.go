package assembler

import (
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index"
)

// LastModifiedLayout renders Result.LastModified the way the crawler
// stored it.
const LastModifiedLayout = "01/02/2006, 15:04:05"

// Result is one ranked document as returned to clients.
type Result struct {
	Score        float64          `json:"score"`
	Title        string           `json:"title"`
	URL          string           `json:"url"`
	LastModified string           `json:"lastModified"`
	Size         int              `json:"size"`
	WordPos      map[string][]int `json:"wordPos,omitempty"`
	TitleWordPos map[string][]int `json:"titleWordPos,omitempty"`
	ParentLinks  []string         `json:"parentLinks"`
	ChildLinks   []string         `json:"childLinks"`
	Keywords     map[string]int   `json:"keywords"`
	Body         string           `json:"body,omitempty"`

	DocID    index.DocID `json:"-"`
	Modified time.Time   `json:"-"`
}

// DateWindow bounds a document's last-modified time, inclusive.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

func (w *DateWindow) Contains(t time.Time) bool {
	if w == nil {
		return true
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

func positionMap(m map[string]index.Positions) map[string][]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]int, len(m))
	for term, pos := range m {
		out[term] = pos.Sorted()
	}
	return out
}

// topKeywords keeps the limit highest counts, ties by keyword. A
// non-positive limit keeps everything.
func topKeywords(kw map[string]int, limit int) map[string]int {
	if limit <= 0 || len(kw) <= limit {
		return kw
	}
	words := make([]string, 0, len(kw))
	for w := range kw {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if kw[words[i]] != kw[words[j]] {
			return kw[words[i]] > kw[words[j]]
		}
		return words[i] < words[j]
	})
	out := make(map[string]int, limit)
	for _, w := range words[:limit] {
		out[w] = kw[w]
	}
	return out
}
