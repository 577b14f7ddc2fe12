// Package ranking defines the triage order over questions.
//
// The order is shared by the paginated triage listing and by prev/next
// navigation in the editor; both must see the same sequence of ids for a
// given filter. The store expresses the same order in SQL (see
// store.rankedSelector), and only the SQL form serves requests. Filter.Matches,
// KeyOf and Sort are the in-memory reference the store tests compare the SQL
// order against. Matches is case-sensitive, unlike SQLite's LIKE for ASCII, so
// comparisons should use filters whose case already matches the data.
package ranking

import (
	"sort"
	"strings"

	"github.com/examdrill/backend/internal/domain/questionbank"
)

// Filter narrows the questions considered for triage. Zero fields match
// everything.
type Filter struct {
	Text  string // substring of question text
	Topic string // exact topic
	Tag   string // substring of the tags column
}

// Matches applies the filter to a single question.
func (f Filter) Matches(q *questionbank.Question) bool {
	if f.Text != "" && !strings.Contains(q.Text, f.Text) {
		return false
	}
	if f.Topic != "" && q.Topic != f.Topic {
		return false
	}
	if f.Tag != "" && !strings.Contains(q.Tags, f.Tag) {
		return false
	}
	return true
}

// Key carries the columns the order is computed from.
type Key struct {
	ID           int64
	HasError     bool
	CorrectCount int
	Topic        string
}

// KeyOf extracts the ranking key of a question.
func KeyOf(q *questionbank.Question) Key {
	return Key{
		ID:           q.ID,
		HasError:     q.HasError,
		CorrectCount: q.CorrectCount(),
		Topic:        q.Topic,
	}
}

// Less orders error-flagged questions first, then questions without a
// correct choice, then questions without a topic, then newest id first.
// Ids are unique, so this is a strict total order.
func Less(a, b Key) bool {
	if a.HasError != b.HasError {
		return a.HasError
	}
	if ab, bb := a.CorrectCount == 0, b.CorrectCount == 0; ab != bb {
		return ab
	}
	if au, bu := a.Topic == "", b.Topic == ""; au != bu {
		return au
	}
	return a.ID > b.ID
}

// Sort orders keys in place and returns their ids in rank order.
func Sort(keys []Key) []int64 {
	sort.Slice(keys, func(i, j int) bool { return Less(keys[i], keys[j]) })
	ids := make([]int64, len(keys))
	for i, k := range keys {
		ids[i] = k.ID
	}
	return ids
}

// Neighbors locates id in a ranked list and returns the ids before and
// after it. A zero value means there is no neighbor on that side, which is
// also the result when id is not in the list.
func Neighbors(ranked []int64, id int64) (prev, next int64) {
	for i, v := range ranked {
		if v != id {
			continue
		}
		if i > 0 {
			prev = ranked[i-1]
		}
		if i < len(ranked)-1 {
			next = ranked[i+1]
		}
		return prev, next
	}
	return 0, 0
}

// Page describes one slice of the ranked listing. Pages are 1-based.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of ranked rows before this page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// TotalPages returns how many pages total rows span.
func TotalPages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
