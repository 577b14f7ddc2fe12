package questionbank

import (
	"errors"
	"sort"
	"strings"
)

// UncategorizedTopic is the label used when a question has no topic.
const UncategorizedTopic = "uncategorized"

// Question is a multiple-choice item in the bank.
type Question struct {
	ID          int64
	Text        string
	Images      []string
	Subject     string
	Topic       string // empty = uncategorized
	Tags        string // comma-separated free text
	Explanation string
	HasError    bool
	Choices     []Choice
}

// Choice belongs to exactly one question.
type Choice struct {
	ID         int64
	QuestionID int64
	Text       string
	Image      string
	IsCorrect  bool
}

// AnswerKey returns the ids of the correct choices, in choice order.
func (q *Question) AnswerKey() []int64 {
	var key []int64
	for _, c := range q.Choices {
		if c.IsCorrect {
			key = append(key, c.ID)
		}
	}
	return key
}

// CorrectCount is the number of choices marked correct. The exam view shows
// it so the taker knows how many boxes to tick.
func (q *Question) CorrectCount() int {
	n := 0
	for _, c := range q.Choices {
		if c.IsCorrect {
			n++
		}
	}
	return n
}

// IsBroken reports a question with no correct choice defined.
func (q *Question) IsBroken() bool {
	return q.CorrectCount() == 0
}

// Uncategorized reports a question whose topic is missing.
func (q *Question) Uncategorized() bool {
	return strings.TrimSpace(q.Topic) == ""
}

// TagList splits the comma-separated tags, trimming blanks.
func (q *Question) TagList() []string {
	return SplitList(q.Tags)
}

// Validate checks what a question needs before it is stored.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text cannot be empty")
	}
	if len(q.Choices) == 0 {
		return errors.New("question needs at least one choice")
	}
	for _, c := range q.Choices {
		if strings.TrimSpace(c.Text) == "" && c.Image == "" {
			return errors.New("choice needs text or an image")
		}
	}
	return nil
}

// SplitList splits a comma-joined column (image paths, tags) into its
// trimmed, non-empty parts.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of SplitList.
func JoinList(parts []string) string {
	return strings.Join(parts, ",")
}

// TagVocabulary returns the sorted set of distinct tags across raw tag columns.
func TagVocabulary(raw []string) []string {
	set := make(map[string]struct{})
	for _, tags := range raw {
		for _, t := range SplitList(tags) {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
