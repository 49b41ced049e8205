package conflict

import "strings"

// notMentioned is the excerpt placeholder for the side that never raises
// the conflicting topic.
const notMentioned = "(not mentioned)"

// proposalMarkers signal that a statement recommends a concrete change.
var proposalMarkers = []string{
	"should", "must ", "recommend", "consider", "prefer", "instead",
	"use ", "add ", "move ", "extract", "replace", "switch",
}

// dismissalMarkers signal that a statement downplays or rejects a concern.
var dismissalMarkers = []string{
	"not ", "n't", "no need", "unnecessary", "overkill", "disagree",
}

// topicStopwords are common review-prose words that would otherwise pair
// unrelated statements during shared-topic detection.
var topicStopwords = map[string]bool{
	"should": true, "would": true, "could": true, "review": true,
	"reviews": true, "reviewer": true, "reviewers": true, "overall": true,
	"however": true, "although": true, "because": true, "therefore": true,
	"instead": true, "rather": true, "consider": true, "recommend": true,
	"suggest": true, "suggestion": true, "mention": true, "mentioned": true,
	"please": true, "before": true, "between": true, "during": true,
	"example": true, "current": true, "currently": true,
}

// Classifier detects and labels disagreements between review texts.
// It never resolves a conflict; it only surfaces candidates for the
// human checkpoint.
type Classifier struct {
	table Table
}

// NewClassifier creates a Classifier with the given table.
// A nil table falls back to DefaultTable, so classification policy can be
// swapped out in tests without touching dispatch logic.
func NewClassifier(table Table) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	return &Classifier{table: table}
}

// Classify returns the category of the first table term found in text,
// or CategoryUnclassified when no term matches.
func (c *Classifier) Classify(text string) Category {
	lower := strings.ToLower(text)
	for _, entry := range c.table {
		for _, term := range entry.Terms {
			if strings.Contains(lower, term) {
				return entry.Category
			}
		}
	}
	return CategoryUnclassified
}

// Detect compares two review texts and returns an ordered list of
// disagreement candidates.
//
// Two passes run in order. The table pass reports at most one conflict per
// category for a trigger term raised by exactly one side. The shared-topic
// pass looks for a subject both sides discuss with divergent stances and
// reports at most one such conflict, categorized architecture when both
// sides propose different changes and unclassified otherwise.
func (c *Classifier) Detect(a, b string) []Conflict {
	aLower := strings.ToLower(a)
	bLower := strings.ToLower(b)
	aStmts := statements(a)
	bStmts := statements(b)

	var conflicts []Conflict
	for _, entry := range c.table {
		for _, term := range entry.Terms {
			aHas := strings.Contains(aLower, term)
			bHas := strings.Contains(bLower, term)
			if aHas == bHas {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Topic:    term,
				Category: entry.Category,
				ExcerptA: excerptFor(aStmts, term, aHas),
				ExcerptB: excerptFor(bStmts, term, bHas),
				Guidance: entry.Category.Guidance(),
			})
			break
		}
	}

	if shared := c.sharedTopicConflict(aStmts, bStmts, aLower, bLower); shared != nil {
		conflicts = append(conflicts, *shared)
	}
	return conflicts
}

// CommonTerms returns the table terms mentioned by both texts, in table
// order. Used by synthesis to surface points of agreement.
func (c *Classifier) CommonTerms(a, b string) []string {
	aLower := strings.ToLower(a)
	bLower := strings.ToLower(b)

	var common []string
	for _, term := range c.table.Terms() {
		if strings.Contains(aLower, term) && strings.Contains(bLower, term) {
			common = append(common, term)
		}
	}
	return common
}

// sharedTopicConflict finds the first subject both reviews discuss with
// divergent stances. Subjects are bare words of six letters or more that
// are neither table terms nor stopwords.
func (c *Classifier) sharedTopicConflict(aStmts, bStmts []string, aLower, bLower string) *Conflict {
	tableTerms := make(map[string]bool)
	for _, term := range c.table.Terms() {
		tableTerms[term] = true
	}

	for _, word := range topicWords(aLower) {
		if tableTerms[word] || !strings.Contains(bLower, word) {
			continue
		}
		sa := statementWith(aStmts, word)
		sb := statementWith(bStmts, word)
		if sa == "" || sb == "" || sa == sb {
			continue
		}
		saLower := strings.ToLower(sa)
		sbLower := strings.ToLower(sb)
		switch {
		case dismisses(saLower) != dismisses(sbLower):
			return &Conflict{
				Topic:    word,
				Category: CategoryUnclassified,
				ExcerptA: sa,
				ExcerptB: sb,
				Guidance: CategoryUnclassified.Guidance(),
			}
		case proposes(saLower) && proposes(sbLower):
			return &Conflict{
				Topic:    word,
				Category: CategoryArchitecture,
				ExcerptA: sa,
				ExcerptB: sb,
				Guidance: CategoryArchitecture.Guidance(),
			}
		}
	}
	return nil
}

// statements splits review text into sentence/bullet-level chunks.
func statements(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = trimBullet(line)
		if line == "" {
			continue
		}
		for _, sentence := range strings.Split(line, ". ") {
			sentence = strings.TrimSpace(sentence)
			if sentence != "" {
				out = append(out, sentence)
			}
		}
	}
	return out
}

// trimBullet strips list markers and heading hashes from a line.
func trimBullet(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "#")
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}

// statementWith returns the first statement containing term, or "".
func statementWith(stmts []string, term string) string {
	for _, s := range stmts {
		if strings.Contains(strings.ToLower(s), term) {
			return s
		}
	}
	return ""
}

func excerptFor(stmts []string, term string, has bool) string {
	if !has {
		return notMentioned
	}
	if s := statementWith(stmts, term); s != "" {
		return s
	}
	return term
}

// topicWords extracts candidate subject words from lowercased text,
// deduplicated in order of first appearance.
func topicWords(lower string) []string {
	seen := make(map[string]bool)
	var words []string
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
	for _, w := range fields {
		if len(w) < 6 || topicStopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}

func dismisses(lower string) bool {
	for _, m := range dismissalMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func proposes(lower string) bool {
	for _, m := range proposalMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
