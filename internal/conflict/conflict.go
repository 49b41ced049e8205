package conflict

// Category labels the kind of disagreement detected between two reviews
type Category string

const (
	CategorySecurity     Category = "security"
	CategoryPerformance  Category = "performance"
	CategoryStyle        Category = "style"
	CategoryArchitecture Category = "architecture"
	CategoryUnclassified Category = "unclassified"
)

// Guidance returns the advisory resolution strategy for the category.
// It is informational only; nothing downstream enforces it.
func (c Category) Guidance() string {
	switch c {
	case CategorySecurity:
		return "Prefer the more conservative recommendation."
	case CategoryPerformance:
		return "Prefer the recommendation backed by measurements."
	case CategoryStyle:
		return "Defer to user preference."
	case CategoryArchitecture:
		return "Present both approaches and let the user decide."
	default:
		return "Review both opinions."
	}
}

// Conflict is one detected point of disagreement between two reviews.
// It is recomputed from response texts on every round and never persisted
// as authoritative truth.
type Conflict struct {
	// Topic is the term or subject the reviews diverge on.
	Topic string `json:"topic"`

	// Category classifies the disagreement.
	Category Category `json:"category"`

	// ExcerptA is the relevant statement from the first review,
	// or "(not mentioned)" when only the second review raises the topic.
	ExcerptA string `json:"excerpt_a"`

	// ExcerptB is the relevant statement from the second review.
	ExcerptB string `json:"excerpt_b"`

	// Guidance is the advisory resolution strategy for the category.
	Guidance string `json:"guidance"`
}

// TableEntry binds a category to the terms that trigger it.
type TableEntry struct {
	Category Category
	Terms    []string
}

// Table is an ordered set of classification entries. Order matters twice:
// earlier entries win when a statement matches multiple categories, and
// detected conflicts are reported in table order.
type Table []TableEntry

// DefaultTable returns the standard classification table.
func DefaultTable() Table {
	return Table{
		{
			Category: CategorySecurity,
			Terms:    []string{"security", "vulnerability", "injection", "xss", "csrf", "auth"},
		},
		{
			Category: CategoryPerformance,
			Terms:    []string{"performance", "slow", "memory", "cpu", "optimization"},
		},
		{
			Category: CategoryStyle,
			Terms:    []string{"naming", "convention", "format", "style"},
		},
	}
}

// Terms returns every trigger term in table order.
func (t Table) Terms() []string {
	var terms []string
	for _, entry := range t {
		terms = append(terms, entry.Terms...)
	}
	return terms
}
