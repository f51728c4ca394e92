package item

// Category partitions the corpus by subject area. Corpus counts, source
// selection tiers, and duplicate comparisons are always scoped per category.
type Category string

const (
	CategoryScience   Category = "science"
	CategoryHistory   Category = "history"
	CategoryGeography Category = "geography"
	CategoryMath      Category = "math"
)

// AllCategories returns all categories in display order.
func AllCategories() []Category {
	return []Category{
		CategoryScience,
		CategoryHistory,
		CategoryGeography,
		CategoryMath,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryScience, CategoryHistory, CategoryGeography, CategoryMath:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for a category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryScience:
		return "Science"
	case CategoryHistory:
		return "History"
	case CategoryGeography:
		return "Geography"
	case CategoryMath:
		return "Math"
	default:
		return string(c)
	}
}

// Kind distinguishes the two item variants. They share id, category,
// difficulty, and explanation but carry different payload shapes.
type Kind string

const (
	// KindMultipleChoice is a standard question with options and one
	// correct index.
	KindMultipleChoice Kind = "multiple_choice"

	// KindPlacement is the interactive challenge where the player places
	// values in position on a number line.
	KindPlacement Kind = "placement"
)

// Difficulty bounds. Difficulty is mutable after creation: an item
// reported as too hard is escalated one level, capped at MaxDifficulty.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// ClampDifficulty forces d into the valid range.
func ClampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// PlacementSpec is the payload for KindPlacement items: the player drags
// the given values onto a number line between Min and Max.
type PlacementSpec struct {
	Values []int `json:"values"`
	Min    int   `json:"min"`
	Max    int   `json:"max"`
}

// Item is the unit of content served to the player.
type Item struct {
	// ID is the serving identifier. It is reassigned every time an item
	// is drawn from the corpus so consumers never see a repeated ID.
	ID string

	// RecordID is the corpus key for persisted items. Empty for
	// locally-constructed placement items and static built-ins.
	RecordID string

	Category   Category
	Kind       Kind
	Difficulty int

	// Text is the question prompt shown to the player.
	Text string

	// Options holds the choices for KindMultipleChoice; exactly one of
	// them, at CorrectIndex, is correct.
	Options      []string
	CorrectIndex int

	// Placement is set only for KindPlacement.
	Placement *PlacementSpec

	// Explanation is a brief worked answer shown after the player responds.
	Explanation string

	// IllustrationPrompt, when non-empty, describes an optional image.
	// Resolution is asynchronous and never blocks item delivery.
	IllustrationPrompt string

	// Image is the resolved illustration, attached lazily.
	Image []byte
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	cp := *it
	if it.Options != nil {
		cp.Options = append([]string(nil), it.Options...)
	}
	if it.Placement != nil {
		p := *it.Placement
		p.Values = append([]int(nil), it.Placement.Values...)
		cp.Placement = &p
	}
	if it.Image != nil {
		cp.Image = append([]byte(nil), it.Image...)
	}
	return &cp
}
