package picker

import (
	"github.com/google/uuid"

	"quizforge/internal/item"
)

// builtins are the static last-resort items served when both the backend
// and the corpus are unavailable. A handful per category is enough: they
// only appear while the app is effectively offline with an empty store.
var builtins = map[item.Category][]item.Item{
	item.CategoryScience: {
		{
			Category:     item.CategoryScience,
			Kind:         item.KindMultipleChoice,
			Difficulty:   1,
			Text:         "What gas do plants absorb from the air to make food?",
			Options:      []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Helium"},
			CorrectIndex: 1,
			Explanation:  "Plants take in carbon dioxide and use sunlight to turn it into sugars.",
		},
		{
			Category:     item.CategoryScience,
			Kind:         item.KindMultipleChoice,
			Difficulty:   2,
			Text:         "Which planet in our solar system is known as the Red Planet?",
			Options:      []string{"Venus", "Jupiter", "Mars", "Saturn"},
			CorrectIndex: 2,
			Explanation:  "Mars looks red because of iron oxide, or rust, on its surface.",
		},
	},
	item.CategoryHistory: {
		{
			Category:     item.CategoryHistory,
			Kind:         item.KindMultipleChoice,
			Difficulty:   1,
			Text:         "The pyramids of Giza were built in which country?",
			Options:      []string{"Mexico", "Egypt", "Greece", "China"},
			CorrectIndex: 1,
			Explanation:  "The Giza pyramids were built in ancient Egypt as tombs for pharaohs.",
		},
		{
			Category:     item.CategoryHistory,
			Kind:         item.KindMultipleChoice,
			Difficulty:   2,
			Text:         "Which ancient civilization built the Colosseum?",
			Options:      []string{"The Romans", "The Aztecs", "The Vikings", "The Persians"},
			CorrectIndex: 0,
			Explanation:  "The Colosseum was built in Rome and opened in the year 80.",
		},
	},
	item.CategoryGeography: {
		{
			Category:     item.CategoryGeography,
			Kind:         item.KindMultipleChoice,
			Difficulty:   1,
			Text:         "Which is the largest ocean on Earth?",
			Options:      []string{"Atlantic", "Indian", "Arctic", "Pacific"},
			CorrectIndex: 3,
			Explanation:  "The Pacific Ocean covers more area than all the land on Earth combined.",
		},
		{
			Category:     item.CategoryGeography,
			Kind:         item.KindMultipleChoice,
			Difficulty:   2,
			Text:         "Which river is the longest in the world?",
			Options:      []string{"The Amazon", "The Nile", "The Mississippi", "The Danube"},
			CorrectIndex: 1,
			Explanation:  "The Nile in Africa is usually measured as the longest river on Earth.",
		},
	},
	item.CategoryMath: {
		{
			Category:     item.CategoryMath,
			Kind:         item.KindMultipleChoice,
			Difficulty:   1,
			Text:         "What is 7 + 8?",
			Options:      []string{"14", "15", "16", "13"},
			CorrectIndex: 1,
			Explanation:  "7 + 8 = 15.",
		},
		{
			Category:     item.CategoryMath,
			Kind:         item.KindMultipleChoice,
			Difficulty:   2,
			Text:         "What is 6 times 9?",
			Options:      []string{"54", "56", "52", "63"},
			CorrectIndex: 0,
			Explanation:  "6 × 9 = 54.",
		},
	},
}

// genericBuiltin is served if a category somehow has no static entries.
var genericBuiltin = item.Item{
	Category:     item.CategoryScience,
	Kind:         item.KindMultipleChoice,
	Difficulty:   1,
	Text:         "How many legs does a spider have?",
	Options:      []string{"Six", "Eight", "Ten", "Four"},
	CorrectIndex: 1,
	Explanation:  "Spiders are arachnids, and all arachnids have eight legs.",
}

// builtinItem returns a copy of a static item for the category with a
// fresh serving id.
func builtinItem(cat item.Category, rng func() float64) *item.Item {
	set := builtins[cat]
	var picked item.Item
	if len(set) == 0 {
		picked = genericBuiltin
	} else {
		picked = set[int(rng()*float64(len(set)))%len(set)]
	}
	it := picked.Clone()
	it.ID = uuid.NewString()
	return it
}
