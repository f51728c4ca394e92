package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quizforge/internal/corpus"
	"quizforge/internal/item"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		st, err := corpus.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open corpus: %w", err)
		}
		defer func() { _ = st.Close() }()

		ctx := context.Background()

		fmt.Println("Questions by category")
		fmt.Println(strings.Repeat("─", 32))
		total := 0
		for _, cat := range item.AllCategories() {
			n, err := st.CountByCategory(ctx, cat)
			if err != nil {
				return fmt.Errorf("count %s: %w", cat, err)
			}
			fmt.Printf("%-12s  %6d\n", cat.DisplayName(), n)
			total += n
		}
		fmt.Println(strings.Repeat("─", 32))
		fmt.Printf("%-12s  %6d\n", "TOTAL", total)

		images, err := st.IllustrationCount(ctx)
		if err != nil {
			return fmt.Errorf("count illustrations: %w", err)
		}
		fmt.Printf("\nCached illustrations: %d\n", images)
		return nil
	},
}
