package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quizforge/internal/corpus"
	"quizforge/internal/dedup"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove near-duplicate questions from the corpus",
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

		cleaner := dedup.NewCleaner(st, st, newLogger())
		removed, err := cleaner.Run(context.Background())
		if err != nil {
			return fmt.Errorf("dedup pass: %w", err)
		}

		if removed == 0 {
			fmt.Println("No duplicates found.")
			return nil
		}
		fmt.Printf("Removed %d duplicate question(s).\n", removed)
		return nil
	},
}
