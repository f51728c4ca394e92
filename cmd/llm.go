package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quizforge/internal/corpus"
	"quizforge/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the generative backend",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent backend calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		st, err := corpus.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open corpus: %w", err)
		}
		defer func() { _ = st.Close() }()

		events, err := st.RecentSynthEvents(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No backend calls recorded yet.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-14s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))

		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			model := e.Model
			if len(model) > 28 {
				model = model[:28]
			}
			fmt.Printf("%-5d  %-19s  %-14s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				model,
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the backend configuration",
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
		provider, err := llm.NewProviderFromEnv(ctx, st)
		if err != nil {
			return fmt.Errorf("no usable provider: %w", err)
		}

		fmt.Printf("Provider configured, model: %s\n", provider.ModelID())
		if _, ok := llm.ImageFrom(provider); ok {
			fmt.Println("Illustrations: supported")
		} else {
			fmt.Println("Illustrations: not supported by this provider")
		}
		return nil
	},
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. item-gen, illustration)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmCheckCmd)
}
