package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizforge/internal/corpus"
)

var rootCmd = &cobra.Command{
	Use:   "quizforge",
	Short: "Adaptive trivia quiz for the terminal",
	Long:  "QuizForge — terminal quiz that grows its own question corpus with AI and adapts difficulty as you play.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZFORGE_DB env var)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then QUIZFORGE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, corpus.EnsureDir(p)
	}
	return corpus.DefaultDBPath()
}

// newLogger returns the engine logger: silent unless QUIZFORGE_DEBUG is
// set, so log lines never interleave with quiz output.
func newLogger() *zap.Logger {
	if os.Getenv("QUIZFORGE_DEBUG") == "" {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
