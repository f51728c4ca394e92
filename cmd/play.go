package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"quizforge/internal/corpus"
	"quizforge/internal/item"
	"quizforge/internal/llm"
	"quizforge/internal/picker"
	"quizforge/internal/prefetch"
	"quizforge/internal/quiz"
	"quizforge/internal/synth"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8FAFC"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	correctStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	wrongStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F43F5E"))
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316"))
)

var playCmd = &cobra.Command{
	Use:   "play [category]",
	Short: "Start a quiz session",
	Long: "Start an interactive quiz session. Categories: science, history, geography, math.\n" +
		"Answer with the option number, 'h' if a question is too hard,\n" +
		"'b' to flag a bad illustration, 'q' to quit.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, args)
	},
}

func init() {
	playCmd.Flags().IntP("difficulty", "d", 2, "Starting difficulty (1-5)")
}

// offlineSynthesizer stands in for the backend when no API key is
// configured, so the selection policy's fallback chain serves the
// stored corpus and built-ins instead.
type offlineSynthesizer struct{}

func (offlineSynthesizer) SynthesizeItem(context.Context, synth.Input) (*item.Item, error) {
	return nil, errors.New("no LLM provider configured")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	category, err := pickCategory(args)
	if err != nil {
		return err
	}
	difficulty, _ := cmd.Flags().GetInt("difficulty")

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	st, err := corpus.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = st.Close() }()

	log := newLogger()

	var itemSynth picker.ItemSynthesizer
	var illustrator prefetch.Illustrator
	provider, err := llm.NewProviderFromEnv(ctx, st)
	if err != nil {
		fmt.Fprintln(os.Stderr, dimStyle.Render("LLM provider not configured: "+err.Error()))
		fmt.Fprintln(os.Stderr, dimStyle.Render("Playing from the stored corpus only."))
		itemSynth = offlineSynthesizer{}
	} else {
		s := synth.New(provider, synth.DefaultConfig())
		itemSynth = s
		illustrator = s
	}

	policy := picker.New(picker.DefaultConfig(), itemSynth, st, log)
	buffer := prefetch.New(prefetch.DefaultConfig(), policy, illustrator, st, nil, log)
	controller := quiz.New(buffer, st, log)

	controller.StartSession(category, difficulty)
	fmt.Println(accentStyle.Render(fmt.Sprintf("— %s quiz —", category.DisplayName())))
	fmt.Println(dimStyle.Render("Answer with the option number. 'h' = too hard, 'q' = quit."))

	in := bufio.NewScanner(os.Stdin)
	for {
		it := controller.TakeNext(ctx)
		if it == nil {
			break
		}

		fmt.Println()
		fmt.Println(dimStyle.Render(fmt.Sprintf("[%s · level %d]", it.Category.DisplayName(), it.Difficulty)))

		var done bool
		if it.Kind == item.KindPlacement {
			done = askPlacement(in, controller, it)
		} else {
			done = askMultipleChoice(in, controller, it)
		}
		if done {
			break
		}
	}

	stats := controller.Stats()
	fmt.Println()
	if stats.Answered > 0 {
		fmt.Println(accentStyle.Render(fmt.Sprintf("You got %d of %d right.", stats.Correct, stats.Answered)))
	}
	return nil
}

// askMultipleChoice shows one question and records the outcome. Returns
// true when the player wants to stop.
func askMultipleChoice(in *bufio.Scanner, controller *quiz.Controller, it *item.Item) bool {
	fmt.Println(questionStyle.Render(it.Text))
	for i, opt := range it.Options {
		fmt.Printf("  %d) %s\n", i+1, opt)
	}

	for {
		answer, quitting := prompt(in)
		if quitting {
			return true
		}
		switch answer {
		case "h":
			if err := controller.ReportTooHard(context.Background(), it.ID); err != nil {
				fmt.Fprintln(os.Stderr, "report too hard:", err)
			}
			fmt.Println(dimStyle.Render("Okay, stepping things down a notch."))
			return false
		case "b":
			if it.IllustrationPrompt == "" {
				fmt.Println(dimStyle.Render("This question has no illustration."))
				continue
			}
			if err := controller.ReportBadIllustration(context.Background(), it.IllustrationPrompt); err != nil {
				fmt.Fprintln(os.Stderr, "report bad illustration:", err)
			}
			fmt.Println(dimStyle.Render("Got it, that image won't come back."))
			continue
		default:
			n, err := strconv.Atoi(answer)
			if err != nil || n < 1 || n > len(it.Options) {
				fmt.Println(dimStyle.Render(fmt.Sprintf("Enter 1-%d, 'h', or 'q'.", len(it.Options))))
				continue
			}
			correct := n-1 == it.CorrectIndex
			controller.ReportOutcome(it.ID, correct)
			if correct {
				fmt.Println(correctStyle.Render("Correct!"))
			} else {
				fmt.Println(wrongStyle.Render(fmt.Sprintf("Not quite — it was %q.", it.Options[it.CorrectIndex])))
			}
			if it.Explanation != "" {
				fmt.Println(dimStyle.Render(it.Explanation))
			}
			return false
		}
	}
}

// askPlacement runs a number-line challenge: the player orders the
// values from smallest to largest.
func askPlacement(in *bufio.Scanner, controller *quiz.Controller, it *item.Item) bool {
	fmt.Println(questionStyle.Render(it.Text))
	fmt.Println(dimStyle.Render(fmt.Sprintf("Number line from %d to %d.", it.Placement.Min, it.Placement.Max)))
	fmt.Printf("Values: %s\n", joinInts(it.Placement.Values, ", "))
	fmt.Println(dimStyle.Render("Type them smallest to largest, separated by spaces."))

	want := append([]int(nil), it.Placement.Values...)
	sort.Ints(want)

	for {
		answer, quitting := prompt(in)
		if quitting {
			return true
		}
		if answer == "h" {
			if err := controller.ReportTooHard(context.Background(), it.ID); err != nil {
				fmt.Fprintln(os.Stderr, "report too hard:", err)
			}
			return false
		}

		got, err := parseInts(answer)
		if err != nil || len(got) != len(want) {
			fmt.Println(dimStyle.Render(fmt.Sprintf("Enter %d numbers, 'h', or 'q'.", len(want))))
			continue
		}

		correct := true
		for i := range want {
			if got[i] != want[i] {
				correct = false
				break
			}
		}
		controller.ReportOutcome(it.ID, correct)
		if correct {
			fmt.Println(correctStyle.Render("Correct!"))
		} else {
			fmt.Println(wrongStyle.Render(fmt.Sprintf("The order is %s.", joinInts(want, " "))))
		}
		return false
	}
}

func prompt(in *bufio.Scanner) (answer string, quitting bool) {
	fmt.Print("> ")
	if !in.Scan() {
		return "", true
	}
	answer = strings.ToLower(strings.TrimSpace(in.Text()))
	return answer, answer == "q"
}

func pickCategory(args []string) (item.Category, error) {
	if len(args) == 0 {
		return item.CategoryScience, nil
	}
	cat := item.Category(strings.ToLower(args[0]))
	if !cat.Valid() {
		names := make([]string, 0, len(item.AllCategories()))
		for _, c := range item.AllCategories() {
			names = append(names, string(c))
		}
		return "", fmt.Errorf("unknown category %q (choose one of: %s)", args[0], strings.Join(names, ", "))
	}
	return cat, nil
}

func parseInts(s string) ([]int, error) {
	fields := strings.Fields(s)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSuffix(f, ","))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
