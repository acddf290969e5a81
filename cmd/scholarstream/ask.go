package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/scholarstream/scholarstream/internal/persona"
	"github.com/scholarstream/scholarstream/internal/profile"
	"github.com/scholarstream/scholarstream/plugin/ai"
	"github.com/scholarstream/scholarstream/server/rag"
	"github.com/scholarstream/scholarstream/store"
	"github.com/scholarstream/scholarstream/store/db"
)

var (
	askAuthor      string
	askSourceType  string
	askResultCount int
	askMaxTokens   int
	askPersona     string
	askMode        string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question from the terminal",
	Long: `Ask runs a single retrieval and generation turn without the HTTP
server and prints the streamed answer with its cited sources.

Examples:
  scholarstream ask "What breaks a fast?"
  scholarstream ask "What about ketosis?" --author "Dr. Berg" --count 5`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askAuthor, "author", "", "filter sources by author")
	askCmd.Flags().StringVar(&askSourceType, "source-type", "", "filter sources by source type")
	askCmd.Flags().IntVar(&askResultCount, "count", 0, "number of sources to retrieve (3-10)")
	askCmd.Flags().IntVar(&askMaxTokens, "max-tokens", 0, "output token budget (500-3000)")
	askCmd.Flags().StringVar(&askPersona, "persona", "", "persona to answer as (empty for a neutral analyst)")
	askCmd.Flags().StringVar(&askMode, "mode", "", "search mode (flat or hybrid)")
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F780FF")).Bold(true)
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
)

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx := context.Background()

	p, err := profile.Load(configFile)
	if err != nil {
		return err
	}

	driver, err := db.NewDriver(p)
	if err != nil {
		return err
	}
	st := store.New(driver, p)
	defer st.Close()

	personas, err := persona.NewRegistry(p.PersonaDir)
	if err != nil {
		return err
	}

	engine := rag.NewEngine(st, ai.NewProvider(p), personas, p)

	result, err := engine.Answer(ctx, rag.Query{
		Question: question,
		Facets: rag.Facets{
			Author:     askAuthor,
			SourceType: askSourceType,
		},
		ResultCount:     askResultCount,
		MaxOutputTokens: askMaxTokens,
		Persona:         askPersona,
		Mode:            askMode,
	})
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Answer:"))
	fmt.Println()

	for fragment := range result.Fragments {
		fmt.Print(fragment)
	}
	if streamErr := <-result.Errs; streamErr != nil {
		fmt.Println()
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), streamErr)
	}
	fmt.Println()

	fmt.Println()
	fmt.Println(headerStyle.Render("Sources:"))
	for i, s := range result.Sources {
		line := fmt.Sprintf("[Source %d] %s (%s)", i+1, s.Title, s.Author)
		if s.URL != "" {
			line += " " + s.URL
		}
		fmt.Println(sourceStyle.Render(line))
	}

	return nil
}
