// ScholarStream serves a retrieval-augmented chat API over a corpus of
// transcribed source documents.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "scholarstream",
	Short: "Retrieval-augmented chat over a transcript corpus",
	Long: `ScholarStream answers questions from a corpus of transcribed source
documents: it embeds the question, retrieves similar passages from a
vector store, and streams a generated answer cited to its sources.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (optional, env vars take precedence)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
}

func main() {
	// A .env file is optional and only eases local development.
	_ = godotenv.Load()

	setupLogger()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger() {
	level := slog.LevelInfo
	if os.Getenv("SCHOLARSTREAM_MODE") != "prod" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
