package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"lasrouter/internal/core/version"

	"github.com/spf13/cobra"
)

var rootFlags struct {
	logLevel string
	ledger   string
	catalog  string
	provider string
	model    string
}

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lasrouter",
		Short: "Route plain-language well-log requests to LAS analysis scripts",
		Long: "lasrouter resolves free-text analysis requests against a fixed catalog of\n" +
			"(script, LAS file, tool) triples, runs the chosen analysis and records the outcome.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version.Info().String(),
		PersistentPreRun: func(*cobra.Command, []string) {
			// flags win over the environment; export them so every FromConfig sees the same view
			mustSetEnv("LOG_LEVEL", rootFlags.logLevel)
			mustSetEnv("LASROUTER_LEDGER_PATH", rootFlags.ledger)
			mustSetEnv("LASROUTER_CATALOG_FILE", rootFlags.catalog)
			mustSetEnv("LASROUTER_MODEL_PROVIDER", rootFlags.provider)
			mustSetEnv("LASROUTER_MODEL_NAME", rootFlags.model)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "log level: trace | debug | info | warn | error")
	pf.StringVar(&rootFlags.ledger, "ledger", "", "path of the file ledger")
	pf.StringVar(&rootFlags.catalog, "catalog", "", "catalog yaml overriding the built-in triples")
	pf.StringVar(&rootFlags.provider, "model-provider", "", "model provider: none | openai | ollama | anthropic | gemini")
	pf.StringVar(&rootFlags.model, "model", "", "model name for the chosen provider")

	root.AddCommand(newServeCmd(), newQueryCmd(), newResolveCmd(), newCatalogCmd())
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
