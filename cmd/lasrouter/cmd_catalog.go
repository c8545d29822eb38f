package main

import (
	cathttp "lasrouter/internal/services/api/catalog/http"

	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the analysis triples, highest match priority first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(configRoot())
			if err != nil {
				return err
			}
			def := cat.Default()
			rows := make([]cathttp.Entry, 0, cat.Len())
			for _, t := range cat.Priority() {
				rows = append(rows, cathttp.Entry{Triple: t, Default: t.Equal(def)})
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
}
