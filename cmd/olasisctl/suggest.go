package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olasis/olasis-service/internal/domain"
	"github.com/olasis/olasis-service/internal/suggestions"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "List chat suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		langCode, _ := cmd.Flags().GetString("lang")
		contextTag, _ := cmd.Flags().GetString("context")
		field, _ := cmd.Flags().GetString("field")
		history, _ := cmd.Flags().GetStringArray("history")
		count, _ := cmd.Flags().GetInt("count")
		if count < 1 {
			return fmt.Errorf("count must be positive")
		}

		catalog, err := suggestions.LoadCatalog(cfg.Suggestions.CatalogPath)
		if err != nil {
			return err
		}
		gen := suggestions.NewGenerator(catalog, cfg.Suggestions.Seed)

		lang, ok := domain.ParseLanguage(langCode)
		if !ok {
			lang = suggestions.DefaultLanguage
		}

		var sel suggestions.Selection
		switch {
		case field != "":
			sel = gen.ByField(lang, field, count)
		case len(history) > 0:
			sel = gen.Adaptive(lang, history, count)
		default:
			sel = gen.ByContext(lang, contextTag, count)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "mode=%s context=%s field=%s\n", sel.Mode, sel.Context, sel.Field)
		for _, s := range sel.Suggestions {
			fmt.Fprintf(out, "  - %s\n", s)
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().String("lang", "pt", "catalog language (en, es, pt)")
	suggestCmd.Flags().String("context", suggestions.ContextGeneral, "context tag")
	suggestCmd.Flags().String("field", "", "field of study")
	suggestCmd.Flags().StringArray("history", nil, "previous question (repeatable)")
	suggestCmd.Flags().Int("count", 4, "number of suggestions")
	rootCmd.AddCommand(suggestCmd)
}
