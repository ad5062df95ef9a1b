package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olasis/olasis-service/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search OpenAlex articles and ORCID specialists",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		asJSON, _ := cmd.Flags().GetBool("json")

		agg := search.NewAggregator(newOpenAlex(), newORCID(), search.Config{
			PerPage:   cfg.Search.PerPage,
			BatchSize: cfg.Search.BatchSize,
		}, nil, nil, logger)

		result, err := agg.Search(cmd.Context(), strings.Join(args, " "), page)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		p := result.Pagination
		fmt.Fprintf(out, "Articles (page %d of %d, %d total)\n", p.CurrentPage, p.Articles.TotalPages, p.Articles.Total)
		for _, a := range result.Articles {
			year := "n.d."
			if a.Year != nil {
				year = fmt.Sprint(*a.Year)
			}
			fmt.Fprintf(out, "  - %s (%s) %s\n", a.Title, year, strings.Join(a.Authors, ", "))
		}
		fmt.Fprintf(out, "\nSpecialists (page %d of %d, %d total)\n", p.CurrentPage, p.Specialists.TotalPages, p.Specialists.Total)
		for _, s := range result.Specialists {
			fmt.Fprintf(out, "  - %s %s\n", s.FullName, s.ProfileURL)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("page", 1, "result page")
	searchCmd.Flags().Bool("json", false, "print the API response as JSON")
	rootCmd.AddCommand(searchCmd)
}
