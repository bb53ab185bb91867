package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/utils"
	"github.com/spf13/cobra"
)

var (
	searchSort string
	searchPage int
	searchSize int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the dataset catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchSort != "" && !catalog.ValidSort(searchSort) {
			return fmt.Errorf("invalid --sort: %s (use %s)", searchSort, strings.Join(catalog.SortOrders, ", "))
		}
		if searchSize > 100 {
			return fmt.Errorf("--size must be at most 100")
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		cat, release := buildCatalog(cmd.Context(), c, logger)
		defer release()
		q := catalog.Query{Text: strings.Join(args, " "), Sort: searchSort, Page: searchPage, PageSize: searchSize}
		res := cat.Search(cmd.Context(), q)

		out := cmd.OutOrStdout()
		if searchJSON {
			return printJSON(out, res.Entries)
		}
		if res.Degraded != nil && cat.Configured() {
			fmt.Fprintf(out, "⚠ Catalog unavailable, showing curated datasets (%v)\n", res.Degraded)
		}
		if len(res.Entries) == 0 {
			fmt.Fprintln(out, "(no datasets found)")
			return nil
		}
		for _, e := range res.Entries {
			fmt.Fprintf(out, "- %s  [%s]\n  %s\n  %s | %d downloads | %d votes | usability %.2f\n",
				e.Title, e.Ref, e.Subtitle, e.Size, e.DownloadCount, e.VoteCount, e.UsabilityRating)
		}
		fmt.Fprintf(out, "\n%d datasets (source: %s)\n", len(res.Entries), res.Source)
		return nil
	},
}

func printJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "sort order: "+strings.Join(catalog.SortOrders, "|"))
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "result page")
	searchCmd.Flags().IntVar(&searchSize, "size", 20, "results per page (max 100)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print raw JSON")
}
