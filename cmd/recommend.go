package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/catalog"
	"github.com/KaramelBytes/aistudio/internal/ranking"
	"github.com/KaramelBytes/aistudio/internal/recommend"
	"github.com/spf13/cobra"
)

var (
	recDescription string
	recTask        string
	recTop         int
	recJSON        bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <topic...>",
	Short: "Infer the ML task for a topic and rank candidate datasets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if recTask != "" {
			if _, ok := recommend.ParseTaskType(recTask); !ok {
				return fmt.Errorf("invalid --task: %s", recTask)
			}
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

		topic := strings.Join(args, " ")
		synth := buildSynthesizer(c, logger)
		rec := synth.Recommend(cmd.Context(), topic, recDescription, recTask)

		cat, release := buildCatalog(cmd.Context(), c, logger)
		defer release()
		found := cat.Search(cmd.Context(), catalog.Query{Text: topic})
		ranked := ranking.Rank(found.Entries, rec, rec.IdealDatasetSize)
		cands := ranked.Candidates
		if recTop > 0 && len(cands) > recTop {
			cands = cands[:recTop]
		}

		out := cmd.OutOrStdout()
		if recJSON {
			return printJSON(out, map[string]any{
				"recommendation": rec,
				"candidates":     cands,
				"fromShortlist":  ranked.FromShortlist,
			})
		}
		fmt.Fprintf(out, "Task: %s  (domain %s, confidence %.2f, via %s)\n", rec.TaskType, rec.Domain, rec.Confidence, rec.Origin)
		fmt.Fprintf(out, "Ideal size: %s\n", rec.IdealDatasetSize)
		if len(rec.RequiredFeatures) > 0 {
			fmt.Fprintf(out, "Features: %s\n", strings.Join(rec.RequiredFeatures, ", "))
		}
		for _, d := range rec.RecommendedDatasets {
			fmt.Fprintf(out, "  %d. %s: %s\n", d.Priority, d.Name, d.Reason)
		}
		if ranked.FromShortlist {
			fmt.Fprintln(out, "\nNo strong catalog match; general-purpose shortlist:")
		} else {
			fmt.Fprintln(out, "\nCandidates:")
		}
		for _, sc := range cands {
			fmt.Fprintf(out, "- %-6d %s  [%s]\n", sc.Score, sc.Title, sc.Ref)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVarP(&recDescription, "description", "d", "", "longer project description")
	recommendCmd.Flags().StringVar(&recTask, "task", "", "task type hint")
	recommendCmd.Flags().IntVar(&recTop, "top", 5, "number of candidates to show")
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "print raw JSON")
}
