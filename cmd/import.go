package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/datasets"
	"github.com/spf13/cobra"
)

var (
	impProject  string
	impJSON     bool
	fetchSize   string
	fetchJSON   bool
	histProject string
	histLimit   int
)

var importCmd = &cobra.Command{
	Use:   "import <owner/dataset>",
	Short: "Download a dataset into the project folder and profile it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		st, err := openStore(cmd.Context(), c, logger)
		if err != nil {
			return err
		}
		var recorder datasets.Recorder
		if st != nil {
			defer st.Close()
			recorder = st
		}

		im := datasets.NewImporter(cat.Source(), c.DownloadsDir, recorder, logger)
		res, err := im.Import(cmd.Context(), args[0], impProject)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if impJSON {
			return printJSON(out, res)
		}
		fmt.Fprintf(out, "✓ Imported %s into %s (source: %s)\n", res.DatasetID, res.DownloadPath, res.Source)
		fmt.Fprintf(out, "  files: %s\n", strings.Join(res.Files, ", "))
		fmt.Fprintf(out, "  %d rows x %d columns, quality %s\n", res.Analysis.TotalRows, res.Analysis.TotalColumns, res.Analysis.DataQuality)
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <topic...>",
	Short: "Pick the best-matching dataset for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		af := datasets.NewAutoFetcher(cat, buildSynthesizer(c, logger), logger)
		res, err := af.AutoFetch(cmd.Context(), strings.Join(args, " "), fetchSize)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if fetchJSON {
			return printJSON(out, res)
		}
		fmt.Fprintf(out, "Selected: %s  [%s]\n", res.SelectedDataset.Title, res.SelectedDataset.Ref)
		fmt.Fprintf(out, "Score %d, source %s\n", res.MatchScore, res.Source)
		fmt.Fprintf(out, "%s\n", res.Reasoning)
		fmt.Fprintf(out, "Estimate: %s task, ~%d samples, %d features, %s complexity\n",
			res.Analysis.TaskType, res.Analysis.TotalSamples, res.Analysis.FeatureCount, res.Analysis.Complexity)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded imports (requires database_driver)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(c)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		st, err := openStore(cmd.Context(), c, logger)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("import history is disabled; set database_driver and database_dsn")
		}
		defer st.Close()
		recs, err := st.List(cmd.Context(), histProject, histLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "(no imports)")
			return nil
		}
		for _, r := range recs {
			fmt.Fprintf(out, "- %s  %s/%s  %s  %d rows  %s\n",
				r.CreatedAt.Format("2006-01-02 15:04"), r.ProjectID, r.DatasetRef, r.Source, r.TotalRows, r.DataQuality)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(historyCmd)
	importCmd.Flags().StringVarP(&impProject, "project", "p", datasets.DefaultProject, "project folder under downloads_dir")
	importCmd.Flags().BoolVar(&impJSON, "json", false, "print raw JSON")
	fetchCmd.Flags().StringVar(&fetchSize, "size", "", "preferred dataset size: small|medium|large")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print raw JSON")
	historyCmd.Flags().StringVarP(&histProject, "project", "p", "", "only this project")
	historyCmd.Flags().IntVar(&histLimit, "limit", 50, "max records")
}
