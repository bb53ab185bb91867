package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/aistudio/internal/analysis"
	"github.com/KaramelBytes/aistudio/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaJSON       bool
	anaSheetName  string
	anaSheetIndex int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <files...>",
	Short: "Profile CSV/TSV/XLSX/JSON files: types, missing values, duplicates, quality",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}

		reports := make([]analysis.DatasetAnalysis, 0, len(files))
		for _, path := range files {
			a, err := analyzeOne(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports = append(reports, a)
		}

		var body []byte
		if anaJSON {
			var v any = reports
			if len(reports) == 1 {
				v = reports[0]
			}
			if body, err = utils.PrettyJSON(v); err != nil {
				return err
			}
		} else {
			parts := make([]string, len(reports))
			for i, a := range reports {
				parts[i] = a.Markdown()
			}
			body = []byte(strings.Join(parts, "\n"))
		}

		out := cmd.OutOrStdout()
		if anaOutputPath == "" {
			fmt.Fprintln(out, string(body))
			return nil
		}
		if err := utils.EnsureDir(filepath.Dir(anaOutputPath)); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(anaOutputPath, body); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(out, "✓ Wrote analysis of %d file(s) to %s\n", len(reports), anaOutputPath)
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, and returns a
// sorted, de-duplicated list.
func expandInputs(args []string) ([]string, error) {
	seen := map[string]struct{}{}
	var files []string
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func analyzeOne(path string) (analysis.DatasetAnalysis, error) {
	format, ok := analysis.DetectFormat(path)
	if ok && format == analysis.FormatXLSX && (anaSheetName != "" || anaSheetIndex > 1) {
		t, err := analysis.LoadXLSX(path, anaSheetName, anaSheetIndex)
		if err != nil {
			return analysis.DatasetAnalysis{}, err
		}
		a := analysis.Analyze(t.Rows, t.Columns)
		a.Name = filepath.Base(path)
		a.Format = string(format)
		return a, nil
	}
	return analysis.AnalyzeFile(path)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit JSON instead of Markdown")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	analyzeCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}
