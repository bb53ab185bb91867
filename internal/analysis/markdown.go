package analysis

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Markdown renders a compact report for terminals or prompts.
func (a DatasetAnalysis) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if a.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", a.Name)
	}
	if a.Format != "" {
		fmt.Fprintf(&b, "Format: %s\n", a.Format)
	}
	fmt.Fprintf(&b, "Rows: %d\n", a.TotalRows)
	fmt.Fprintf(&b, "Columns: %d\n", a.TotalColumns)
	fmt.Fprintf(&b, "Quality: %s (missing %d, %.2f%%; duplicates %d, %.2f%%)\n\n",
		a.DataQuality, a.MissingValues, a.MissingPercentage, a.Duplicates, a.DuplicatePercentage)

	b.WriteString("[SCHEMA]\n")
	for _, c := range a.Columns {
		fmt.Fprintf(&b, "- %s: %s", safeName(c.Name), c.Type)
		if c.Missing > 0 {
			fmt.Fprintf(&b, " (missing %d)", c.Missing)
		}
		if s := c.Stats; s != nil {
			fmt.Fprintf(&b, " | min=%.4g max=%.4g mean=%.4g std=%.4g", s.Min, s.Max, s.Mean, s.Std)
			if s.Outliers > 0 {
				fmt.Fprintf(&b, " | outliers: %d above |z|>%.1f", s.Outliers, outlierZ)
			}
		} else if len(c.SampleValues) > 0 {
			vals := make([]string, len(c.SampleValues))
			for i, v := range c.SampleValues {
				vals[i] = safeVal(cast.ToString(v))
			}
			fmt.Fprintf(&b, " | e.g. %s", strings.Join(vals, ", "))
		}
		b.WriteString("\n")
	}

	if len(a.Preview) > 0 && len(a.Columns) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n|")
		for _, c := range a.Columns {
			b.WriteString(" " + safeVal(c.Name) + " |")
		}
		b.WriteString("\n|")
		for range a.Columns {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range a.Preview {
			b.WriteString("|")
			for _, c := range a.Columns {
				b.WriteString(" " + safeVal(cast.ToString(row[c.Name])) + " |")
			}
			b.WriteString("\n")
		}
	}
	if len(a.Insights) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, s := range a.Insights {
			b.WriteString("- " + s + "\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
