package csvkit

import (
	"fmt"
	"strings"
)

// Summary renders a human-readable digest of one or more CSV files for the
// planning agent's seed prompt. Files that fail analysis are reported inline
// rather than aborting the whole summary.
func Summary(paths []string) string {
	var sections []string

	for _, path := range paths {
		analysis, err := Analyze(path)
		if err != nil {
			sections = append(sections, fmt.Sprintf("Error analyzing %s: %v", path, err))
			continue
		}
		sections = append(sections, formatAnalysis(analysis))
	}

	return strings.Join(sections, "\n\n"+strings.Repeat("=", 60)+"\n\n")
}

func formatAnalysis(a *FileAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "File: %s\n", a.Filename)
	fmt.Fprintf(&sb, "Path: %s\n", a.Path)
	fmt.Fprintf(&sb, "Rows: %d | Columns: %d | Size: %.2f MB\n", a.RowCount, len(a.Columns), float64(a.SizeBytes)/(1024*1024))
	sb.WriteString("\nColumns:\n")

	for i := range a.Columns {
		col := &a.Columns[i]
		fmt.Fprintf(&sb, "  - %s (%s)", col.Name, col.Type)
		if col.Missing > 0 && a.RowCount > 0 {
			pct := float64(col.Missing) / float64(a.RowCount) * 100
			fmt.Fprintf(&sb, " - %d missing (%.1f%%)", col.Missing, pct)
		}
		sb.WriteString("\n")
	}

	var numeric, categorical []string
	for i := range a.Columns {
		col := &a.Columns[i]
		if col.Stats != nil {
			numeric = append(numeric, fmt.Sprintf("  - %s: min=%g, max=%g, mean=%g, std=%g",
				col.Name, col.Stats.Min, col.Stats.Max, col.Stats.Mean, col.Stats.Std))
		} else if col.Type == TypeString {
			samples := col.Samples
			if len(samples) > 3 {
				samples = samples[:3]
			}
			categorical = append(categorical, fmt.Sprintf("  - %s: %d unique values, e.g. %s",
				col.Name, col.UniqueCount, strings.Join(samples, ", ")))
		}
	}
	if len(numeric) > 0 {
		sb.WriteString("\nNumerical columns:\n")
		sb.WriteString(strings.Join(numeric, "\n"))
		sb.WriteString("\n")
	}
	if len(categorical) > 0 {
		sb.WriteString("\nCategorical columns:\n")
		sb.WriteString(strings.Join(categorical, "\n"))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
