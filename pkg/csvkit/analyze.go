// Package csvkit analyzes CSV data sources so the planning agent can reason
// about column structure, types, and data quality before proposing a workflow.
package csvkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"irabuilder/pkg/logx"
)

// ColumnType is the inferred type of a CSV column.
type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeBool    ColumnType = "bool"
	TypeDate    ColumnType = "date"
	TypeString  ColumnType = "string"
)

// NumericStats summarizes a numeric column.
type NumericStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// ColumnInfo describes one column of a CSV file.
type ColumnInfo struct {
	Name        string        `json:"name"`
	Type        ColumnType    `json:"type"`
	Missing     int           `json:"missing"`
	UniqueCount int           `json:"unique_count"`
	Samples     []string      `json:"samples"`
	Stats       *NumericStats `json:"stats,omitempty"`
}

// FileAnalysis is the structural metadata of a single CSV file.
type FileAnalysis struct {
	Filename   string       `json:"filename"`
	Path       string       `json:"path"`
	RowCount   int          `json:"row_count"`
	Columns    []ColumnInfo `json:"columns"`
	SizeBytes  int64        `json:"size_bytes"`
	AnalyzedAt time.Time    `json:"analyzed_at"`
}

const (
	sampleLimit = 5
	// Columns with more values than this are not tracked for uniqueness.
	uniqueTrackLimit = 10000
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ].*)?$|^\d{2}/\d{2}/\d{4}$`)
	logger      = logx.NewLogger("csvkit")
)

// Analyze reads a CSV file and returns per-column structural metadata.
func Analyze(path string) (*FileAnalysis, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("csv file not found: %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".txt" {
		return nil, fmt.Errorf("file is not a CSV: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file is empty: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	cols := make([]*columnAccumulator, len(header))
	for i, name := range header {
		cols[i] = newColumnAccumulator(strings.TrimSpace(name))
	}

	rowCount := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv format in %s at row %d: %w", path, rowCount+2, err)
		}
		rowCount++
		for i := range cols {
			if i < len(record) {
				cols[i].observe(record[i])
			} else {
				cols[i].observe("")
			}
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	analysis := &FileAnalysis{
		Filename:   filepath.Base(path),
		Path:       abs,
		RowCount:   rowCount,
		SizeBytes:  info.Size(),
		AnalyzedAt: time.Now().UTC(),
	}
	for i := range cols {
		analysis.Columns = append(analysis.Columns, cols[i].finish())
	}

	logger.Info("analyzed %s: %d rows, %d columns", analysis.Filename, rowCount, len(analysis.Columns))
	return analysis, nil
}

// ColumnNames returns the column names in file order.
func (a *FileAnalysis) ColumnNames() []string {
	names := make([]string, 0, len(a.Columns))
	for i := range a.Columns {
		names = append(names, a.Columns[i].Name)
	}
	return names
}

// columnAccumulator infers a column's type and statistics in one pass.
type columnAccumulator struct {
	name    string
	samples []string
	missing int
	seen    int

	unique        map[string]struct{}
	uniqueOverrun bool

	nonInt, nonFloat, nonBool, nonDate bool
	sum, sumSq, min, max               float64
	numericCount                       int
}

func newColumnAccumulator(name string) *columnAccumulator {
	return &columnAccumulator{
		name:   name,
		unique: make(map[string]struct{}),
		min:    math.Inf(1),
		max:    math.Inf(-1),
	}
}

func (c *columnAccumulator) observe(value string) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "null") || strings.EqualFold(value, "na") || strings.EqualFold(value, "nan") {
		c.missing++
		return
	}
	c.seen++

	if len(c.samples) < sampleLimit {
		c.samples = append(c.samples, value)
	}
	if !c.uniqueOverrun {
		c.unique[value] = struct{}{}
		if len(c.unique) > uniqueTrackLimit {
			c.uniqueOverrun = true
			c.unique = nil
		}
	}

	if !c.nonInt {
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			c.nonInt = true
		}
	}
	if !c.nonFloat {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			c.numericCount++
			c.sum += v
			c.sumSq += v * v
			if v < c.min {
				c.min = v
			}
			if v > c.max {
				c.max = v
			}
		} else {
			c.nonFloat = true
		}
	}
	if !c.nonBool {
		lower := strings.ToLower(value)
		if lower != "true" && lower != "false" && lower != "yes" && lower != "no" && value != "0" && value != "1" {
			c.nonBool = true
		}
	}
	if !c.nonDate && !datePattern.MatchString(value) {
		c.nonDate = true
	}
}

func (c *columnAccumulator) finish() ColumnInfo {
	info := ColumnInfo{
		Name:    c.name,
		Type:    c.inferredType(),
		Missing: c.missing,
		Samples: c.samples,
	}
	if c.unique != nil {
		info.UniqueCount = len(c.unique)
	} else {
		info.UniqueCount = c.seen
	}
	if (info.Type == TypeInteger || info.Type == TypeFloat) && c.numericCount > 0 {
		mean := c.sum / float64(c.numericCount)
		variance := c.sumSq/float64(c.numericCount) - mean*mean
		if variance < 0 {
			variance = 0
		}
		info.Stats = &NumericStats{
			Count: c.numericCount,
			Min:   c.min,
			Max:   c.max,
			Mean:  round2(mean),
			Std:   round2(math.Sqrt(variance)),
		}
	}
	return info
}

func (c *columnAccumulator) inferredType() ColumnType {
	if c.seen == 0 {
		return TypeString
	}
	switch {
	case !c.nonBool:
		return TypeBool
	case !c.nonInt:
		return TypeInteger
	case !c.nonFloat:
		return TypeFloat
	case !c.nonDate:
		return TypeDate
	default:
		return TypeString
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CompareSchemas finds columns shared across files and suggests join keys.
// Columns whose names contain id, key, or code are treated as join candidates.
func CompareSchemas(analyses []*FileAnalysis) (common []string, joinKeys []string) {
	if len(analyses) < 2 {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, a := range analyses {
		for _, name := range a.ColumnNames() {
			counts[name]++
		}
	}
	for name, n := range counts {
		if n == len(analyses) {
			common = append(common, name)
			lower := strings.ToLower(name)
			if strings.Contains(lower, "id") || strings.Contains(lower, "key") || strings.Contains(lower, "code") {
				joinKeys = append(joinKeys, name)
			}
		}
	}
	sort.Strings(common)
	sort.Strings(joinKeys)
	return common, joinKeys
}
