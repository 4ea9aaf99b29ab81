package export

import (
	"path/filepath"
	"strings"
	"time"
)

// Format identifies an output file format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatUnknown Format = "unknown"
)

// DetectFileFormat infers the output format from the file extension.
func DetectFileFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet
	case ".csv":
		return FormatCSV
	case ".json", ".jsonl":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// Config contains export pipeline configuration
type Config struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"` // 1000
}

// Result summarizes one export run.
type Result struct {
	TotalRecords int64         `json:"total_records"`
	Batches      int64         `json:"batches"`
	Duration     time.Duration `json:"duration"`
	OutputFile   string        `json:"output_file"`
}
