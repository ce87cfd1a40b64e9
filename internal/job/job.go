package job

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"ics-egress/internal/errors"
	"ics-egress/internal/extract"
)

// Artifact file names.
const (
	ConfigFileName    = "sql_config.json"
	QueryFileName     = "generated_query.sql"
	ExecutionFileName = "execution.json"
)

var (
	ErrNegativeRetries = errors.New("retries must be >= 0")
	ErrNegativeDelay   = errors.New("delay_minutes must be >= 0")
	ErrEmptyJobName    = errors.New("job name is empty")
)

// NameFromFile derives a job name from an uploaded file name: directories and
// the final extension are dropped, so "etl/daily.users.sql" becomes "daily.users".
func NameFromFile(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func ExportScriptName(jobName string) string { return jobName + "_export.py" }

func DAGScriptName(jobName string) string { return jobName + "_dag.py" }

// ExportPath is the CSV destination baked into the export script.
func ExportPath(exportDir, jobName string) string {
	if exportDir == "" {
		exportDir = DefaultExportDir
	}
	return strings.TrimRight(exportDir, "/") + "/" + jobName + "_data.csv"
}

// NewConfig assembles the job config from extracted components. The stored
// SQL is the script with surrounding whitespace removed.
func NewConfig(jobName, script string, c extract.Components) Config {
	tables := make([]string, len(c.Tables))
	copy(tables, c.Tables)
	return Config{
		JobName:      jobName,
		SourceTables: tables,
		Columns:      c.Columns,
		WithClause:   c.WithClause,
		WhereClause:  c.WhereClause,
		SQLLogic:     strings.TrimSpace(script),
	}
}

// NewExecution builds the descriptor that runs the job's export script on schedule.
func NewExecution(jobName, schedule string, d Defaults) (Execution, error) {
	if jobName == "" {
		return Execution{}, ErrEmptyJobName
	}
	if d.Retries < 0 {
		return Execution{}, errors.WithDetailf(ErrNegativeRetries, "got %d", d.Retries)
	}
	if d.DelayMinutes < 0 {
		return Execution{}, errors.WithDetailf(ErrNegativeDelay, "got %d", d.DelayMinutes)
	}

	cond := d.ExecutionCondition
	if len(cond) == 0 {
		cond = []string{DefaultExecutionCondition}
	}
	return Execution{
		JobName:            jobName,
		ExecutionCondition: append([]string(nil), cond...),
		CommandLogic:       "python " + ExportScriptName(jobName),
		Schedule:           schedule,
		Retries:            d.Retries,
		DelayMinutes:       d.DelayMinutes,
	}, nil
}

// Marshal renders v as two-space indented, ASCII-only JSON: operators such as
// "<>" stay verbatim, while DEL and non-ASCII runes become \uXXXX escapes
// (surrogate pairs above the BMP), byte-for-byte like Python's json.dumps(indent=2).
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, errors.Wrap(err, "encode json")
	}
	return asciiOnly(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Non-ASCII bytes only occur inside JSON strings, so escaping them in place
// keeps the document valid.
func asciiOnly(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		if c := data[0]; c < utf8.RuneSelf && c != 0x7f {
			out = append(out, c)
			data = data[1:]
			continue
		}
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r > 0xffff {
			hi, lo := utf16.EncodeRune(r)
			out = fmt.Appendf(out, "\\u%04x\\u%04x", hi, lo)
			continue
		}
		out = fmt.Appendf(out, "\\u%04x", r)
	}
	return out
}

// UnmarshalConfig parses a sql_config.json document.
func UnmarshalConfig(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "decode sql config")
	}
	return c, nil
}

// UnmarshalExecution parses an execution.json document.
func UnmarshalExecution(data []byte) (Execution, error) {
	var e Execution
	if err := json.Unmarshal(data, &e); err != nil {
		return Execution{}, errors.Wrap(err, "decode execution descriptor")
	}
	return e, nil
}
