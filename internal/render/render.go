// Package render fills the fixed export and orchestration script templates.
// Values are inserted verbatim; nothing is quoted or validated.
package render

import (
	"embed"
	"strings"
	"text/template"

	"ics-egress/internal/job"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type exportData struct {
	SQL         string
	Destination string
}

type dagData struct {
	JobName    string
	ExportFile string
	Exec       job.Execution
}

// ExportScript returns a BigQuery-to-CSV export script running sql and
// writing to destination.
func ExportScript(sql, destination string) string {
	return execute("export.py.tmpl", exportData{SQL: sql, Destination: destination})
}

// DAGScript returns an Airflow DAG with two steps: a short-circuit gate that
// checks exportFile exists, then a task running exec.CommandLogic that
// re-raises on a non-zero exit.
func DAGScript(jobName, exportFile string, exec job.Execution) string {
	return execute("dag.py.tmpl", dagData{JobName: jobName, ExportFile: exportFile, Exec: exec})
}

// The templates only reference fields of the data structs above, so
// execution cannot fail once parsing succeeded at init.
func execute(name string, data interface{}) string {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		panic(err)
	}
	return sb.String()
}
