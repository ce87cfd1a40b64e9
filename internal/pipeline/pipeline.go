// Package pipeline composes extraction, job records and script rendering into
// the five downloadable artifacts of one uploaded script.
package pipeline

import (
	"path"
	"strings"
	"unicode/utf8"

	"ics-egress/internal/errors"
	"ics-egress/internal/extract"
	"ics-egress/internal/job"
	"ics-egress/internal/render"
)

// AllowedExtensions are the upload types accepted by the form and CLI.
var AllowedExtensions = []string{".sql", ".bteq", ".txt", ".py", ".sh", ".java", ".cs"}

var (
	ErrUnsupportedExtension = errors.New("unsupported script extension")
	ErrInvalidUTF8          = errors.New("script is not valid UTF-8")
)

// Artifact is one named text output.
type Artifact struct {
	Name    string
	Content string
}

// Bundle holds every stage of one run. Nothing in it is mutated after Build.
type Bundle struct {
	JobName      string
	Components   extract.Components
	Config       job.Config
	Execution    job.Execution
	ExportPath   string
	ExportScript string
	DAGScript    string
}

// CheckUpload validates the file name extension and encoding of an upload.
func CheckUpload(filename string, data []byte) error {
	ext := strings.ToLower(path.Ext(filename))
	allowed := false
	for _, a := range AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.WithHintf(errors.Wrapf(ErrUnsupportedExtension, "%q", filename),
			"accepted extensions: %s", strings.Join(AllowedExtensions, ", "))
	}
	if !utf8.Valid(data) {
		return errors.Wrapf(ErrInvalidUTF8, "%q", filename)
	}
	return nil
}

// Build runs the whole chain for script uploaded as filename.
func Build(filename, script string, d job.Defaults) (*Bundle, error) {
	name := job.NameFromFile(filename)
	if name == "" {
		return nil, errors.Wrapf(job.ErrEmptyJobName, "file name %q", filename)
	}

	comps := extract.Extract(script)
	cfg := job.NewConfig(name, script, comps)

	exec, err := job.NewExecution(name, comps.Schedule, d)
	if err != nil {
		return nil, errors.Wrap(err, "execution descriptor")
	}

	exportPath := job.ExportPath(d.ExportDir, name)
	return &Bundle{
		JobName:      name,
		Components:   comps,
		Config:       cfg,
		Execution:    exec,
		ExportPath:   exportPath,
		ExportScript: render.ExportScript(cfg.SQLLogic, exportPath),
		DAGScript:    render.DAGScript(name, job.ExportScriptName(name), exec),
	}, nil
}

// Artifacts returns the downloadable outputs in display order.
func (b *Bundle) Artifacts() ([]Artifact, error) {
	cfgJSON, err := job.Marshal(b.Config)
	if err != nil {
		return nil, err
	}
	execJSON, err := job.Marshal(b.Execution)
	if err != nil {
		return nil, err
	}
	return []Artifact{
		{Name: job.ConfigFileName, Content: string(cfgJSON)},
		{Name: job.QueryFileName, Content: b.Config.SQLLogic},
		{Name: job.ExecutionFileName, Content: string(execJSON)},
		{Name: job.ExportScriptName(b.JobName), Content: b.ExportScript},
		{Name: job.DAGScriptName(b.JobName), Content: b.DAGScript},
	}, nil
}

// Artifact looks up a single output by file name.
func (b *Bundle) Artifact(name string) (Artifact, bool, error) {
	all, err := b.Artifacts()
	if err != nil {
		return Artifact{}, false, err
	}
	for _, a := range all {
		if a.Name == name {
			return a, true, nil
		}
	}
	return Artifact{}, false, nil
}
