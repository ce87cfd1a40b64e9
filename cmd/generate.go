package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ics-egress/internal/errors"
	"ics-egress/internal/job"
	"ics-egress/internal/logger"
	"ics-egress/internal/pipeline"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dryRun     bool
	noProgress bool
)

// ErrDuplicateJob marks a script whose job name was already used in the same run.
var ErrDuplicateJob = errors.New("duplicate job name")

// generateResult is one line of the summary report.
type generateResult struct {
	File     string
	JobName  string
	Tables   int
	Schedule string
	Written  int
	ErrorMsg string
}

var generateCmd = &cobra.Command{
	Use:   "generate [script or directory]...",
	Short: "Generate config, execution descriptor, export script and DAG for each script",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := GetJobDefaults()
		if err != nil {
			return err
		}
		outDir := viper.GetString("settings.output_dir")

		files, err := collectScripts(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return errors.WithHintf(errors.New("no scripts found"),
				"accepted extensions: %s", strings.Join(pipeline.AllowedExtensions, ", "))
		}

		if dryRun {
			logger.Logger.Infow("Dry-run: nothing will be written", "scripts", len(files))
			fmt.Printf("🔍 Extraction Results:\n")
			for i, f := range files {
				b, err := buildFromFile(f, defaults)
				if err != nil {
					fmt.Printf("[%02d] %s : %v\n", i+1, f, err)
					continue
				}
				fmt.Printf("[%02d] %s -> job %s (tables: %v, schedule: %q)\n",
					i+1, f, b.JobName, b.Config.SourceTables, b.Execution.Schedule)
			}
			return nil
		}

		logger.Logger.Infow("Generating artifacts", "scripts", len(files), "out", outDir)
		start := time.Now()

		var bar *uiprogress.Bar
		if !noProgress {
			uiprogress.Start()
			bar = uiprogress.AddBar(len(files)).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return "Generating: "
			})
		}

		results := generateAll(files, outDir, defaults, func() {
			if bar != nil {
				bar.Incr()
			}
		})

		if bar != nil {
			uiprogress.Stop()
		}

		failed := printReport(results)
		logger.Logger.Infow("Generation done", "elapsed", time.Since(start), "failed", failed)
		if failed > 0 {
			return errors.Newf("%d of %d scripts failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("out", "o", "", "output directory (overrides settings.output_dir)")
	generateCmd.Flags().Int("retries", 0, "retries written to execution.json (overrides config)")
	generateCmd.Flags().Int("delay-minutes", 0, "retry delay in minutes (overrides config)")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show extraction results without writing files")
	generateCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	viper.BindPFlag("settings.output_dir", generateCmd.Flags().Lookup("out"))
	viper.BindPFlag("settings.retries", generateCmd.Flags().Lookup("retries"))
	viper.BindPFlag("settings.delay_minutes", generateCmd.Flags().Lookup("delay-minutes"))
}

// collectScripts expands directories into the accepted script files beneath
// them. Explicit file arguments are kept and checked later.
func collectScripts(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", arg)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if hasAllowedExtension(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk %s", arg)
		}
	}
	sort.Strings(files)
	return files, nil
}

func hasAllowedExtension(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, a := range pipeline.AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

func buildFromFile(path string, defaults job.Defaults) (*pipeline.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	name := filepath.Base(path)
	if err := pipeline.CheckUpload(name, data); err != nil {
		return nil, err
	}
	return pipeline.Build(name, string(data), defaults)
}

// generateAll runs generateOne for every file. A job name already written in
// this run fails the later file instead of overwriting the earlier output.
func generateAll(files []string, outDir string, defaults job.Defaults, onProgress func()) []generateResult {
	owners := make(map[string]string)
	results := make([]generateResult, 0, len(files))
	for _, f := range files {
		results = append(results, generateOne(f, outDir, defaults, owners))
		onProgress()
	}
	return results
}

// generateOne builds and writes one script. owners maps job names already
// claimed in this run to their source file.
func generateOne(path, outDir string, defaults job.Defaults, owners map[string]string) generateResult {
	r := generateResult{File: path}
	b, err := buildFromFile(path, defaults)
	if err != nil {
		r.ErrorMsg = err.Error()
		return r
	}
	r.JobName = b.JobName
	r.Tables = len(b.Config.SourceTables)
	r.Schedule = b.Execution.Schedule

	if prev, ok := owners[b.JobName]; ok {
		r.ErrorMsg = errors.Wrapf(ErrDuplicateJob, "job %q already generated from %s", b.JobName, prev).Error()
		return r
	}
	owners[b.JobName] = path

	written, err := writeBundle(outDir, b)
	r.Written = len(written)
	if err != nil {
		r.ErrorMsg = err.Error()
	}
	return r
}

// writeBundle writes every artifact into outDir/<job_name>/ and returns the paths written.
func writeBundle(outDir string, b *pipeline.Bundle) ([]string, error) {
	dir := filepath.Join(outDir, b.JobName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}

	arts, err := b.Artifacts()
	if err != nil {
		return nil, err
	}
	var written []string
	for _, a := range arts {
		p := filepath.Join(dir, a.Name)
		if err := os.WriteFile(p, []byte(a.Content), 0o644); err != nil {
			return written, errors.Wrapf(err, "write %s", p)
		}
		written = append(written, p)
	}
	return written, nil
}

func printReport(results []generateResult) int {
	fmt.Println("\n📊 Summary Report:")
	failed := 0
	for i, r := range results {
		icon := "✓"
		if r.ErrorMsg != "" {
			icon = "!"
			failed++
		}
		fmt.Printf("[%s] [%02d/%02d] %-30s : job %-20s tables=%d schedule=%q files=%d\n",
			icon, i+1, len(results), r.File, r.JobName, r.Tables, r.Schedule, r.Written)
		if r.ErrorMsg != "" {
			fmt.Printf("    └ Error: %s\n", r.ErrorMsg)
		}
	}
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Scripts: %d, failed: %d\n", len(results), failed)
	return failed
}
