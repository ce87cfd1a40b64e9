package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ics-egress/internal/errors"
	"ics-egress/internal/job"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollectScripts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.sql"), "SELECT 1")
	writeFile(t, filepath.Join(dir, "nested", "b.BTEQ"), "SELECT 2")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")
	single := filepath.Join(t.TempDir(), "c.sh")
	writeFile(t, single, "bteq < x")

	files, err := collectScripts([]string{dir, single})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.sql"),
		filepath.Join(dir, "nested", "b.BTEQ"),
		single,
	}, files)

	_, err = collectScripts([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestGenerateAll_DuplicateJobName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "x.sql"), "SELECT one FROM alpha")
	writeFile(t, filepath.Join(dir, "b", "x.txt"), "SELECT two FROM beta")
	out := t.TempDir()

	files, err := collectScripts([]string{dir})
	require.NoError(t, err)
	require.Len(t, files, 2)

	calls := 0
	results := generateAll(files, out, job.StandardDefaults(), func() { calls++ })
	require.Len(t, results, 2)
	assert.Equal(t, 2, calls)

	assert.Empty(t, results[0].ErrorMsg)
	assert.Equal(t, 5, results[0].Written)
	assert.Contains(t, results[1].ErrorMsg, "duplicate job name")
	assert.Contains(t, results[1].ErrorMsg, files[0])
	assert.Zero(t, results[1].Written)

	sql, err := os.ReadFile(filepath.Join(out, "x", "generated_query.sql"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT one FROM alpha", string(sql))
}

func TestGenerateOne_WritesArtifacts(t *testing.T) {
	src := filepath.Join(t.TempDir(), "job1.sql")
	writeFile(t, src, "SELECT id FROM users WHERE id > 0\n")
	out := t.TempDir()

	r := generateOne(src, out, job.StandardDefaults(), map[string]string{})
	require.Empty(t, r.ErrorMsg)
	assert.Equal(t, "job1", r.JobName)
	assert.Equal(t, 1, r.Tables)
	assert.Equal(t, "0 3 * * *", r.Schedule)
	assert.Equal(t, 5, r.Written)

	for _, name := range []string{"sql_config.json", "generated_query.sql", "execution.json", "job1_export.py", "job1_dag.py"} {
		assert.FileExists(t, filepath.Join(out, "job1", name))
	}

	sql, err := os.ReadFile(filepath.Join(out, "job1", "generated_query.sql"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE id > 0", string(sql))

	data, err := os.ReadFile(filepath.Join(out, "job1", "execution.json"))
	require.NoError(t, err)
	exec, err := job.UnmarshalExecution(data)
	require.NoError(t, err)
	assert.Equal(t, "python job1_export.py", exec.CommandLogic)
}

func TestGenerateOne_BadExtension(t *testing.T) {
	src := filepath.Join(t.TempDir(), "job1.exe")
	writeFile(t, src, "SELECT 1")

	r := generateOne(src, t.TempDir(), job.StandardDefaults(), map[string]string{})
	assert.Contains(t, r.ErrorMsg, "unsupported script extension")
	assert.Zero(t, r.Written)
}

func TestGetJobDefaults(t *testing.T) {
	t.Cleanup(func() {
		viper.Set("settings.retries", nil)
		viper.Set("settings.delay_minutes", nil)
	})

	d, err := GetJobDefaults()
	require.NoError(t, err)
	assert.Equal(t, job.StandardDefaults(), d)

	viper.Set("settings.retries", 3)
	viper.Set("settings.delay_minutes", 10)
	d, err = GetJobDefaults()
	require.NoError(t, err)
	assert.Equal(t, 3, d.Retries)
	assert.Equal(t, 10, d.DelayMinutes)

	viper.Set("settings.retries", -2)
	_, err = GetJobDefaults()
	assert.True(t, errors.Is(err, job.ErrNegativeRetries))
}

func TestGetJobDefaults_ConditionFromEnv(t *testing.T) {
	viper.SetEnvPrefix("ICS_EGRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	t.Setenv("ICS_EGRESS_SETTINGS_EXECUTION_CONDITION", "if errorcode <> 0 then .quit 1;")

	d, err := GetJobDefaults()
	require.NoError(t, err)
	assert.Equal(t, []string{"if errorcode <> 0 then .quit 1;"}, d.ExecutionCondition)
}

func TestGetServerConfig(t *testing.T) {
	c, err := GetServerConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8501", c.Listen)
	assert.Equal(t, 4<<20, c.BodyLimit)
	assert.False(t, c.Production)
}
