package pipeline_test

import (
	"testing"

	"ics-egress/internal/errors"
	"ics-egress/internal/extract"
	"ics-egress/internal/job"
	"ics-egress/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_EndToEnd(t *testing.T) {
	script := "SELECT id FROM users WHERE id > 0"
	b, err := pipeline.Build("job1.sql", script, job.StandardDefaults())
	require.NoError(t, err)

	assert.Equal(t, "job1", b.JobName)
	assert.Equal(t, job.Config{
		JobName:      "job1",
		SourceTables: []string{"users"},
		Columns:      "id",
		WithClause:   "",
		WhereClause:  "id > 0",
		SQLLogic:     script,
	}, b.Config)
	assert.Equal(t, extract.DailySchedule, b.Execution.Schedule)
	assert.Equal(t, "/sftp/job1_data.csv", b.ExportPath)
	assert.Contains(t, b.ExportScript, `"/sftp/job1_data.csv"`)
	assert.Contains(t, b.DAGScript, `os.path.exists("job1_export.py")`)

	arts, err := b.Artifacts()
	require.NoError(t, err)
	var names []string
	for _, a := range arts {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{
		"sql_config.json", "generated_query.sql", "execution.json", "job1_export.py", "job1_dag.py",
	}, names)
	assert.Equal(t, script, arts[1].Content)

	cfg, err := job.UnmarshalConfig([]byte(arts[0].Content))
	require.NoError(t, err)
	assert.Equal(t, b.Config, cfg)

	exec, err := job.UnmarshalExecution([]byte(arts[2].Content))
	require.NoError(t, err)
	assert.Equal(t, b.Execution, exec)
}

func TestBuild_IntervalSchedule(t *testing.T) {
	b, err := pipeline.Build("hourly.bteq", "SELECT * FROM ev WHERE ts > NOW() - INTERVAL 2 HOUR", job.StandardDefaults())
	require.NoError(t, err)
	assert.Equal(t, extract.HourlySchedule, b.Execution.Schedule)
	assert.Contains(t, b.DAGScript, `schedule_interval="0 * * * *"`)
}

func TestBuild_Deterministic(t *testing.T) {
	script := "SELECT a FROM x; SELECT b FROM y; SELECT c FROM x"
	first, err := pipeline.Build("j.sql", script, job.StandardDefaults())
	require.NoError(t, err)
	second, err := pipeline.Build("j.sql", script, job.StandardDefaults())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_EmptyName(t *testing.T) {
	_, err := pipeline.Build("", "SELECT 1", job.StandardDefaults())
	assert.True(t, errors.Is(err, job.ErrEmptyJobName))
}

func TestBuild_BadDefaults(t *testing.T) {
	d := job.StandardDefaults()
	d.Retries = -1
	_, err := pipeline.Build("j.sql", "SELECT 1", d)
	assert.True(t, errors.Is(err, job.ErrNegativeRetries))
}

func TestArtifact(t *testing.T) {
	b, err := pipeline.Build("job1.sql", "SELECT 1", job.StandardDefaults())
	require.NoError(t, err)

	a, ok, err := b.Artifact("job1_dag.py")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b.DAGScript, a.Content)

	_, ok, err = b.Artifact("../etc/passwd")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckUpload(t *testing.T) {
	for _, name := range []string{"a.sql", "a.BTEQ", "a.txt", "a.py", "a.sh", "a.java", "a.cs"} {
		assert.NoError(t, pipeline.CheckUpload(name, []byte("SELECT 1")), name)
	}

	err := pipeline.CheckUpload("a.exe", []byte("x"))
	assert.True(t, errors.Is(err, pipeline.ErrUnsupportedExtension))
	assert.NotEmpty(t, errors.GetAllHints(err))

	err = pipeline.CheckUpload("a.sql", []byte{0xff, 0xfe, 0x00})
	assert.True(t, errors.Is(err, pipeline.ErrInvalidUTF8))
}
