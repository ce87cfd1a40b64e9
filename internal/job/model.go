package job

// Config is the sql_config.json record for one uploaded script.
type Config struct {
	JobName      string   `json:"job_name"`
	SourceTables []string `json:"source_tables"`
	Columns      string   `json:"columns"`
	WithClause   string   `json:"with_clause"`
	WhereClause  string   `json:"where_clause"`
	SQLLogic     string   `json:"sql_logic"`
}

// Execution is the execution.json descriptor consumed by the DAG generator.
type Execution struct {
	JobName            string   `json:"job_name"`
	ExecutionCondition []string `json:"execution_condition"`
	CommandLogic       string   `json:"command_logic"`
	Schedule           string   `json:"schedule"`
	Retries            int      `json:"retries"`
	DelayMinutes       int      `json:"delay_minutes"`
}

// Defaults are the operator-tunable parts of an Execution.
type Defaults struct {
	ExecutionCondition []string
	Retries            int
	DelayMinutes       int
	ExportDir          string
}

// DefaultExecutionCondition is the BTEQ error guard emitted unless configured otherwise.
const DefaultExecutionCondition = "if errorcode <> 0 then .quit 1;"

// DefaultExportDir is where export scripts drop their CSV.
const DefaultExportDir = "/sftp"

// StandardDefaults returns the values used when nothing is configured.
func StandardDefaults() Defaults {
	return Defaults{
		ExecutionCondition: []string{DefaultExecutionCondition},
		Retries:            1,
		DelayMinutes:       5,
		ExportDir:          DefaultExportDir,
	}
}
