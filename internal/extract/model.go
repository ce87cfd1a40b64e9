package extract

// Cron expressions chosen by the presence of an INTERVAL clause.
const (
	HourlySchedule = "0 * * * *"
	DailySchedule  = "0 3 * * *"
)

// DefaultColumns is reported when no SELECT ... FROM pair is found.
const DefaultColumns = "*"

// Components is what pattern matching recovers from a script.
type Components struct {
	Columns     string
	WhereClause string
	WithClause  string
	Schedule    string
	Tables      []string // distinct, sorted
}
