package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Unicode-aware stand-ins for \s, \d and \b, which are ASCII-only in RE2:
// a no-break space separates words and a letter such as "é" joins them.
const (
	ws       = `[\s\x{0b}\p{Z}\x{85}\x{1c}-\x{1f}]`
	digit    = `\p{Nd}`
	notIdent = `(?:^|[^\p{L}\p{N}_])`
)

// All patterns are case-insensitive and let "." cross newlines. Lazy groups
// stop at the first terminator, so only the first SELECT ... FROM pair of a
// multi-statement script is reported.
var (
	selectPattern   = regexp.MustCompile(`(?is)SELECT` + ws + `+(.*?)` + ws + `+FROM`)
	wherePattern    = regexp.MustCompile(`(?is)WHERE` + ws + `+(.*?)(GROUP BY|ORDER BY|LIMIT|$)`)
	withPattern     = regexp.MustCompile(`(?is)WITH` + ws + `+(.*?)` + ws + `+SELECT`)
	intervalPattern = regexp.MustCompile(`(?i)INTERVAL` + ws + `+(` + digit + `+)` + ws + `+(HOUR|DAY|MINUTE)`)
	tablePattern    = regexp.MustCompile(`(?i)` + notIdent + `FROM` + ws + `+([a-zA-Z0-9_.]+)`)
)

// Extract pulls columns, clauses, schedule and source tables out of script.
// It never fails: a pattern that does not match yields its default.
func Extract(script string) Components {
	return Components{
		Columns:     firstGroup(selectPattern, script, DefaultColumns),
		WhereClause: firstGroup(wherePattern, script, ""),
		WithClause:  firstGroup(withPattern, script, ""),
		Schedule:    Schedule(script),
		Tables:      Tables(script),
	}
}

// Schedule returns HourlySchedule when the script contains an
// INTERVAL <n> HOUR|DAY|MINUTE clause and DailySchedule otherwise.
func Schedule(script string) string {
	if intervalPattern.MatchString(script) {
		return HourlySchedule
	}
	return DailySchedule
}

// Tables returns every distinct identifier that directly follows a FROM
// keyword. Case is preserved; the result is sorted so equal sets compare equal.
func Tables(script string) []string {
	seen := make(map[string]struct{})
	tables := []string{}
	for _, m := range tablePattern.FindAllStringSubmatch(script, -1) {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}
	sort.Strings(tables)
	return tables
}

func firstGroup(re *regexp.Regexp, script, fallback string) string {
	m := re.FindStringSubmatch(script)
	if m == nil {
		return fallback
	}
	return strings.TrimFunc(m[1], isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
