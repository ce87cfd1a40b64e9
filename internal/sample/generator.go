// Package sample fabricates egress scripts for demos and tests.
package sample

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// Options shape a generated script.
type Options struct {
	Seed     int64 // 0 picks a random seed
	Tables   int   // number of joined source tables, at least 1
	Columns  int   // selected columns, at least 1
	Interval bool  // add an INTERVAL filter (hourly schedule)
	BTEQ     bool  // wrap in BTEQ logon/error handling
}

// Script is a generated script plus what extraction should find in it.
type Script struct {
	Text    string
	Tables  []string // as the extractor reports them
	Columns string
	Where   string
}

var nonIdent = regexp.MustCompile(`[^a-z0-9_]+`)

func ident(word string) string {
	s := strings.Trim(nonIdent.ReplaceAllString(strings.ToLower(word), "_"), "_")
	if s == "" {
		return "x"
	}
	return s
}

// Generate builds a SELECT with optional WITH block over random tables.
func Generate(opts Options) Script {
	if opts.Tables < 1 {
		opts.Tables = 1
	}
	if opts.Columns < 1 {
		opts.Columns = 1
	}
	faker := gofakeit.New(opts.Seed)

	schema := ident(faker.BS())
	seen := map[string]bool{}
	var tables []string
	for len(tables) < opts.Tables {
		name := fmt.Sprintf("%s.%s_%d", schema, ident(faker.Noun()), faker.Number(1, 99))
		if seen[name] {
			continue
		}
		seen[name] = true
		tables = append(tables, name)
	}

	var cols []string
	for i := 0; i < opts.Columns; i++ {
		cols = append(cols, fmt.Sprintf("t0.%s_%d", ident(faker.Word()), i))
	}
	columns := strings.Join(cols, ", ")

	where := fmt.Sprintf("t0.batch_id > %d", faker.Number(0, 10000))
	if opts.Interval {
		where += fmt.Sprintf(" AND t0.updated_at >= CURRENT_TIMESTAMP - INTERVAL %d HOUR", faker.Number(1, 24))
	}

	var sb strings.Builder
	if opts.BTEQ {
		fmt.Fprintf(&sb, ".LOGON %s/%s,%s;\n", faker.DomainName(), faker.Username(), "$PASSWORD")
	}
	sb.WriteString("-- generated egress script\n")
	fmt.Fprintf(&sb, "SELECT %s\nFROM %s t0\n", columns, tables[0])
	for i, t := range tables[1:] {
		fmt.Fprintf(&sb, "JOIN %s t%d ON t%d.id = t0.id\n", t, i+1, i+1)
	}
	fmt.Fprintf(&sb, "WHERE %s\nORDER BY 1;\n", where)
	if opts.BTEQ {
		sb.WriteString(".IF ERRORCODE <> 0 THEN .QUIT 1;\n.LOGOFF;\n")
	}

	return Script{
		Text:    sb.String(),
		Tables:  []string{tables[0]}, // JOINed tables are not preceded by FROM
		Columns: columns,
		Where:   where,
	}
}
