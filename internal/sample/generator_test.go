package sample_test

import (
	"testing"

	"ics-egress/internal/extract"
	"ics-egress/internal/sample"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_RoundTripsThroughExtractor(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		for _, opts := range []sample.Options{
			{Seed: seed, Tables: 1, Columns: 1},
			{Seed: seed, Tables: 3, Columns: 4, Interval: true},
			{Seed: seed, Tables: 2, Columns: 2, BTEQ: true},
		} {
			s := sample.Generate(opts)
			c := extract.Extract(s.Text)

			assert.Equal(t, s.Columns, c.Columns, s.Text)
			assert.Equal(t, s.Where, c.WhereClause, s.Text)
			assert.Equal(t, s.Tables, c.Tables, s.Text)
			if opts.Interval {
				assert.Equal(t, extract.HourlySchedule, c.Schedule, s.Text)
			} else {
				assert.Equal(t, extract.DailySchedule, c.Schedule, s.Text)
			}
		}
	}
}

func TestGenerate_SeedIsDeterministic(t *testing.T) {
	a := sample.Generate(sample.Options{Seed: 99, Tables: 2, Columns: 3})
	b := sample.Generate(sample.Options{Seed: 99, Tables: 2, Columns: 3})
	assert.Equal(t, a, b)
}

func TestGenerate_ClampsOptions(t *testing.T) {
	s := sample.Generate(sample.Options{Seed: 5})
	assert.Len(t, s.Tables, 1)
	assert.NotEmpty(t, s.Columns)
}
