package cmd

import (
	"fmt"
	"os"

	"ics-egress/internal/errors"
	"ics-egress/internal/logger"
	"ics-egress/internal/sample"

	"github.com/spf13/cobra"
)

var (
	sampleOpts sample.Options
	sampleOut  string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a fake egress script to try the generator with",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := sample.Generate(sampleOpts)
		if sampleOut == "" {
			fmt.Fprint(cmd.OutOrStdout(), s.Text)
			return nil
		}
		if err := os.WriteFile(sampleOut, []byte(s.Text), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", sampleOut)
		}
		logger.Logger.Infow("Sample written", "path", sampleOut, "tables", len(s.Tables))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().Int64Var(&sampleOpts.Seed, "seed", 0, "random seed (0 = random)")
	sampleCmd.Flags().IntVar(&sampleOpts.Tables, "tables", 2, "number of source tables")
	sampleCmd.Flags().IntVar(&sampleOpts.Columns, "columns", 3, "number of selected columns")
	sampleCmd.Flags().BoolVar(&sampleOpts.Interval, "interval", false, "add an INTERVAL filter (hourly schedule)")
	sampleCmd.Flags().BoolVar(&sampleOpts.BTEQ, "bteq", false, "wrap in BTEQ logon and error handling")
	sampleCmd.Flags().StringVarP(&sampleOut, "out", "o", "", "output file (default stdout)")
}
