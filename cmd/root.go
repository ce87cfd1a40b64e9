package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ics-egress/internal/errors"
	"ics-egress/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var RootCmd = &cobra.Command{
	Use:   "ics-egress",
	Short: "Generate egress job artifacts from SQL-like scripts",
	Long: `
ICS EGRESS - Egress Job Artifact Generator

Reads an uploaded SQL, BTEQ or shell script, extracts its columns, clauses,
source tables and schedule, and writes the job config, execution descriptor,
BigQuery export script and Airflow DAG for it.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(viper.GetBool("log.json"), viper.GetString("log.level")); err != nil {
			return errors.Wrap(err, "initialize logger")
		}
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Logger.Debugw("Using config file", "path", used)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ics-egress.yaml)")
	RootCmd.PersistentFlags().Bool("log-json", false, "emit JSON logs")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("log.json", RootCmd.PersistentFlags().Lookup("log-json"))
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults()
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		// 2. Current Directory
		viper.AddConfigPath(".")

		viper.SetConfigName("ics-egress")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ICS_EGRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Warning: could not read config:", err)
		}
	}
}
