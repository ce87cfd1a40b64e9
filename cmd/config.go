package cmd

import (
	"strings"

	"ics-egress/internal/errors"
	"ics-egress/internal/job"

	"github.com/spf13/viper"
)

// ServerConfig is the `server` section of ics-egress.yaml.
type ServerConfig struct {
	Listen       string
	PasswordHash string
	Password     string
	BodyLimit    int
	Production   bool
}

func setDefaults() {
	d := job.StandardDefaults()
	viper.SetDefault("settings.retries", d.Retries)
	viper.SetDefault("settings.delay_minutes", d.DelayMinutes)
	viper.SetDefault("settings.execution_condition", d.ExecutionCondition)
	viper.SetDefault("settings.export_dir", d.ExportDir)
	viper.SetDefault("settings.output_dir", "./out")

	viper.SetDefault("server.listen", ":8501")
	viper.SetDefault("server.body_limit", 4<<20)
	viper.SetDefault("server.production", false)

	viper.SetDefault("log.json", false)
	viper.SetDefault("log.level", "info")
}

// GetJobDefaults returns the execution defaults from the `settings` section.
// Keys are read one by one so env overrides and partial config files both apply.
func GetJobDefaults() (job.Defaults, error) {
	d := job.Defaults{
		ExecutionCondition: stringList("settings.execution_condition"),
		Retries:            viper.GetInt("settings.retries"),
		DelayMinutes:       viper.GetInt("settings.delay_minutes"),
		ExportDir:          viper.GetString("settings.export_dir"),
	}
	if d.Retries < 0 {
		return job.Defaults{}, errors.WithHint(job.ErrNegativeRetries, "check settings.retries")
	}
	if d.DelayMinutes < 0 {
		return job.Defaults{}, errors.WithHint(job.ErrNegativeDelay, "check settings.delay_minutes")
	}
	return d, nil
}

// GetServerConfig returns the `server` section.
func GetServerConfig() (*ServerConfig, error) {
	c := ServerConfig{
		Listen:       viper.GetString("server.listen"),
		PasswordHash: viper.GetString("server.password_hash"),
		Password:     viper.GetString("server.password"),
		BodyLimit:    viper.GetInt("server.body_limit"),
		Production:   viper.GetBool("server.production"),
	}
	if c.Listen == "" {
		return nil, errors.New("server.listen is empty")
	}
	if c.BodyLimit <= 0 {
		return nil, errors.Newf("server.body_limit must be positive, got %d", c.BodyLimit)
	}
	return &c, nil
}

// stringList reads a list key. A plain string, as set through the
// environment, is one element rather than whitespace-split words.
func stringList(key string) []string {
	if s, ok := viper.Get(key).(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		return []string{s}
	}
	return viper.GetStringSlice(key)
}
