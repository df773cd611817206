package config

import (
	"flag"
	"fmt"
	"io"
)

// ParseFlags parses configuration flags from args and returns the
// positional arguments that follow them.
//
// Flags:
//
//	-d database DSN (SQLite path or postgres:// URL)
//	-c/-config json file path with configs
//	-log-role value of the "role" log field
//	-log-level zerolog level name
//	-account-age minimum account age before the reminder (e.g., "168h")
//	-last-success minimum age of the last successful password check
//	-last-login minimum age of the last login
//	-last-skip minimum age of the last skip
//	-last-skip-logout minimum age of the last skip when offered on logout
func ParseFlags(args []string) (*StructuredConfig, []string, error) {
	var (
		cfg            StructuredConfig
		jsonConfigPath string
	)

	fs := flag.NewFlagSet("contactctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Storage.DB.DSN, "d", "", "Database DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&cfg.App.LogRole, "log-role", "", "Log role")
	fs.StringVar(&cfg.App.LogLevel, "log-level", "", "Log level")
	fs.DurationVar(&cfg.Reminder.AccountAge, "account-age", 0, "Minimum account age (e.g., 168h)")
	fs.DurationVar(&cfg.Reminder.LastSuccess, "last-success", 0, "Minimum age of the last successful check")
	fs.DurationVar(&cfg.Reminder.LastLogin, "last-login", 0, "Minimum age of the last login")
	fs.DurationVar(&cfg.Reminder.LastSkip, "last-skip", 0, "Minimum age of the last skip")
	fs.DurationVar(&cfg.Reminder.LastSkipLogout, "last-skip-logout", 0, "Minimum age of the last skip on logout")

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("error parsing flags: %w", err)
	}

	cfg.JSONFilePath = jsonConfigPath
	return &cfg, fs.Args(), nil
}
