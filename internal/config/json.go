package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		LogRole  string `json:"log_role"`
		LogLevel string `json:"log_level"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Reminder struct {
		AccountAge     Duration `json:"account_age"`
		LastSuccess    Duration `json:"last_success"`
		LastLogin      Duration `json:"last_login"`
		LastSkip       Duration `json:"last_skip"`
		LastSkipLogout Duration `json:"last_skip_logout"`
	} `json:"reminder,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			LogRole:  jsonCfg.App.LogRole,
			LogLevel: jsonCfg.App.LogLevel,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
		},
		Reminder: Reminder{
			AccountAge:     time.Duration(jsonCfg.Reminder.AccountAge),
			LastSuccess:    time.Duration(jsonCfg.Reminder.LastSuccess),
			LastLogin:      time.Duration(jsonCfg.Reminder.LastLogin),
			LastSkip:       time.Duration(jsonCfg.Reminder.LastSkip),
			LastSkipLogout: time.Duration(jsonCfg.Reminder.LastSkipLogout),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
