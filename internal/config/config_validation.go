// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "fmt"

// validate checks that the final merged [StructuredConfig] can be used at
// startup: a DSN must be present and reminder thresholds must not be negative.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: empty DSN", ErrInvalidStorageConfigs)
	}

	r := cfg.Reminder
	for _, d := range []struct {
		name  string
		value int64
	}{
		{"account_age", int64(r.AccountAge)},
		{"last_success", int64(r.LastSuccess)},
		{"last_login", int64(r.LastLogin)},
		{"last_skip", int64(r.LastSkip)},
		{"last_skip_logout", int64(r.LastSkipLogout)},
	} {
		if d.value < 0 {
			return fmt.Errorf("%w: negative %s", ErrInvalidReminderConfigs, d.name)
		}
	}

	return nil
}
