package reminder

import "time"

const day = 24 * time.Hour

// Thresholds are the minimum ages that must elapse before the password
// reminder dialog is shown again.
type Thresholds struct {
	AccountAge     time.Duration
	LastSuccess    time.Duration
	LastLogin      time.Duration
	LastSkip       time.Duration
	LastSkipLogout time.Duration
}

// DefaultThresholds returns the stock reminder schedule.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AccountAge:     7 * day,
		LastSuccess:    90 * day,
		LastLogin:      14 * day,
		LastSkip:       90 * day,
		LastSkipLogout: 30 * day,
	}
}

// ShouldShow decides whether the reminder dialog should be displayed.
//
// An exported master key suppresses the dialog for good, and so does the
// "don't show again" flag. Otherwise every age must exceed its threshold;
// the skip threshold is the shorter logout variant when the dialog is
// offered on logout. Missing timestamps count as infinitely old.
func (t Thresholds) ShouldShow(buf []byte, accountCreated, now time.Time, onLogout bool) bool {
	st := Decode(buf)

	if st.MKExported || st.DontShow {
		return false
	}

	skip := t.LastSkip
	if onLogout {
		skip = t.LastSkipLogout
	}

	return olderThan(Timestamp{Unix: accountCreated.Unix(), Present: !accountCreated.IsZero()}, now, t.AccountAge) &&
		olderThan(st.LastSuccess, now, t.LastSuccess) &&
		olderThan(st.LastLogin, now, t.LastLogin) &&
		olderThan(st.LastSkipped, now, skip)
}

func olderThan(ts Timestamp, now time.Time, limit time.Duration) bool {
	if !ts.Present {
		return true
	}
	return now.Sub(ts.Time()) > limit
}
