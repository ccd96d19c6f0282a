package session

import (
	"time"

	dErrors "verigate/pkg/domain-errors"
)

// Default idle-timeout policy.
const (
	DefaultSessionTimeout = 30 * time.Minute
	DefaultWarningTime    = 5 * time.Minute
	DefaultCheckInterval  = time.Minute
)

// Config is the idle-timeout policy. The check loop is a polling design, so
// transitions land with up to one CheckInterval of slack past their exact
// deadline; callers must tolerate that.
type Config struct {
	// SessionTimeout is the total allowed inactivity before forced logout.
	SessionTimeout time.Duration
	// WarningTime is how long before the deadline the warning fires.
	WarningTime time.Duration
	// CheckInterval is the polling granularity of the check loop.
	CheckInterval time.Duration
}

// withDefaults fills zero fields with the default policy.
func (c Config) withDefaults() Config {
	if c.SessionTimeout == 0 {
		c.SessionTimeout = DefaultSessionTimeout
	}
	if c.WarningTime == 0 {
		c.WarningTime = DefaultWarningTime
	}
	if c.CheckInterval == 0 {
		c.CheckInterval = DefaultCheckInterval
	}
	return c
}

// Validate rejects policies that cannot work: the warning must precede the
// deadline, and polling must be no coarser than the warning window or the
// warning state could be skipped entirely.
func (c Config) Validate() error {
	if c.SessionTimeout <= 0 || c.WarningTime <= 0 || c.CheckInterval <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "session timings must be positive")
	}
	if c.WarningTime >= c.SessionTimeout {
		return dErrors.New(dErrors.CodeBadRequest, "warning time must be shorter than session timeout")
	}
	if c.CheckInterval > c.WarningTime {
		return dErrors.New(dErrors.CodeBadRequest, "check interval must not exceed warning time")
	}
	return nil
}
