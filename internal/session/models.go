package session

import (
	"time"

	"verigate/internal/token"
)

// State is the lifecycle phase of an authenticated session.
type State string

const (
	// StateActive means recent activity was observed.
	StateActive State = "active"
	// StateWarning means the session is close enough to its idle deadline
	// that the user has been warned.
	StateWarning State = "warning"
	// StateExpired is terminal: the idle deadline passed and the session was
	// logged out.
	StateExpired State = "expired"
)

// Session is the server-side record for one authenticated user. WarningShown
// is the sticky one-shot guard for the warning notification; it is true only
// while LastActivity is stale by at least (SessionTimeout - WarningTime), and
// any activity clears it together with refreshing LastActivity.
type Session struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Identity     token.Identity `json:"identity"`
	LastActivity time.Time      `json:"last_activity"`
	WarningShown bool           `json:"warning_shown"`
	State        State          `json:"state"`
	CreatedAt    time.Time      `json:"created_at"`
}
