package probe

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/connectcheck/internal/backend"
)

// NoSessionMessages are the exact error texts that mean "reachable, but
// nobody is signed in". Update here if the upstream wording changes.
var NoSessionMessages = []string{
	"no active session",
	"Auth session missing!",
}

// IsNoSession reports whether err only says that no session is active.
// Message comparison is exact.
func IsNoSession(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, backend.ErrNoSession) {
		return true
	}
	msg := err.Error()
	for _, m := range NoSessionMessages {
		if msg == m {
			return true
		}
	}
	return false
}

// SessionClient is the one capability the probe needs from the backend.
type SessionClient interface {
	Session(ctx context.Context) (*backend.Session, error)
}

// SessionChecker asks the backend for the caller's session.
type SessionChecker struct {
	Client SessionClient
}

func NewSessionChecker(c SessionClient) *SessionChecker {
	return &SessionChecker{Client: c}
}

func (s *SessionChecker) Check(ctx context.Context, target string) CheckResult {
	start := time.Now()
	sess, err := s.Client.Session(ctx)
	latency := time.Since(start).Seconds() * 1000 // ms

	res := CheckResult{Name: "session", Target: target, LatencyMS: latency, Attempts: 1}
	switch {
	case err == nil:
		res.Success = true
		res.Message = "session active"
		if sess != nil && sess.User != nil && sess.User.ID != "" {
			res.Message = "session active for user " + sess.User.ID
		}
	case IsNoSession(err):
		res.Success = true
		res.Message = err.Error()
	default:
		res.Message = err.Error()
		res.Err = err
	}
	return res
}
