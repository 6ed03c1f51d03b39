package probe

import "context"

// CheckResult is the outcome of a single probe.
//
// Message is the underlying error text on failure, verbatim, so the report
// can print it as-is. Err keeps the original error for errors.Is / As.
type CheckResult struct {
	Name      string  `json:"name"`
	Target    string  `json:"target"`
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	LatencyMS float64 `json:"latency_ms"`
	Attempts  int     `json:"attempts"`
	Err       error   `json:"-"`
}

// Checker performs a single check for a given target URL.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
