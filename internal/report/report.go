// Package report prints the human-facing connectivity report.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const Title = "Go Supabase Connection Test"

// Rule is the line printed around the test block.
var Rule = strings.Repeat("=", 50)

// Hints are printed, in order, after a failed probe.
var Hints = []string{
	"Your internet connection",
	"The Supabase URL is correct",
	"The API key is valid",
}

// Reporter writes status lines to Out and errors to Err.
type Reporter struct {
	Out io.Writer
	Err io.Writer

	ok   *color.Color
	fail *color.Color
	info *color.Color
}

// New returns a Reporter. colorize forces ANSI colours on or off regardless
// of whether the writers are terminals.
func New(out, errOut io.Writer, colorize bool) *Reporter {
	r := &Reporter{
		Out:  out,
		Err:  errOut,
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		info: color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{r.ok, r.fail, r.info} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *Reporter) Header() {
	fmt.Fprintln(r.Out, Rule)
	fmt.Fprintln(r.Out, Title)
	fmt.Fprintln(r.Out, Rule)
}

func (r *Reporter) Target(url string) {
	r.info.Fprintf(r.Out, "\n📡 Connecting to: %s\n", url)
}

func (r *Reporter) ClientCreated() {
	r.ok.Fprintln(r.Out, "✅ Successfully created Supabase client")
}

func (r *Reporter) Testing() {
	r.info.Fprintln(r.Out, "\n🔍 Testing API connectivity...")
}

func (r *Reporter) Reachable() {
	r.ok.Fprintln(r.Out, "✅ API is reachable and responding")
}

func (r *Reporter) Passed() {
	fmt.Fprintln(r.Out, "\n"+Rule)
	r.ok.Fprintln(r.Out, "🎉 All tests passed! Supabase is ready to use.")
	fmt.Fprintln(r.Out, Rule)
}

// ConfigError names both required variables.
func (r *Reporter) ConfigError(urlVar, keyVar string) {
	r.fail.Fprintln(r.Err, "❌ ERROR: Missing environment variables")
	fmt.Fprintf(r.Err, "Please ensure %s and %s are set in .env file\n", urlVar, keyVar)
}

// Failed prints msg verbatim followed by the numbered hints.
func (r *Reporter) Failed(msg string) {
	r.fail.Fprintf(r.Err, "\n❌ Connection failed: %s\n", msg)
	fmt.Fprintln(r.Err, "\nPlease check:")
	for i, h := range Hints {
		fmt.Fprintf(r.Err, "  %d. %s\n", i+1, h)
	}
}
