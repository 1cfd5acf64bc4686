// Package version holds build identity. Commit and BuildDate are meant
// to be overridden with -ldflags at release time.
package version

import "fmt"

var (
	CLIName    = "defi-agent"
	CLIVersion = "0.1.0"
	Commit     = "unknown"
	BuildDate  = "unknown"
)

// Long is the verbose form shown by "version --long".
func Long() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", CLIVersion, Commit, BuildDate)
}
