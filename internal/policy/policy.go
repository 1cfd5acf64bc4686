// Package policy gates console verbs on session preconditions: connection
// state, network support, and execution mode.
package policy

import (
	"strings"

	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/netreg"
)

// Session is the subset of wallet state policy decisions need.
type Session struct {
	Connected bool
	Network   netreg.NetworkInfo
	MockMode  bool
}

// CheckVerb rejects verbs whose preconditions the session does not meet.
// Verbs that only read local state (help, network, swap-info) always pass.
func CheckVerb(verb string, s Session) error {
	switch verb {
	case "help", "network", "swap-info":
		return nil
	}

	if !s.Connected {
		return clierr.New(clierr.CodeValidation, "connect a wallet before running "+verb)
	}
	if !s.Network.IsSupported {
		return clierr.New(clierr.CodeNetworkMismatch, "switch to a supported network before running "+verb)
	}

	if verb == "swap" && !s.MockMode {
		if !s.Network.HasSwapRouter() || !s.Network.HasStableCoin() {
			return clierr.New(clierr.CodeUnsupported, s.Network.Name+" has no swap route configured")
		}
	}
	return nil
}

// CheckCommandAllowed enforces the --enable-commands allowlist. An empty
// allowlist permits everything.
func CheckCommandAllowed(allowlist []string, commandPath string) error {
	if len(allowlist) == 0 {
		return nil
	}
	normPath := normalize(commandPath)
	for _, allowed := range allowlist {
		if normalize(allowed) == normPath {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, "command blocked by --enable-commands policy")
}

func normalize(v string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(v)))
	return strings.Join(parts, " ")
}
