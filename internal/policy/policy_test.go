package policy

import (
	"testing"

	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/netreg"
)

func TestReadOnlyVerbsAlwaysAllowed(t *testing.T) {
	s := Session{Connected: false}
	for _, verb := range []string{"help", "network", "swap-info"} {
		if err := CheckVerb(verb, s); err != nil {
			t.Fatalf("verb %q: unexpected error %v", verb, err)
		}
	}
}

func TestMutatingVerbsRequireConnection(t *testing.T) {
	s := Session{Connected: false}
	for _, verb := range []string{"swap", "supply", "withdraw", "buy"} {
		err := CheckVerb(verb, s)
		if err == nil {
			t.Fatalf("verb %q: expected error while disconnected", verb)
		}
	}
}

func TestUnsupportedNetworkBlocked(t *testing.T) {
	s := Session{
		Connected: true,
		Network:   netreg.Default().Lookup(424242),
	}
	err := CheckVerb("supply", s)
	cliErr, ok := clierr.As(err)
	if !ok || cliErr.Code != clierr.CodeNetworkMismatch {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRealSwapNeedsRoute(t *testing.T) {
	reg := netreg.Default()

	// Holesky is supported but has no router configured.
	s := Session{Connected: true, Network: reg.Lookup(17000), MockMode: false}
	err := CheckVerb("swap", s)
	cliErr, ok := clierr.As(err)
	if !ok || cliErr.Code != clierr.CodeUnsupported {
		t.Fatalf("unexpected error: %v", err)
	}

	// The same chain passes in mock mode.
	s.MockMode = true
	if err := CheckVerb("swap", s); err != nil {
		t.Fatalf("mock swap should pass: %v", err)
	}

	// Sepolia carries a full route.
	s = Session{Connected: true, Network: reg.Lookup(11155111), MockMode: false}
	if err := CheckVerb("swap", s); err != nil {
		t.Fatalf("sepolia swap should pass: %v", err)
	}
}

func TestCommandAllowlist(t *testing.T) {
	if err := CheckCommandAllowed(nil, "tx history"); err != nil {
		t.Fatalf("empty allowlist should permit: %v", err)
	}
	if err := CheckCommandAllowed([]string{"TX  History"}, "tx history"); err != nil {
		t.Fatalf("normalized match should permit: %v", err)
	}
	err := CheckCommandAllowed([]string{"summary"}, "tx history")
	cliErr, ok := clierr.As(err)
	if !ok || cliErr.Code != clierr.CodeBlocked {
		t.Fatalf("unexpected error: %v", err)
	}
}
