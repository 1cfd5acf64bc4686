package netreg

import (
	"strconv"
	"strings"
	"testing"
)

func TestLookupKnownChain(t *testing.T) {
	reg := Default()
	n := reg.Lookup(84532)
	if n.Name != "Base Sepolia" {
		t.Fatalf("unexpected name %q", n.Name)
	}
	if !n.IsSupported {
		t.Fatal("expected Base Sepolia to be supported")
	}
	if !n.HasSwapRouter() || !n.HasStableCoin() {
		t.Fatalf("expected router and stablecoin configured, got %+v", n)
	}
}

func TestLookupUnknownChainSynthesizes(t *testing.T) {
	reg := Default()
	for _, id := range []int64{0, 424242, 99999999} {
		n := reg.Lookup(id)
		if n.IsSupported {
			t.Fatalf("chain %d: expected unsupported", id)
		}
		if !strings.Contains(n.Name, "Unknown Network") {
			t.Fatalf("chain %d: unexpected name %q", id, n.Name)
		}
		if !strings.Contains(n.Name, strconv.FormatInt(id, 10)) {
			t.Fatalf("chain %d: name %q does not contain the numeric id", id, n.Name)
		}
		if n.ExplorerBaseURL != "" {
			t.Fatalf("chain %d: expected empty explorer, got %q", id, n.ExplorerBaseURL)
		}
		if n.NativeCurrencySymbol != "ETH" {
			t.Fatalf("chain %d: expected ETH fallback currency, got %q", id, n.NativeCurrencySymbol)
		}
	}
}

func TestExplorerURLs(t *testing.T) {
	reg := Default()
	n := reg.Lookup(11155111)
	hash := "0xabc"
	if got := n.ExplorerTxURL(hash); got != "https://sepolia.etherscan.io/tx/0xabc" {
		t.Fatalf("tx url: %q", got)
	}
	unknown := reg.Lookup(5555555)
	if got := unknown.ExplorerTxURL(hash); got != "" {
		t.Fatalf("expected empty explorer url for unknown network, got %q", got)
	}
}

func TestAddChainParamsHexChainID(t *testing.T) {
	reg := Default()
	params := AddChainParamsFor(reg.Lookup(84532))
	if params.ChainID != "0x14a34" {
		t.Fatalf("hex chain id: %q", params.ChainID)
	}
	if params.NativeCurrency.Decimals != 18 {
		t.Fatalf("decimals: %d", params.NativeCurrency.Decimals)
	}
	if len(params.RPCURLs) != 1 || params.RPCURLs[0] == "" {
		t.Fatalf("rpc urls: %v", params.RPCURLs)
	}
}

func TestSupportedSubset(t *testing.T) {
	reg := Default()
	if len(reg.Supported()) != len(reg.All()) {
		t.Fatal("default table marks every listed chain supported")
	}
	custom := New([]NetworkInfo{
		{ChainID: 1, Name: "Ethereum", IsSupported: true},
		{ChainID: 1337, Name: "Local", IsSupported: false},
	})
	if got := len(custom.Supported()); got != 1 {
		t.Fatalf("expected 1 supported, got %d", got)
	}
}
