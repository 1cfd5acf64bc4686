package wallet

import (
	"context"
	"strings"
	"sync"

	"github.com/openwallet-labs/defi-agent/internal/consolelog"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/model"
	"github.com/openwallet-labs/defi-agent/internal/netreg"
)

// TruncateAddress shortens a hex address to its first six and last four
// characters for display.
func TruncateAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// Tracker derives the session view (connected account, active network,
// wrong-network flag) from provider events. State is never mutated
// directly; every change flows through Apply or an explicit request.
type Tracker struct {
	mu       sync.Mutex
	provider Provider
	registry *netreg.Registry
	sink     *consolelog.Sink

	connected bool
	address   string
	chainID   int64
	selected  int64
}

// NewTracker builds a tracker whose wrong-network flag is derived against
// selectedChainID, the chain the user configured. A successful
// SwitchOrAddNetwork moves the selection to the new target.
func NewTracker(provider Provider, registry *netreg.Registry, sink *consolelog.Sink, selectedChainID int64) *Tracker {
	return &Tracker{provider: provider, registry: registry, sink: sink, selected: selectedChainID}
}

// Connect requests accounts and the active chain from the provider and
// seeds the session from the response.
func (t *Tracker) Connect(ctx context.Context) (model.WalletStatus, error) {
	if t.provider == nil {
		return t.Status(), clierr.New(clierr.CodeProviderUnavailable, "no wallet provider configured")
	}
	accounts, err := t.provider.RequestAccounts(ctx)
	if err != nil {
		return t.Status(), clierr.Wrap(clierr.CodeProviderRejected, "wallet connection rejected", err)
	}
	if len(accounts) == 0 {
		return t.Status(), clierr.New(clierr.CodeProviderRejected, "wallet returned no accounts")
	}
	chainID, err := t.provider.ChainID(ctx)
	if err != nil {
		return t.Status(), clierr.Wrap(clierr.CodeProviderUnavailable, "read chain id", err)
	}

	t.mu.Lock()
	t.connected = true
	t.address = accounts[0]
	t.chainID = chainID
	network := t.registry.Lookup(chainID)
	t.mu.Unlock()

	if t.sink != nil {
		t.sink.Append("Wallet connected: "+TruncateAddress(accounts[0]), consolelog.SeveritySuccess)
		if !network.IsSupported {
			t.sink.Append("Unsupported network: "+network.Name, consolelog.SeverityError)
		}
	}
	return t.Status(), nil
}

// Apply folds one provider event into the session. An empty accounts list
// on accounts_changed means the user disconnected from the wallet side.
func (t *Tracker) Apply(ev Event) {
	t.mu.Lock()
	var logLines []consolelog.Entry
	switch ev.Kind {
	case EventAccountsChanged:
		if len(ev.Accounts) == 0 {
			t.connected = false
			t.address = ""
			logLines = append(logLines, consolelog.Entry{Message: "Wallet disconnected", Severity: consolelog.SeverityInfo})
			break
		}
		next := ev.Accounts[0]
		if !strings.EqualFold(next, t.address) {
			t.address = next
			t.connected = true
			logLines = append(logLines, consolelog.Entry{Message: "Account changed: " + TruncateAddress(next), Severity: consolelog.SeverityInfo})
		}
	case EventChainChanged:
		if ev.ChainID != t.chainID {
			t.chainID = ev.ChainID
			network := t.registry.Lookup(ev.ChainID)
			logLines = append(logLines, consolelog.Entry{Message: "Network changed: " + network.Name, Severity: consolelog.SeverityInfo})
			if !network.IsSupported {
				logLines = append(logLines, consolelog.Entry{Message: "Unsupported network: " + network.Name, Severity: consolelog.SeverityError})
			}
		}
	case EventDisconnected:
		t.connected = false
		t.address = ""
		logLines = append(logLines, consolelog.Entry{Message: "Wallet disconnected", Severity: consolelog.SeverityInfo})
	}
	t.mu.Unlock()

	if t.sink != nil {
		for _, e := range logLines {
			t.sink.AppendEntry(e)
		}
	}
}

// SwitchOrAddNetwork asks the provider to switch chains, falling back to
// registering the chain first when the wallet does not know it.
func (t *Tracker) SwitchOrAddNetwork(ctx context.Context, chainID int64) error {
	if t.provider == nil {
		return clierr.New(clierr.CodeProviderUnavailable, "no wallet provider configured")
	}
	network := t.registry.Lookup(chainID)
	if !network.IsSupported {
		return clierr.New(clierr.CodeUnsupported, network.Name+" is not a supported network")
	}

	err := t.provider.SwitchChain(ctx, chainID)
	if err != nil {
		if addErr := t.provider.AddChain(ctx, netreg.AddChainParamsFor(network)); addErr != nil {
			return clierr.Wrap(clierr.CodeProviderRejected, "add network "+network.Name, addErr)
		}
		if err = t.provider.SwitchChain(ctx, chainID); err != nil {
			return clierr.Wrap(clierr.CodeProviderRejected, "switch to "+network.Name, err)
		}
	}

	t.mu.Lock()
	t.selected = chainID
	t.mu.Unlock()
	t.Apply(Event{Kind: EventChainChanged, ChainID: chainID})
	return nil
}

// Network returns the registry record for the active chain.
func (t *Tracker) Network() netreg.NetworkInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.registry.Lookup(t.chainID)
}

// Address returns the connected account, empty when disconnected.
func (t *Tracker) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.address
}

// Connected reports whether an account is attached to the session.
func (t *Tracker) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Provider exposes the underlying provider for executors that need it.
func (t *Tracker) Provider() Provider { return t.provider }

// Status assembles the renderable session view.
func (t *Tracker) Status() model.WalletStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	network := t.registry.Lookup(t.chainID)
	// The session is on the wrong network when the wallet's chain differs
	// from the selected one. The zero guard covers trackers built without
	// a selection.
	wrong := t.connected && t.selected != 0 && t.chainID != t.selected
	status := model.WalletStatus{
		Connected:        t.connected,
		ProviderDetected: t.provider != nil,
		WrongNetwork:     wrong,
	}
	if t.connected {
		status.Address = t.address
		status.AddressShort = TruncateAddress(t.address)
		status.ChainID = t.chainID
		status.Network = network.Name
		status.NativeCurrency = network.NativeCurrencySymbol
		status.ExplorerURL = network.ExplorerAddressURL(t.address)
	}
	return status
}
