package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", dir)
	t.Setenv("DEFI_AGENT_MOCK_DELAY", "0s")
}

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	r := NewRunnerWithWriters(&stdout, &stderr)
	code := r.Run(args)
	return stdout.String(), stderr.String(), code
}

func parseEnvelope(t *testing.T, raw string) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("parse envelope: %v output=%s", err, raw)
	}
	return env
}

func TestTrimRootPath(t *testing.T) {
	if got := trimRootPath("defi-agent tx history"); got != "tx history" {
		t.Fatalf("unexpected trim result: %s", got)
	}
}

func TestVersionCommand(t *testing.T) {
	setTestEnv(t)
	stdout, stderr, code := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "0.1.0" {
		t.Fatalf("unexpected version output %q", stdout)
	}
}

func TestExecMockSwapEnvelope(t *testing.T) {
	setTestEnv(t)
	stdout, stderr, code := runCLI(t, "exec", "swap", "10", "usdc", "--mock")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr)
	}
	env := parseEnvelope(t, stdout)
	if env["success"] != true {
		t.Fatalf("expected success envelope, got %v", env)
	}
	data := env["data"].(map[string]any)
	if data["verb"] != "swap" || data["simulated"] != true || data["accepted"] != true {
		t.Fatalf("unexpected command result %v", data)
	}
	meta := env["meta"].(map[string]any)
	if meta["simulated"] != true || meta["chain_id"] != float64(84532) {
		t.Fatalf("unexpected meta %v", meta)
	}
}

func TestExecUnknownVerbExitCode(t *testing.T) {
	setTestEnv(t)
	_, stderr, code := runCLI(t, "exec", "stake", "100", "--mock")
	if code != 3 {
		t.Fatalf("expected validation exit code, got %d", code)
	}
	env := parseEnvelope(t, stderr)
	errBody := env["error"].(map[string]any)
	if errBody["type"] != "validation_error" {
		t.Fatalf("unexpected error type %v", errBody)
	}
}

func TestWalletStatusMock(t *testing.T) {
	setTestEnv(t)
	stdout, stderr, code := runCLI(t, "wallet", "status", "--mock", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr)
	}
	var status map[string]any
	if err := json.Unmarshal([]byte(stdout), &status); err != nil {
		t.Fatalf("parse status: %v output=%s", err, stdout)
	}
	if status["connected"] != true {
		t.Fatalf("expected connected session, got %v", status)
	}
	short, _ := status["address_short"].(string)
	if len(short) != 13 || !strings.Contains(short, "...") {
		t.Fatalf("unexpected short address %q", short)
	}
}

func TestNetworkListIncludesDefaultChain(t *testing.T) {
	setTestEnv(t)
	stdout, stderr, code := runCLI(t, "network", "list", "--mock", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr)
	}
	if !strings.Contains(stdout, "Base Sepolia") {
		t.Fatalf("expected Base Sepolia in output: %s", stdout)
	}
}

func TestNetworkSwitchToUnknownChainFails(t *testing.T) {
	setTestEnv(t)
	_, stderr, code := runCLI(t, "network", "switch", "--chain-id", "999999", "--mock")
	if code != 15 {
		t.Fatalf("expected unsupported exit code, got %d stderr=%s", code, stderr)
	}
}

func TestSchemaListsCommandTree(t *testing.T) {
	setTestEnv(t)
	stdout, stderr, code := runCLI(t, "schema", "--results-only")
	if code != 0 {
		t.Fatalf("schema failed: %d %s", code, stderr)
	}
	var tree map[string]any
	if err := json.Unmarshal([]byte(stdout), &tree); err != nil {
		t.Fatalf("parse schema: %v output=%s", err, stdout)
	}
	subs, _ := tree["subcommands"].([]any)
	var names []string
	for _, sub := range subs {
		names = append(names, sub.(map[string]any)["path"].(string))
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"console", "exec", "send", "summary"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("schema missing %q: %s", want, joined)
		}
	}
}

func TestEnableCommandsBlocksOtherPaths(t *testing.T) {
	setTestEnv(t)
	_, stderr, code := runCLI(t, "wallet", "status", "--mock", "--enable-commands", "summary")
	if code != 18 {
		t.Fatalf("expected blocked exit code, got %d stderr=%s", code, stderr)
	}
	env := parseEnvelope(t, stderr)
	errBody := env["error"].(map[string]any)
	if errBody["type"] != "command_blocked" {
		t.Fatalf("unexpected error type %v", errBody)
	}
}

func TestSendMockConfirms(t *testing.T) {
	setTestEnv(t)
	stdout, stderr, code := runCLI(t,
		"send", "--to", "0x2222222222222222222222222222222222222222", "--amount", "0.25", "--mock", "--results-only")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%s", code, stderr)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("parse send result: %v output=%s", err, stdout)
	}
	if result["state"] != "success" {
		t.Fatalf("unexpected state %v", result)
	}
	hash, _ := result["hash"].(string)
	if !strings.HasPrefix(hash, "0x") {
		t.Fatalf("missing tx hash: %v", result)
	}
	if result["amount_wei"] != "250000000000000000" {
		t.Fatalf("unexpected amount %v", result["amount_wei"])
	}
}

func TestSendThenHistoryListsRecord(t *testing.T) {
	setTestEnv(t)
	if _, stderr, code := runCLI(t,
		"send", "--to", "0x3333333333333333333333333333333333333333", "--amount", "0.1", "--mock"); code != 0 {
		t.Fatalf("send failed: %d %s", code, stderr)
	}
	stdout, stderr, code := runCLI(t, "tx", "history", "--mock", "--results-only")
	if code != 0 {
		t.Fatalf("history failed: %d %s", code, stderr)
	}
	var records []map[string]any
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		t.Fatalf("parse history: %v output=%s", err, stdout)
	}
	if len(records) == 0 {
		t.Fatal("expected at least one history record")
	}
	if records[0]["verb"] != "send" || records[0]["status"] != "confirmed" {
		t.Fatalf("unexpected record %v", records[0])
	}
}

func TestSummaryUsesBackend(t *testing.T) {
	setTestEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/summary") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"current_credits":42,"ai_wallet_balance":"900","total_value_usd":1234.5}`))
	}))
	defer srv.Close()

	stdout, stderr, code := runCLI(t, "summary", "--mock", "--backend-url", srv.URL, "--results-only")
	if code != 0 {
		t.Fatalf("summary failed: %d %s", code, stderr)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(stdout), &data); err != nil {
		t.Fatalf("parse summary: %v output=%s", err, stdout)
	}
	if data["credits"] != float64(42) || data["agent_balance"] != "900" {
		t.Fatalf("unexpected summary %v", data)
	}
}

func TestSummaryFallsBackWhenBackendUnreachable(t *testing.T) {
	setTestEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	stdout, stderr, code := runCLI(t,
		"summary", "--mock", "--backend-url", srv.URL, "--retries", "0", "--timeout", "2s")
	if code != 0 {
		t.Fatalf("expected simulated fallback, got %d stderr=%s", code, stderr)
	}
	env := parseEnvelope(t, stdout)
	data := env["data"].(map[string]any)
	if data["simulated"] != true || data["credits"] != float64(100) || data["agent_balance"] != "1000" {
		t.Fatalf("unexpected fallback %v", data)
	}
	warnings, _ := env["warnings"].([]any)
	if len(warnings) == 0 {
		t.Fatal("expected a fallback warning")
	}
}

func TestAssetsListMock(t *testing.T) {
	setTestEnv(t)
	stdout, stderr, code := runCLI(t, "assets", "list", "--mock", "--results-only")
	if code != 0 {
		t.Fatalf("assets failed: %d %s", code, stderr)
	}
	var holdings []map[string]any
	if err := json.Unmarshal([]byte(stdout), &holdings); err != nil {
		t.Fatalf("parse holdings: %v output=%s", err, stdout)
	}
	if len(holdings) != 2 {
		t.Fatalf("expected native plus usdc, got %d", len(holdings))
	}
	if holdings[0]["symbol"] != "ETH" || holdings[0]["balance_decimal"] != "0.5" {
		t.Fatalf("unexpected native holding %v", holdings[0])
	}
	if holdings[1]["symbol"] != "USDC" || holdings[1]["balance_decimal"] != "250" {
		t.Fatalf("unexpected usdc holding %v", holdings[1])
	}
}

func TestPlainConsoleRunsCommands(t *testing.T) {
	setTestEnv(t)
	var stdout, stderr bytes.Buffer
	r := NewRunnerWithWriters(&stdout, &stderr)

	// Drive the console through stdin in plain mode.
	state := &runtimeState{runner: r}
	cmd := state.newRootCommand()
	state.root = cmd
	cmd.SetArgs([]string{"console", "--mock", "--plain"})
	cmd.SetIn(strings.NewReader("help\nexit\n"))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		t.Fatalf("console failed: %v stderr=%s", err, stderr.String())
	}
	state.closeStores()
	if !strings.Contains(stdout.String(), "Available commands:") {
		t.Fatalf("expected help output in console stream: %s", stdout.String())
	}
}
