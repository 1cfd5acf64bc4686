package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/httpx"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(httpx.New(2*time.Second, 0), srv.URL), srv
}

func TestSummary(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/transactions/0xabc/summary" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"current_credits":42,"ai_wallet_balance":"250.5","total_value_usd":1234.5,"net_apy":3.2}`))
	})

	summary, err := client.Summary(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Credits != 42 || summary.AgentBalance != "250.5" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Simulated {
		t.Fatal("backend summary must not be marked simulated")
	}
	if summary.FetchedAt == "" {
		t.Fatal("expected fetched_at timestamp")
	}
}

func TestSummaryRequiresAddress(t *testing.T) {
	client := New(httpx.New(time.Second, 0), "http://127.0.0.1:0")
	_, err := client.Summary(context.Background(), "")
	cliErr, ok := clierr.As(err)
	if !ok || cliErr.Code != clierr.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubmitAction(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai_credit_endpoint" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		// Decode the raw body to pin the wire keys the endpoint expects.
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["user_id"] != "0xabc" {
			t.Fatalf("user_id missing from request body: %v", body)
		}
		if body["action"] != ActionSwap || body["amount"] != "10" {
			t.Fatalf("unexpected request %v", body)
		}
		_, _ = w.Write([]byte(`{"accepted":true,"credits":99,"agent_balance":"990"}`))
	})

	result, err := client.SubmitAction(context.Background(), ActionRequest{
		Action:  ActionSwap,
		UserID:  "0xabc",
		Token:   "usdc",
		Amount:  "10",
		ChainID: 84532,
	})
	if err != nil {
		t.Fatalf("SubmitAction failed: %v", err)
	}
	if !result.Accepted || result.Credits != 99 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSubmitActionSurfacesDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":"not enough credits"}`))
	})

	_, err := client.SubmitAction(context.Background(), ActionRequest{Action: ActionBuy, UserID: "0xabc"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "not enough credits") {
		t.Fatalf("detail missing: %v", err)
	}
}

func TestSubmitActionRejectsUnknownAction(t *testing.T) {
	client := New(httpx.New(time.Second, 0), "http://127.0.0.1:0")
	_, err := client.SubmitAction(context.Background(), ActionRequest{Action: "stake", UserID: "0xabc"})
	cliErr, ok := clierr.As(err)
	if !ok || cliErr.Code != clierr.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}
