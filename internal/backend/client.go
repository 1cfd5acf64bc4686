// Package backend speaks to the hosted agent API: portfolio summaries and
// the AI credit endpoint that brokers mutating actions.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/httpx"
	"github.com/openwallet-labs/defi-agent/internal/model"
)

// Actions accepted by the credit endpoint.
const (
	ActionBuy        = "buy"
	ActionConfirmBuy = "confirm-buy"
	ActionSupply     = "supply"
	ActionSwap       = "swap"
	ActionWithdraw   = "withdraw"
)

type Client struct {
	http    *httpx.Client
	baseURL string
	now     func() time.Time
}

func New(httpClient *httpx.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: baseURL, now: time.Now}
}

// summaryResponse mirrors the summary endpoint body; credits and balance
// arrive as current_credits and ai_wallet_balance.
type summaryResponse struct {
	Credits       int     `json:"current_credits"`
	AgentBalance  string  `json:"ai_wallet_balance"`
	TotalValueUSD float64 `json:"total_value_usd"`
	SuppliedUSD   float64 `json:"supplied_usd"`
	BorrowedUSD   float64 `json:"borrowed_usd"`
	NetAPY        float64 `json:"net_apy"`
	HealthFactor  float64 `json:"health_factor"`
}

// Summary fetches the portfolio summary for an address.
func (c *Client) Summary(ctx context.Context, address string) (model.SummaryData, error) {
	if address == "" {
		return model.SummaryData{}, clierr.New(clierr.CodeValidation, "address is required")
	}
	endpoint := fmt.Sprintf("%s/transactions/%s/summary", c.baseURL, url.PathEscape(address))

	started := c.now()
	var resp summaryResponse
	if _, err := httpx.DoBodyJSON(ctx, c.http, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return model.SummaryData{}, err
	}

	return model.SummaryData{
		Address:        address,
		Credits:        resp.Credits,
		AgentBalance:   resp.AgentBalance,
		TotalValueUSD:  resp.TotalValueUSD,
		SuppliedUSD:    resp.SuppliedUSD,
		BorrowedUSD:    resp.BorrowedUSD,
		NetAPY:         resp.NetAPY,
		HealthFactor:   resp.HealthFactor,
		FetchedAt:      c.now().UTC().Format(time.RFC3339),
		BackendLatency: c.now().Sub(started).Milliseconds(),
	}, nil
}

// ActionRequest is the credit endpoint payload. The endpoint identifies the
// caller by wallet address, posted as user_id.
type ActionRequest struct {
	Action  string `json:"action"`
	UserID  string `json:"user_id"`
	Token   string `json:"token,omitempty"`
	Amount  string `json:"amount,omitempty"`
	ChainID int64  `json:"chain_id,omitempty"`
}

// ActionResult is the credit endpoint response.
type ActionResult struct {
	Accepted     bool   `json:"accepted"`
	Credits      int    `json:"credits"`
	AgentBalance string `json:"agent_balance"`
	Message      string `json:"message,omitempty"`
}

// SubmitAction posts one action to the AI credit endpoint. Backend
// rejections carry a "detail" field that surfaces in the error message.
func (c *Client) SubmitAction(ctx context.Context, req ActionRequest) (ActionResult, error) {
	switch req.Action {
	case ActionBuy, ActionConfirmBuy, ActionSupply, ActionSwap, ActionWithdraw:
	default:
		return ActionResult{}, clierr.New(clierr.CodeValidation, "unknown action "+req.Action)
	}
	if req.UserID == "" {
		return ActionResult{}, clierr.New(clierr.CodeValidation, "user id is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ActionResult{}, clierr.Wrap(clierr.CodeInternal, "encode action request", err)
	}
	endpoint := c.baseURL + "/ai_credit_endpoint"

	var result ActionResult
	if _, err := httpx.DoBodyJSON(ctx, c.http, http.MethodPost, endpoint, body, nil, &result); err != nil {
		return ActionResult{}, err
	}
	return result, nil
}
