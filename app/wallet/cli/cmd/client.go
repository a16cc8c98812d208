package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/scremy/blockchain/business/web/errs"
	"github.com/scremy/blockchain/foundation/blockchain/database"
)

// Balance is the balance of an address as reported by the node.
type Balance struct {
	Address string          `json:"address"`
	Balance database.Amount `json:"balance"`
	Unit    string          `json:"unit"`
}

// Chain is the full chain as reported by the node.
type Chain struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

// Mining is the result of mining a block for an address.
type Mining struct {
	Address    string          `json:"address"`
	NewBalance database.Amount `json:"new_balance"`
	Reward     database.Amount `json:"reward"`
	Block      database.Block  `json:"block"`
}

// Pending is the set of transactions waiting to be mined.
type Pending struct {
	Count        int           `json:"count"`
	Transactions []database.Tx `json:"transactions"`
}

// Client talks to the public api of a ledger node.
type Client struct {
	rc *resty.Client
}

// NewClient constructs a client for the node at the url.
func NewClient(url string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(url).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{rc: rc}
}

// Balance returns the balance for the address.
func (c *Client) Balance(ctx context.Context, address string) (Balance, error) {
	params := map[string]string{"address": address}

	var bal Balance
	if err := c.do(ctx, resty.MethodGet, "/balance/{address}", params, nil, &bal); err != nil {
		return Balance{}, err
	}
	return bal, nil
}

// Chain returns the node's chain.
func (c *Client) Chain(ctx context.Context) (Chain, error) {
	var chain Chain
	if err := c.do(ctx, resty.MethodGet, "/chain", nil, nil, &chain); err != nil {
		return Chain{}, err
	}
	return chain, nil
}

// Valid reports whether the node's chain is intact.
func (c *Client) Valid(ctx context.Context) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := c.do(ctx, resty.MethodGet, "/chain/valid", nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// Pending returns the node's mempool.
func (c *Client) Pending(ctx context.Context) (Pending, error) {
	var pending Pending
	if err := c.do(ctx, resty.MethodGet, "/tx/pending", nil, nil, &pending); err != nil {
		return Pending{}, err
	}
	return pending, nil
}

// Mine asks the node to mine a block paying the reward to the address.
func (c *Client) Mine(ctx context.Context, address string) (Mining, error) {
	req := struct {
		Address string `json:"address"`
	}{
		Address: address,
	}

	var mining Mining
	if err := c.do(ctx, resty.MethodPost, "/api/mining/start", nil, req, &mining); err != nil {
		return Mining{}, err
	}
	return mining, nil
}

// Transfer moves funds right away and returns the sender's new balance.
func (c *Client) Transfer(ctx context.Context, from string, to string, amount database.Amount) (database.Amount, error) {
	req := struct {
		FromAddress string          `json:"from_address"`
		ToAddress   string          `json:"to_address"`
		Amount      database.Amount `json:"amount"`
	}{
		FromAddress: from,
		ToAddress:   to,
		Amount:      amount,
	}

	var resp struct {
		NewBalance database.Amount `json:"new_balance"`
	}
	if err := c.do(ctx, resty.MethodPost, "/api/transfer", nil, req, &resp); err != nil {
		return database.Amount{}, err
	}
	return resp.NewBalance, nil
}

// Submit adds a transaction to the node's mempool.
func (c *Client) Submit(ctx context.Context, sender string, recipient string, amount database.Amount) (string, error) {
	req := struct {
		Sender    string          `json:"sender"`
		Recipient string          `json:"recipient"`
		Amount    database.Amount `json:"amount"`
	}{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, resty.MethodPost, "/transaction/new", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CreateWallet registers the address with the node. It reports false when
// the wallet already existed.
func (c *Client) CreateWallet(ctx context.Context, address string) (bool, error) {
	req := struct {
		Address string `json:"address"`
	}{
		Address: address,
	}

	var resp struct {
		Created bool `json:"created"`
	}
	if err := c.do(ctx, resty.MethodPost, "/api/wallet/create", nil, req, &resp); err != nil {
		return false, err
	}
	return resp.Created, nil
}

// =============================================================================

// do executes the request. Path parameters are escaped before they are
// placed into the path.
func (c *Client) do(ctx context.Context, method string, path string, params map[string]string, body any, result any) error {
	var errResp errs.Response

	req := c.rc.R().
		SetContext(ctx).
		SetPathParams(params).
		SetResult(result).
		SetError(&errResp)

	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.IsError() {
		if errResp.Error != "" {
			return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status(), errResp.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status())
	}

	return nil
}
