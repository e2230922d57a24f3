package aspfiy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client talks to the bank-transfer provider that funds wallets. Inbound
// notifications from the same provider land on the funding webhook; this
// client only provisions reserved accounts.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

func NewClientFromEnv() *Client {
	baseURL := os.Getenv("ASPFIY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api-v1.aspfiy.com"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  os.Getenv("ASPFIY_SECRET_KEY"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ReservedAccountRequest asks the provider to open a dedicated bank account
// whose deposits are routed to one wallet via MerchantReference.
type ReservedAccountRequest struct {
	AccountName       string `json:"account_name"`
	Email             string `json:"email"`
	MerchantReference string `json:"merchant_reference"`
}

type ReservedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankName      string `json:"bank_name"`
}

// CreateReservedAccount provisions a funding account for a new wallet.
func (c *Client) CreateReservedAccount(ctx context.Context, req ReservedAccountRequest) (*ReservedAccount, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reserve-paga/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reserved account request rejected: %s: %s", resp.Status, data)
	}

	var out struct {
		Data ReservedAccount `json:"data"`
		ReservedAccount
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out.Data.AccountNumber != "" {
		return &out.Data, nil
	}
	return &out.ReservedAccount, nil
}
