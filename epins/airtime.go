package epins

import (
	"context"
)

// AirtimeRequest is the aggregator's airtime purchase payload.
type AirtimeRequest struct {
	Network   string  `json:"network"`
	Phone     string  `json:"phone"`
	Amount    float64 `json:"amount"`
	Ref       string  `json:"ref"`
	RequestID string  `json:"request_id"`
}

// AirtimeGateway performs airtime purchases and status rechecks.
type AirtimeGateway struct {
	c *Client
}

func (c *Client) Airtime() *AirtimeGateway {
	return &AirtimeGateway{c: c}
}

func (g *AirtimeGateway) Attempt(ctx context.Context, req AirtimeRequest) Result {
	raw, err := g.c.post(ctx, "/airtime/", req)
	if err != nil {
		return uncertainFrom(err)
	}
	return classifyAirtime(raw)
}

func (g *AirtimeGateway) RecheckStatus(ctx context.Context, ref string) Result {
	raw, err := g.c.get(ctx, g.c.cfg.BaseURL+"/airtime/status/"+ref)
	if err != nil {
		return uncertainFrom(err)
	}
	return classifyAirtime(raw)
}
