package epins

import (
	"context"
)

// BillerRequest is the shared payload for decoder (cable) and meter
// (electricity) recharges.
type BillerRequest struct {
	Service   string  `json:"service"`
	AccountNo string  `json:"accountno"`
	Vcode     string  `json:"vcode"`
	Amount    float64 `json:"amount"`
	Ref       string  `json:"ref"`
}

// CableGateway performs TV decoder recharges and status rechecks.
type CableGateway struct {
	c *Client
}

func (c *Client) Cable() *CableGateway {
	return &CableGateway{c: c}
}

func (g *CableGateway) Attempt(ctx context.Context, req BillerRequest) Result {
	raw, err := g.c.post(ctx, "/biller/", req)
	if err != nil {
		return uncertainFrom(err)
	}
	return classifyCable(raw)
}

func (g *CableGateway) RecheckStatus(ctx context.Context, ref string) Result {
	raw, err := g.c.post(ctx, "/transaction-status/", map[string]string{"ref": ref})
	if err != nil {
		return uncertainFrom(err)
	}
	return classifyCable(raw)
}

// ElectricityGateway performs electricity token purchases and status rechecks.
type ElectricityGateway struct {
	c *Client
}

func (c *Client) Electricity() *ElectricityGateway {
	return &ElectricityGateway{c: c}
}

func (g *ElectricityGateway) Attempt(ctx context.Context, req BillerRequest) Result {
	raw, err := g.c.post(ctx, "/biller/", req)
	if err != nil {
		return uncertainFrom(err)
	}
	return classifyElectricity(raw)
}

func (g *ElectricityGateway) RecheckStatus(ctx context.Context, ref string) Result {
	raw, err := g.c.post(ctx, "/transaction-status/", map[string]string{"ref": ref})
	if err != nil {
		return uncertainFrom(err)
	}
	return classifyElectricity(raw)
}
