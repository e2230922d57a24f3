package epins

import (
	"context"
)

// DataRequest is the aggregator's data bundle purchase payload. Field casing
// follows the aggregator's API.
type DataRequest struct {
	NetworkID    string `json:"networkId"`
	MobileNumber string `json:"MobileNumber"`
	DataPlan     string `json:"DataPlan"`
	Ref          string `json:"ref"`
}

// DataGateway performs data bundle purchases and status rechecks.
type DataGateway struct {
	c *Client
}

func (c *Client) Data() *DataGateway {
	return &DataGateway{c: c}
}

func (g *DataGateway) Attempt(ctx context.Context, req DataRequest) Result {
	raw, err := g.c.post(ctx, "/data/", req)
	if err != nil {
		return uncertainFrom(err)
	}
	return classifyData(raw)
}

func (g *DataGateway) RecheckStatus(ctx context.Context, ref string) Result {
	raw, err := g.c.post(ctx, "/transaction-status/", map[string]string{"ref": ref})
	if err != nil {
		return uncertainFrom(err)
	}
	return classifyData(raw)
}
