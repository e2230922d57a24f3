package epins

import (
	"context"
	"fmt"
)

// VerifyRequest asks the aggregator to validate a smartcard or meter number
// before a purchase is attempted.
type VerifyRequest struct {
	ServiceID    string `json:"serviceId"`
	BillerNumber string `json:"billerNumber"`
	Vcode        string `json:"vcode"`
}

// Verify validates a biller number. Codes 119 (validation success) and 101
// both count as verified.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) Result {
	raw, err := c.post(ctx, "/merchant-verify/", req)
	if err != nil {
		return uncertainFrom(err)
	}

	r := base(raw)
	code, hasCode := codeOf(raw)
	switch {
	case code == CodeValidationSuccess || code == CodeSuccess:
		r.Outcome = OutcomeSuccess
	case hasCode || explicitFailureStatuses[r.Status]:
		r.Outcome = OutcomeFailed
	default:
		r.Outcome = OutcomeUncertain
	}
	return r
}

// FloatBalance fetches the aggregator-side float balance.
func (c *Client) FloatBalance(ctx context.Context) (map[string]interface{}, error) {
	raw, err := c.get(ctx, c.cfg.BaseURL+"/account/")
	if err != nil {
		return nil, err
	}
	if code, _ := codeOf(raw); code != CodeSuccess {
		return nil, fmt.Errorf("aggregator balance query failed: %s", messageOf(raw))
	}
	return raw, nil
}

// Variations pulls the plan catalog for a service (data, dstv, gotv,
// startimes) from the aggregator's catalog endpoint.
func (c *Client) Variations(ctx context.Context, service string) ([]map[string]interface{}, error) {
	raw, err := c.get(ctx, c.cfg.CatalogURL+"?service="+service)
	if err != nil {
		return nil, err
	}

	items, ok := raw["description"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected catalog response shape for %q", service)
	}

	var out []map[string]interface{}
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out, nil
}
