package epins

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Outcome is the tri-state classification of an aggregator response.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeUncertain Outcome = "uncertain"
)

// Aggregator response codes.
const (
	CodeSuccess           = 101 // general success
	CodePending           = 102 // accepted, not yet final
	CodeValidationSuccess = 119 // verification success
)

// Result is the normalized view of one aggregator response. Network and
// timeout errors are surfaced here as uncertain results, never as errors that
// abort the orchestrator's reconciliation flow.
type Result struct {
	Outcome     Outcome
	Code        int
	Status      string
	Message     string
	ProviderRef string
	Transport   bool // uncertainty came from the wire, not from the payload
	Raw         map[string]interface{}
}

// uncertainFrom wraps a request-level failure as an uncertain result. Wire
// failures (timeouts, refused connections) carry the transport flag; decode
// failures do not, since the provider did answer.
func uncertainFrom(err error) Result {
	return Result{
		Outcome:   OutcomeUncertain,
		Message:   err.Error(),
		Transport: !errors.Is(err, errMalformed),
	}
}

// referenceAliases are the field names under which the aggregator has been
// seen returning its own reference for a transaction.
var referenceAliases = []string{"transref", "reference", "ref", "request_id"}

func codeOf(raw map[string]interface{}) (int, bool) {
	v, ok := raw["code"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, true
		}
	}
	return 0, false
}

func statusOf(raw map[string]interface{}) string {
	for _, key := range []string{"status", "state"} {
		switch s := raw[key].(type) {
		case string:
			return strings.ToLower(s)
		case bool:
			if s {
				return "success"
			}
			return "failed"
		}
	}
	return ""
}

func boolFlagOf(raw map[string]interface{}, key string) bool {
	b, _ := raw[key].(bool)
	return b
}

func messageOf(raw map[string]interface{}) string {
	if s, ok := raw["message"].(string); ok && s != "" {
		return s
	}
	switch d := raw["description"].(type) {
	case string:
		return d
	case map[string]interface{}:
		if s, ok := d["response_description"].(string); ok {
			return s
		}
	}
	return ""
}

// providerRefOf digs the aggregator-assigned reference out of the response,
// checking the known top-level aliases and the nested description object.
func providerRefOf(raw map[string]interface{}) string {
	for _, key := range referenceAliases {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	if d, ok := raw["description"].(map[string]interface{}); ok {
		if s, ok := d["ref"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

var explicitFailureStatuses = map[string]bool{
	"failed":   true,
	"error":    true,
	"declined": true,
	"rejected": true,
}

// base assembles the shared fields of a classified result.
func base(raw map[string]interface{}) Result {
	code, _ := codeOf(raw)
	return Result{
		Code:        code,
		Status:      statusOf(raw),
		Message:     messageOf(raw),
		ProviderRef: providerRefOf(raw),
		Raw:         raw,
	}
}

// classifyAirtime applies the airtime success table: status "success" or the
// general success code.
func classifyAirtime(raw map[string]interface{}) Result {
	r := base(raw)
	code, hasCode := codeOf(raw)
	switch {
	case r.Status == "success" || code == CodeSuccess:
		r.Outcome = OutcomeSuccess
	case explicitFailureStatuses[r.Status], hasCode && code != CodePending:
		r.Outcome = OutcomeFailed
	default:
		r.Outcome = OutcomeUncertain
	}
	return r
}

var dataSuccessPattern = regexp.MustCompile(`(?i)successful|gifted|sent|completed|thank`)

// classifyData applies the data success table: the general success code,
// boolean success flags, or a delivery phrase in the message text.
func classifyData(raw map[string]interface{}) Result {
	r := base(raw)
	code, hasCode := codeOf(raw)
	switch {
	case code == CodeSuccess,
		boolFlagOf(raw, "success"),
		boolFlagOf(raw, "status"),
		dataSuccessPattern.MatchString(r.Message):
		r.Outcome = OutcomeSuccess
	case explicitFailureStatuses[r.Status], hasCode && code != CodePending:
		r.Outcome = OutcomeFailed
	default:
		r.Outcome = OutcomeUncertain
	}
	return r
}

// classifyCable applies the strictest of the four tables: success requires
// both the success status and the general success code. Code 102 means the
// decoder recharge is queued and keeps the transaction pending.
func classifyCable(raw map[string]interface{}) Result {
	r := base(raw)
	code, hasCode := codeOf(raw)
	switch {
	case r.Status == "success" && code == CodeSuccess:
		r.Outcome = OutcomeSuccess
	case code == CodePending || r.Status == "pending":
		r.Outcome = OutcomeUncertain
	case explicitFailureStatuses[r.Status], hasCode && code != CodeSuccess:
		r.Outcome = OutcomeFailed
	default:
		r.Outcome = OutcomeUncertain
	}
	return r
}

// classifyElectricity applies the electricity success table: general success
// or validation success code, or status "success".
func classifyElectricity(raw map[string]interface{}) Result {
	r := base(raw)
	code, hasCode := codeOf(raw)
	switch {
	case code == CodeSuccess || code == CodeValidationSuccess || r.Status == "success":
		r.Outcome = OutcomeSuccess
	case explicitFailureStatuses[r.Status], hasCode && code != CodePending:
		r.Outcome = OutcomeFailed
	default:
		r.Outcome = OutcomeUncertain
	}
	return r
}
