package models

// TxnEvent is the live-notification payload pushed to connected clients when a
// transaction or wallet changes state. Purely observational: no delivery
// guarantee, no replay, never authoritative.
type TxnEvent struct {
	Type    string  `json:"type"`   // airtime, data, cable, electricity, wallet
	Status  string  `json:"status"` // pending, success, failed
	Ref     string  `json:"ref"`
	UserID  string  `json:"userId,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	Balance float64 `json:"balance,omitempty"`
	Message string  `json:"message,omitempty"`
}
