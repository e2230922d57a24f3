package models

import (
	"time"
)

// DataPlan is one mobile-data bundle from the aggregator's catalog.
type DataPlan struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	NetworkID string    `bson:"network_id" json:"network_id"` // 01 mtn, 02 glo, 03 9mobile, 04 airtel
	Network   string    `bson:"network" json:"network"`
	PlanCode  string    `bson:"plan_code" json:"plan_code"`
	Name      string    `bson:"name" json:"name"`
	Price     float64   `bson:"price" json:"price"`
	Validity  string    `bson:"validity,omitempty" json:"validity,omitempty"`
	DataType  string    `bson:"datatype,omitempty" json:"datatype,omitempty"`
	Available bool      `bson:"available" json:"available"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CablePlan is one TV subscription package (dstv/gotv/startimes).
type CablePlan struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Service   string    `bson:"service" json:"service"`
	PlanCode  string    `bson:"plan_code" json:"plan_code"`
	Name      string    `bson:"name" json:"name"`
	Price     float64   `bson:"price" json:"price"`
	Active    bool      `bson:"active" json:"active"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
