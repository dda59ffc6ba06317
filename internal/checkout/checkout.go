// Package checkout executes an optimization plan against its merchants
// concurrently and reconciles the per-merchant results into one unified
// order.
package checkout

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel errors returned by the coordinator.
var (
	ErrEmptyPlan = errors.New("checkout: plan has no merchant orders")
	ErrInFlight  = errors.New("checkout: session checkout already in flight")
)

// Status is the result of one merchant's checkout attempt.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// OverallStatus aggregates per-merchant outcomes.
type OverallStatus string

const (
	// OverallComplete means every merchant checkout succeeded.
	OverallComplete OverallStatus = "complete"
	// OverallPartial means at least one succeeded and at least one failed.
	// Successful merchant orders stand; there is no rollback.
	OverallPartial OverallStatus = "partial"
	// OverallFailed means no merchant checkout succeeded.
	OverallFailed OverallStatus = "failed"
)

// Outcome records one merchant's checkout result.
type Outcome struct {
	MerchantID     string `json:"merchantId"`
	Status         Status `json:"status"`
	OrderReference string `json:"orderReference,omitempty"`
	Err            string `json:"error,omitempty"`
	Attempts       int    `json:"attempts"`
}

// UnifiedOrder is the aggregated result of a session's checkout. Immutable
// once created.
type UnifiedOrder struct {
	SessionID     string             `json:"sessionId"`
	Outcomes      map[string]Outcome `json:"outcomes"`
	OverallStatus OverallStatus      `json:"overallStatus"`

	// TotalCharged sums the order totals of succeeded merchants only.
	TotalCharged decimal.Decimal `json:"totalCharged"`

	CreatedAt time.Time `json:"createdAt"`
}
