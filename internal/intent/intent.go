// Package intent turns a free-form shopping query into a structured list of
// item requests that the rest of the pipeline operates on.
package intent

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnintelligible is returned when no item requests can be extracted from
// the query.
var ErrUnintelligible = errors.New("intent: unintelligible query")

// ItemRequest is one item the shopper wants to buy. Immutable once a session
// starts.
type ItemRequest struct {
	// ID identifies the item within its session ("item-1", "item-2", ...).
	ID string `json:"id"`

	// Query is the search text sent to each merchant's catalog.
	Query string `json:"query"`

	// MaxPrice caps the acceptable unit price. Nil means no cap.
	MaxPrice *decimal.Decimal `json:"maxPrice,omitempty"`

	// ExcludeMerchants lists merchant IDs that must not fulfill this item.
	ExcludeMerchants []string `json:"excludeMerchants,omitempty"`
}

func (r ItemRequest) String() string {
	if r.MaxPrice != nil {
		return fmt.Sprintf("%s: %q (max $%s)", r.ID, r.Query, r.MaxPrice.StringFixed(2))
	}
	return fmt.Sprintf("%s: %q", r.ID, r.Query)
}

// Parser extracts item requests from a raw shopping query.
type Parser interface {
	Parse(query string) ([]ItemRequest, error)
}
