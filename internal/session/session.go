package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/shopsplit/internal/checkout"
	"github.com/dusk-indust/shopsplit/internal/intent"
	"github.com/dusk-indust/shopsplit/internal/offer"
	"github.com/dusk-indust/shopsplit/internal/planner"
	"github.com/dusk-indust/shopsplit/internal/ucp"
)

// Session is one shopping run from query to unified order. The Matrix, Plan,
// and Order pointers are written once by the pipeline and never mutated
// afterwards, so store copies may share them.
type Session struct {
	ID    string `json:"id"`
	Query string `json:"query"`
	State State  `json:"state"`

	Items     []intent.ItemRequest     `json:"items,omitempty"`
	Merchants []ucp.MerchantCapability `json:"merchants,omitempty"`

	Matrix *offer.Matrix          `json:"matrix,omitempty"`
	Plan   *planner.Plan          `json:"plan,omitempty"`
	Order  *checkout.UnifiedOrder `json:"order,omitempty"`

	// Confirmed records that the human confirmation gate was passed.
	Confirmed bool `json:"confirmed"`

	// Seq is the sequence number of the session's latest progress event.
	Seq uint64 `json:"seq"`

	FailureReason string `json:"failureReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates a session in the planning state with a fresh UUID.
func New(query string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Query:     query,
		State:     StatePlanning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
