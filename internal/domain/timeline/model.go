package timeline

import "time"

// EventType classifies a ledger entry.
type EventType string

const (
	TypeCreated      EventType = "CREATED"
	TypeAssigned     EventType = "ASSIGNED"
	TypeEstimate     EventType = "ESTIMATE"
	TypeApproved     EventType = "APPROVED"
	TypeChangeOrder  EventType = "CHANGE_ORDER"
	TypeStatusChange EventType = "STATUS_CHANGE"
	TypeDocument     EventType = "DOCUMENT"
	TypeUpdated      EventType = "UPDATED"
	TypeInvoice      EventType = "INVOICE"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case TypeCreated, TypeAssigned, TypeEstimate, TypeApproved, TypeChangeOrder,
		TypeStatusChange, TypeDocument, TypeUpdated, TypeInvoice:
		return true
	}
	return false
}

// Event is an immutable ledger entry. ID is the insertion sequence and breaks
// ties between events with the same Date. User is the actor's display name at
// write time.
type Event struct {
	ID         int64     `json:"id"`
	ProjectID  string    `json:"project_id"`
	Date       time.Time `json:"date"`
	Event      string    `json:"event"`
	Type       EventType `json:"type"`
	User       string    `json:"user"`
	ActorID    string    `json:"actor_id,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
}

// Order selects the direction of a ledger query.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ListOptions provides filtering options for ledger queries.
type ListOptions struct {
	ProjectID string
	Order     Order
	Types     []EventType
	Limit     int
	Offset    int
}
