package market

// Status is an order's position in the escrow lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusDisputed  Status = "disputed"
	StatusResolved  Status = "resolved"
)

// validNext enumerates every legal transition. Completed, Cancelled and
// Resolved are terminal.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusShipped: true, StatusCancelled: true, StatusDisputed: true},
	StatusShipped:   {StatusCompleted: true, StatusDisputed: true},
	StatusDisputed:  {StatusResolved: true},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusResolved:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal reports whether no transition leaves s. Custody for an order is
// zero exactly when its status is terminal.
func (s Status) Terminal() bool {
	return len(validNext[s]) == 0
}
