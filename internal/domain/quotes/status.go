package quotes

// Status is the lifecycle state of a quote.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusExpired  Status = "EXPIRED"
)

// Allowed state transitions. ACCEPTED and EXPIRED are terminal.
var allowed = map[Status]map[Status]bool{
	StatusPending:  {StatusAccepted: true, StatusExpired: true},
	StatusAccepted: {},
	StatusExpired:  {},
}

// CanTransition checks if from->to is allowed.
func CanTransition(from, to Status) bool {
	nexts := allowed[from]
	return nexts != nil && nexts[to]
}
