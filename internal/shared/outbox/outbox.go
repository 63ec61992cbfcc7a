package outbox

// Outbox row persisted inside the same DB transaction as the state change that
// caused the event. The worker relay publishes pending rows to the bus; rows
// that exhaust their retries land in dead_letter for operator attention, so a
// definitive publish failure is never just a log line.

const (
	StatusPending    = "pending"
	StatusSent       = "sent"
	StatusDeadLetter = "dead_letter"
)

type Message struct {
	ID           string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string // pending, sent, dead_letter
	RetryCount   int
}
