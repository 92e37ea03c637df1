package outbox

// Event is the domain event envelope written to the outbox table. The Kafka
// topic name equals EventType, so every allocation event type gets its own
// topic.
//
// Event types emitted by this service:
//
//	allocation.allocation.created.v1
//	allocation.allocation.closed.v1
//	allocation.allocation.autoclosed.v1
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
