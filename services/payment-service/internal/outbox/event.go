package outbox

// Event is the domain event envelope written to the outbox table. The Kafka
// topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by the payment service.
const (
	EventPaymentCompleted = "payment.payment.completed.v1"
	EventPaymentFailed    = "payment.payment.failed.v1"
	EventActivityLogged   = "activity.logged.v1"
)
