package outbox

// Event is the domain event envelope written to the outbox table. The Kafka
// topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by the scheduler service.
const (
	EventReminderDue = "scheduler.reminder.due.v1"
	EventReminderDLQ = "scheduler.reminder.dlq.v1"
)
