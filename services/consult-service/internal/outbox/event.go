package outbox

// Event is the domain event envelope written to the outbox table. The Kafka
// topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by the consultation service.
const (
	EventConsultationCreated = "consult.consultation.created.v1"
	EventStatusChanged       = "consult.consultation.status_changed.v1"
	EventReminderRequested   = "consult.reminder.requested.v1"
	EventFinancialUpdated    = "consult.financial.updated.v1"
	EventActivityLogged      = "activity.logged.v1"
)
