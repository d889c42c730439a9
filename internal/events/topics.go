package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderSubmitted = "order.submitted"
	TopicOrderVoided    = "order.voided"
	TopicSessionOpened  = "session.opened"
	TopicSessionClosed  = "session.closed"
	TopicRatesUpdated   = "rates.updated"
	TopicMenuChanged    = "menu.changed"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderSubmitted,
		TopicOrderVoided,
		TopicSessionOpened,
		TopicSessionClosed,
		TopicRatesUpdated,
		TopicMenuChanged,
	}
}
