package whatsapp

// Webhook payload structures for the WhatsApp Business Cloud API. Deliveries
// arrive as a batch of entries, each carrying changes, each carrying
// messages. Only text messages are processed by this service.

// WebhookObject is the value of the top-level "object" field for WhatsApp
// Business account deliveries.
const WebhookObject = "whatsapp_business_account"

// WebhookEvent is the top-level webhook delivery payload.
type WebhookEvent struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry is one account-level entry in a delivery batch.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange is one change notification within an entry.
type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue carries the messages of a change notification.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is a single message received from a user.
type InboundMessage struct {
	From      string       `json:"from"`
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *MessageText `json:"text,omitempty"`
}

// MessageText is the body of a text message.
type MessageText struct {
	Body string `json:"body"`
}

// TextMessages flattens the entry/change nesting and returns every inbound
// text message with a non-empty body, in delivery order.
func (e *WebhookEvent) TextMessages() []InboundMessage {
	var messages []InboundMessage
	for _, entry := range e.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil || msg.Text.Body == "" {
					continue
				}
				messages = append(messages, msg)
			}
		}
	}
	return messages
}
