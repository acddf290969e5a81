package store

// MessageRole is the author of a conversation message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "USER"
	MessageRoleAssistant MessageRole = "ASSISTANT"
)

// Conversation groups the turns of one chat session.
type Conversation struct {
	ID        int64
	UID       string
	Title     string
	Persona   string
	CreatedTs int64
	UpdatedTs int64
}

// FindConversation filters conversation lookups.
type FindConversation struct {
	ID  *int64
	UID *string
}

// DeleteConversation identifies a conversation to remove, messages included.
type DeleteConversation struct {
	ID int64
}

// Message is one turn in a conversation. Messages are append-only; the
// assistant row for a turn is written only after generation completes.
type Message struct {
	ID             int64
	ConversationID int64
	Role           MessageRole
	Content        string
	// SourcesJSON holds the cited sources for assistant messages.
	SourcesJSON string
	CreatedTs   int64
}

// FindMessage filters message lookups.
type FindMessage struct {
	ConversationID *int64
}
