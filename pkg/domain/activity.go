package domain

import (
	"github.com/google/uuid"
)

// ActivityType classifies an inbound or outbound turn activity.
type ActivityType string

const (
	// ActivityMessage is a plain user or bot message.
	ActivityMessage ActivityType = "message"

	// ActivityConversationUpdate signals membership changes (participants joining).
	ActivityConversationUpdate ActivityType = "conversationUpdate"
)

// ChannelAccount identifies a participant on the messaging channel.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Activity is one inbound event or outbound reply on a conversation.
// It carries only the fields the dispatcher needs; channel-specific
// envelopes are the transport's concern.
type Activity struct {
	ID           string           `json:"id"`
	Type         ActivityType     `json:"type"`
	Text         string           `json:"text,omitempty"`
	Conversation string           `json:"conversation"`
	From         ChannelAccount   `json:"from"`
	Recipient    ChannelAccount   `json:"recipient"`
	MembersAdded []ChannelAccount `json:"members_added,omitempty"`

	// Value carries an optional structured payload (e.g. a selected choice).
	Value any `json:"value,omitempty"`
}

// NewMessage builds an inbound message activity for the given conversation.
func NewMessage(conversation, fromID, text string) Activity {
	return Activity{
		ID:           uuid.NewString(),
		Type:         ActivityMessage,
		Text:         text,
		Conversation: conversation,
		From:         ChannelAccount{ID: fromID},
	}
}

// NewReply builds an outbound message activity addressed to the sender of in.
func NewReply(in Activity, text string) Activity {
	return Activity{
		ID:           uuid.NewString(),
		Type:         ActivityMessage,
		Text:         text,
		Conversation: in.Conversation,
		From:         in.Recipient,
		Recipient:    in.From,
	}
}

// NewConversationUpdate builds a membership-change activity.
func NewConversationUpdate(conversation string, added ...ChannelAccount) Activity {
	return Activity{
		ID:           uuid.NewString(),
		Type:         ActivityConversationUpdate,
		Conversation: conversation,
		MembersAdded: added,
	}
}
