package domain

// Principal identifies the owner of a state bag: a user or a conversation.
// State is never shared across principals.
type Principal string

// UserPrincipal scopes state to a single user across conversations.
func UserPrincipal(userID string) Principal {
	return Principal("user:" + userID)
}

// ConversationPrincipal scopes state to a single conversation.
func ConversationPrincipal(conversationID string) Principal {
	return Principal("conversation:" + conversationID)
}

func (p Principal) String() string {
	return string(p)
}

// StateBag is the persisted key/value record owned by one principal.
// Values must round-trip through JSON.
type StateBag map[string]any

// Clone returns a copy of the bag's top level. Nested values are shared
// with the original; stores needing full isolation must serialize instead.
func (b StateBag) Clone() StateBag {
	cp := make(StateBag, len(b))
	for k, v := range b {
		cp[k] = v
	}
	return cp
}
