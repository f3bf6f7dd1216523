// Package conversation turns inbound chat events into booking operations and
// outbound message descriptors. It knows nothing about the chat platform.
package conversation

// Event is one inbound update.
type Event struct {
	SenderID int64
	// Handle is the sender's "@username"; empty when the user has none.
	Handle string
	Text   string
	// Callback is the token of a pressed inline choice: "H:MM", "approve H:MM" or "back".
	Callback string
}

// IsCallback reports whether the event came from an inline choice.
func (e Event) IsCallback() bool {
	return e.Callback != ""
}

// Choice is one selectable option. Data is empty for plain reply tokens
// and carries the callback token for inline choices.
type Choice struct {
	Label string
	Data  string
}

// Inline reports whether the choice is delivered as a callback button.
func (c Choice) Inline() bool {
	return c.Data != ""
}

// Outbound describes one message to send.
type Outbound struct {
	RecipientID int64
	Text        string
	Choices     []Choice
	// Columns is a layout hint for the choice list; 0 lets the transport decide.
	Columns int
}
