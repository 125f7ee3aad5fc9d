// internal/webhook/payload.go
package webhook

// Provider event deliveries are a nested structure of entries -> changes ->
// values. Each value carries a routing identifier plus optional arrays of
// inbound messages and status updates. Decoding happens once at the boundary;
// downstream code works with the Item tagged union, never with raw maps.

type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string         `json:"messaging_product"`
	Metadata         Metadata       `json:"metadata"`
	Contacts         []WAContact    `json:"contacts"`
	Messages         []InboundMsg   `json:"messages"`
	Statuses         []StatusUpdate `json:"statuses"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WAContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type InboundMsg struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
}

type StatusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
}

// ItemKind tags one unit of work inside a value.
type ItemKind int

const (
	ItemUnknown ItemKind = iota
	ItemInboundMessage
	ItemStatusUpdate
)

// Item is the tagged union the ingestor dispatches on. Exactly one of
// Message/Status is set for the corresponding kind.
type Item struct {
	Kind    ItemKind
	Message *InboundMsg
	Status  *StatusUpdate
}

// Items flattens a value into processable units. Entries that cannot be
// classified (no provider id) come back as ItemUnknown so the caller can log
// and skip them explicitly.
func (v *Value) Items() []Item {
	items := make([]Item, 0, len(v.Messages)+len(v.Statuses))
	for i := range v.Messages {
		msg := &v.Messages[i]
		if msg.ID == "" {
			items = append(items, Item{Kind: ItemUnknown})
			continue
		}
		items = append(items, Item{Kind: ItemInboundMessage, Message: msg})
	}
	for i := range v.Statuses {
		st := &v.Statuses[i]
		if st.ID == "" {
			items = append(items, Item{Kind: ItemUnknown})
			continue
		}
		items = append(items, Item{Kind: ItemStatusUpdate, Status: st})
	}
	return items
}

// ProfileName returns the sender's profile name from the value's contacts
// block, or a fallback when absent.
func (v *Value) ProfileName() string {
	if len(v.Contacts) > 0 && v.Contacts[0].Profile.Name != "" {
		return v.Contacts[0].Profile.Name
	}
	return "Unknown"
}
