package webhook

import (
	"encoding/json"
	"testing"
)

const samplePayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA_ID",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550001111", "phone_number_id": "123456"},
        "contacts": [{"profile": {"name": "John Doe"}, "wa_id": "15551234567"}],
        "messages": [{
          "from": "15551234567",
          "id": "wamid.INBOUND1",
          "timestamp": "1665010684",
          "text": {"body": "Hello there!"},
          "type": "text"
        }],
        "statuses": [{
          "id": "wamid.OUTBOUND1",
          "status": "delivered",
          "recipient_id": "15551234567"
        }]
      }
    }]
  }]
}`

func TestPayloadDecodeAndItems(t *testing.T) {
	var p Payload
	if err := json.Unmarshal([]byte(samplePayload), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(p.Entry) != 1 || len(p.Entry[0].Changes) != 1 {
		t.Fatal("expected one entry with one change")
	}
	value := p.Entry[0].Changes[0].Value
	if value.Metadata.PhoneNumberID != "123456" {
		t.Errorf("phone_number_id = %q", value.Metadata.PhoneNumberID)
	}

	items := value.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	if items[0].Kind != ItemInboundMessage {
		t.Fatalf("first item should be an inbound message")
	}
	if items[0].Message.ID != "wamid.INBOUND1" || items[0].Message.Text.Body != "Hello there!" {
		t.Errorf("inbound message fields wrong: %+v", items[0].Message)
	}

	if items[1].Kind != ItemStatusUpdate {
		t.Fatalf("second item should be a status update")
	}
	if items[1].Status.ID != "wamid.OUTBOUND1" || items[1].Status.Status != "delivered" {
		t.Errorf("status update fields wrong: %+v", items[1].Status)
	}
}

func TestItemsTagMissingIDsAsUnknown(t *testing.T) {
	value := Value{
		Messages: []InboundMsg{{From: "15551234567"}},
		Statuses: []StatusUpdate{{Status: "read"}},
	}
	for _, item := range value.Items() {
		if item.Kind != ItemUnknown {
			t.Errorf("item without provider id must be Unknown, got %v", item.Kind)
		}
	}
}

func TestProfileNameFallback(t *testing.T) {
	value := Value{}
	if got := value.ProfileName(); got != "Unknown" {
		t.Errorf("expected fallback name, got %q", got)
	}

	value.Contacts = []WAContact{{}}
	if got := value.ProfileName(); got != "Unknown" {
		t.Errorf("expected fallback for empty profile, got %q", got)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"sent":      "Sent",
		"DELIVERED": "Delivered",
		" read ":    "Read",
		"failed":    "Failed",
		"":          "",
		"échoué":    "Échoué", // first rune may be multi-byte
	}
	for in, want := range cases {
		if got := normalizeStatus(in); got != want {
			t.Errorf("normalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
