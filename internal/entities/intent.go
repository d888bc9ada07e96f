package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

type IntentKind string

const (
	IntentGeneric     IntentKind = "generic"
	IntentOrderStatus IntentKind = "order_status"
)

// ParseIntentKind maps a stored kind to a known value. Empty means generic.
func ParseIntentKind(s string) (IntentKind, error) {
	switch IntentKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", IntentGeneric:
		return IntentGeneric, nil
	case IntentOrderStatus:
		return IntentOrderStatus, nil
	default:
		return "", fmt.Errorf("unknown intent kind %q", s)
	}
}

// QuickReply is one button descriptor. Keys other than title and payload are
// kept in Extra and written back unchanged.
type QuickReply struct {
	Title   string
	Payload string
	Extra   map[string]json.RawMessage
}

func (q QuickReply) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(q.Extra)+2)
	for k, v := range q.Extra {
		fields[k] = v
	}
	fields["title"] = q.Title
	fields["payload"] = q.Payload
	return json.Marshal(fields)
}

func (q *QuickReply) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var out QuickReply
	for key, dst := range map[string]*string{"title": &out.Title, "payload": &out.Payload} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("quick reply %s: %w", key, err)
		}
		delete(fields, key)
	}
	if len(fields) > 0 {
		out.Extra = fields
	}
	*q = out
	return nil
}

type OrderStatusTemplate struct {
	CodeNotFound string `json:"code_not_found,omitempty"`
}

// ResponseTemplate is the decoded form of an intent's reply.
type ResponseTemplate struct {
	Variants     []string             `json:"variants"`
	Images       []string             `json:"images,omitempty"`
	QuickReplies []QuickReply         `json:"quick_replies,omitempty"`
	OrderStatus  *OrderStatusTemplate `json:"order_status,omitempty"`

	// Raw is the legacy body the template was decoded from, if any.
	Raw string `json:"-"`
}

type Intent struct {
	ID    int64      `json:"intent_id"`
	Title string     `json:"title"`
	Kind  IntentKind `json:"kind"`

	// Response is the legacy composite string; Template wins when both are set.
	Response string            `json:"response,omitempty"`
	Template *ResponseTemplate `json:"template,omitempty"`

	Variations []Variation `json:"variations,omitempty"`
}

type Variation struct {
	ID       int64  `json:"variation_id"`
	IntentID int64  `json:"intent_id"`
	Text     string `json:"variation"`
}
