package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RawChat is a chat record as the gateway returns it. The gateway mixes
// lead-system fields and protocol-level (wa_*) fields on the same record,
// and any of them may be absent. Field names follow the upstream wire format.
type RawChat struct {
	ID                    string  `json:"id"`
	WAChatID              string  `json:"wa_chatid"`
	WAContactName         string  `json:"wa_contactName"`
	WAName                string  `json:"wa_name"`
	Name                  string  `json:"name"`
	LeadFullName          string  `json:"Lead_fullName"`
	WALastMessageTextVote Content `json:"wa_lastMessageTextVote"`
	WALastMessageSender   Content `json:"wa_lastMessageSender"`
	LastMessage           Content `json:"last_message"`
	WALastMsgTimestamp    int64   `json:"wa_lastMsgTimestamp"`
	WAUnreadCount         int     `json:"wa_unreadCount"`
	UnreadCount           int     `json:"unread_count"`
}

// RawMessage is a message record as the gateway returns it. The chat
// reference may arrive as chatId (lead id), remoteJid, or key.remoteJid
// depending on the gateway's mood.
type RawMessage struct {
	ID         string     `json:"id"`
	ChatID     string     `json:"chatId"`
	RemoteJID  string     `json:"remoteJid"`
	Key        MessageKey `json:"key"`
	Content    Content    `json:"content"`
	Body       Content    `json:"body"`
	FromMe     bool       `json:"fromMe"`
	SenderName string     `json:"senderName"`
	Timestamp  int64      `json:"timestamp"`
	Type       string     `json:"type"`
}

// MessageKey mirrors the protocol-level message key envelope.
type MessageKey struct {
	RemoteJID string `json:"remoteJid"`
}

// ChatRef returns the first non-empty chat reference on the message.
func (m *RawMessage) ChatRef() string {
	if m.ChatID != "" {
		return m.ChatID
	}
	if m.RemoteJID != "" {
		return m.RemoteJID
	}
	return m.Key.RemoteJID
}

// Content is a gateway payload field with no fixed shape: absent, a plain
// string, a structured object, or some other scalar. It keeps the raw bytes
// and decodes on demand so malformed payloads degrade instead of erroring.
type Content struct {
	raw json.RawMessage
}

// ContentObject is the structured form of a message payload.
type ContentObject struct {
	Text      string `json:"text"`
	Body      string `json:"body"`
	Caption   string `json:"caption"`
	Title     string `json:"title"`
	Mimetype  string `json:"mimetype"`
	Timestamp int64  `json:"timestamp"`
}

// UnmarshalJSON stores the raw bytes verbatim. Never fails.
func (c *Content) UnmarshalJSON(b []byte) error {
	c.raw = append(c.raw[:0], b...)
	return nil
}

// MarshalJSON round-trips the stored bytes.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.raw) == 0 {
		return []byte("null"), nil
	}
	return c.raw, nil
}

// IsEmpty reports whether the field was absent or JSON null.
func (c Content) IsEmpty() bool {
	return len(c.raw) == 0 || bytes.Equal(c.raw, []byte("null"))
}

// AsString returns the payload as a plain string if it is one.
func (c Content) AsString() (string, bool) {
	if c.IsEmpty() || c.raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(c.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsObject returns the structured form if the payload is a JSON object.
func (c Content) AsObject() (ContentObject, bool) {
	if c.IsEmpty() || c.raw[0] != '{' {
		return ContentObject{}, false
	}
	var obj ContentObject
	if err := json.Unmarshal(c.raw, &obj); err != nil {
		return ContentObject{}, false
	}
	return obj, true
}

// Scalar returns the string representation of a non-string, non-object
// payload (numbers, booleans).
func (c Content) Scalar() string {
	if c.IsEmpty() {
		return ""
	}
	return strings.TrimSpace(string(c.raw))
}

// ObjectTimestamp returns the embedded timestamp when the payload is an
// object carrying one (the gateway's last_message shape), in gateway units.
func (c Content) ObjectTimestamp() (int64, bool) {
	obj, ok := c.AsObject()
	if !ok || obj.Timestamp == 0 {
		return 0, false
	}
	return obj.Timestamp, true
}
