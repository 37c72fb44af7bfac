package chats

import (
	"sort"
	"time"

	"github.com/pedeai/pedeai/internal/gateway"
)

// Conversation is one deduplicated, allow-listed conversation thread.
// ID keeps the gateway-native record id because subsequent message queries
// must use it; Phone is the canonical contact key used for unification.
type Conversation struct {
	ID          string `json:"id"`
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	LastMessage string `json:"lastMessage"`
	Timestamp   int64  `json:"timestamp"`
	UnreadCount int    `json:"unreadCount"`
}

// Message is a normalized message within one conversation.
type Message struct {
	ID         string `json:"id"`
	ChatID     string `json:"chatId"`
	Content    string `json:"content"`
	FromMe     bool   `json:"fromMe"`
	SenderName string `json:"senderName"`
	Timestamp  int64  `json:"timestamp"`
	Type       string `json:"type"`
}

// AllowedContact is one entry of the restaurant's customer roster, used as a
// filter and name-override source.
type AllowedContact struct {
	Phone string
	Name  string
}

// fallbackName labels conversations with no resolvable display name.
const fallbackName = "Contato"

// Unify collapses raw gateway chat records into a deduplicated, time-sorted
// conversation list. The real identity key is the protocol JID (wa_chatid)
// when present, the record's own id otherwise; the gateway exposes the same
// contact under several records after repeated lead imports, and only the
// most recent one per key survives. A non-empty allow-list restricts output
// to records whose canonical phone matches an allowed contact.
//
// Records with no timestamp are stamped with now, deliberately sorting them
// as most recent rather than dropping them to the bottom.
func Unify(raw []gateway.RawChat, allowed []AllowedContact, now time.Time) []Conversation {
	nowMs := now.UnixMilli()
	byKey := make(map[string]Conversation)

	for i := range raw {
		chat := &raw[i]
		realKey := chat.WAChatID
		if realKey == "" {
			realKey = chat.ID
		}
		if realKey == "" {
			continue
		}

		canonical := CanonicalPhone(realKey)

		var match *AllowedContact
		for j := range allowed {
			if CanonicalPhone(allowed[j].Phone) == canonical {
				match = &allowed[j]
				break
			}
		}
		if len(allowed) > 0 && match == nil {
			continue
		}

		conv := Conversation{
			ID:          chat.ID,
			Phone:       canonical,
			Name:        resolveName(chat, match),
			LastMessage: ExtractContent(firstContent(chat.WALastMessageTextVote, chat.WALastMessageSender, chat.LastMessage)),
			Timestamp:   chatTimestamp(chat, nowMs),
			UnreadCount: unreadCount(chat),
		}

		// Ties keep the first record seen.
		if existing, ok := byKey[realKey]; !ok || conv.Timestamp > existing.Timestamp {
			byKey[realKey] = conv
		}
	}

	out := make([]Conversation, 0, len(byKey))
	for _, conv := range byKey {
		out = append(out, conv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

func resolveName(chat *gateway.RawChat, match *AllowedContact) string {
	if match != nil && match.Name != "" {
		return match.Name
	}
	for _, name := range []string{chat.WAName, chat.Name, chat.LeadFullName} {
		if name != "" {
			return name
		}
	}
	return fallbackName
}

// chatTimestamp normalizes the last-activity time to milliseconds. The
// gateway reports whole seconds in both timestamp sources.
func chatTimestamp(chat *gateway.RawChat, nowMs int64) int64 {
	if chat.WALastMsgTimestamp != 0 {
		return chat.WALastMsgTimestamp * 1000
	}
	if ts, ok := chat.LastMessage.ObjectTimestamp(); ok {
		return ts * 1000
	}
	return nowMs
}

func unreadCount(chat *gateway.RawChat) int {
	if chat.WAUnreadCount != 0 {
		return chat.WAUnreadCount
	}
	return chat.UnreadCount
}
