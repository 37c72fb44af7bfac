package chats

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pedeai/pedeai/internal/bus"
	"github.com/pedeai/pedeai/internal/gateway"
	"go.uber.org/zap"
)

// secondsThreshold disambiguates message timestamp units: values below it are
// whole seconds, values at or above it are already milliseconds.
const secondsThreshold = 10_000_000_000

// Gateway is the slice of the gateway client the unifier needs.
type Gateway interface {
	FindChats(ctx context.Context) ([]gateway.RawChat, error)
	FindMessages(ctx context.Context, chatID string) ([]gateway.RawMessage, error)
}

// ContactSource supplies the restaurant's allowed-contact roster.
type ContactSource interface {
	AllowedContacts(ctx context.Context) ([]AllowedContact, error)
}

// Service owns the unified conversation snapshot. The snapshot is replaced
// wholesale on every successful refresh, never patched incrementally.
//
// Each refresh is tagged with a generation number and only the latest
// generation may install its result, so an overlapping slow refresh cannot
// overwrite a newer one.
type Service struct {
	gw       Gateway
	contacts ContactSource
	bus      *bus.Bus
	logger   *zap.Logger
	clock    func() time.Time

	mu            sync.Mutex
	conversations []Conversation
	started       uint64
	completed     uint64
	fetchingMsgs  bool
}

// NewService creates a conversation unifier over the given gateway and roster.
func NewService(gw Gateway, contacts ContactSource, b *bus.Bus, logger *zap.Logger) *Service {
	return &Service{
		gw:       gw,
		contacts: contacts,
		bus:      b,
		logger:   logger,
		clock:    time.Now,
	}
}

// Conversations returns the current snapshot.
func (s *Service) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Loading reports whether a conversation refresh is in flight.
func (s *Service) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed < s.started
}

// FetchingMessages reports whether a message fetch is in flight.
func (s *Service) FetchingMessages() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchingMsgs
}

// Refresh rebuilds the conversation snapshot from the gateway. On any
// failure the snapshot becomes empty rather than stale-and-wrong; the error
// is returned for logging and the caller may simply refresh again.
func (s *Service) Refresh(ctx context.Context) ([]Conversation, error) {
	s.mu.Lock()
	s.started++
	gen := s.started
	s.mu.Unlock()

	allowed, raw, err := s.fetch(ctx)
	if err != nil {
		s.logger.Error("conversation refresh failed", zap.Error(err))
		s.install(gen, nil)
		return nil, err
	}

	unified := Unify(raw, allowed, s.clock())
	if s.install(gen, unified) {
		s.bus.Publish(bus.Event{
			Kind:    bus.KindConversations,
			Payload: map[string]int{"conversations": len(unified)},
		})
		s.logger.Info("conversations unified",
			zap.Int("raw_records", len(raw)),
			zap.Int("conversations", len(unified)))
	}
	return unified, nil
}

func (s *Service) fetch(ctx context.Context) ([]AllowedContact, []gateway.RawChat, error) {
	allowed, err := s.contacts.AllowedContacts(ctx)
	if err != nil {
		return nil, nil, err
	}
	raw, err := s.gw.FindChats(ctx)
	if err != nil {
		return nil, nil, err
	}
	return allowed, raw, nil
}

// install replaces the snapshot if gen is still the latest refresh.
// Returns whether the snapshot was applied.
func (s *Service) install(gen uint64, conversations []Conversation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen > s.completed {
		s.completed = gen
	}
	if gen < s.started {
		// A newer refresh is already in flight or done; drop this result.
		return false
	}
	s.conversations = conversations
	return true
}

// Messages fetches and normalizes the message history of one conversation.
// Gateway failures yield an empty list plus the error; nothing is cached
// across calls.
func (s *Service) Messages(ctx context.Context, chatID string) ([]Message, error) {
	s.setFetching(true)
	defer s.setFetching(false)

	raw, err := s.gw.FindMessages(ctx, chatID)
	if err != nil {
		s.logger.Error("message fetch failed", zap.String("chat_id", chatID), zap.Error(err))
		return []Message{}, err
	}

	nowMs := s.clock().UnixMilli()
	target := strings.ToLower(chatID)
	out := make([]Message, 0, len(raw))
	for i := range raw {
		msg := &raw[i]

		// Loose containment match: the gateway returns either the short lead
		// id or the full protocol JID depending on which one it stored.
		ref := strings.ToLower(msg.ChatRef())
		if !strings.Contains(ref, target) && !strings.Contains(target, ref) {
			continue
		}

		id := msg.ID
		if id == "" {
			// Synthesized ids are UI keys only, never compared to the gateway.
			id = uuid.NewString()
		}
		msgType := msg.Type
		if msgType == "" {
			msgType = "text"
		}

		out = append(out, Message{
			ID:         id,
			ChatID:     chatID,
			Content:    ExtractContent(firstContent(msg.Content, msg.Body)),
			FromMe:     msg.FromMe,
			SenderName: msg.SenderName,
			Timestamp:  normalizeTimestamp(msg.Timestamp, nowMs),
			Type:       msgType,
		})
	}
	return out, nil
}

func (s *Service) setFetching(v bool) {
	s.mu.Lock()
	s.fetchingMsgs = v
	s.mu.Unlock()
}

// normalizeTimestamp converts a gateway timestamp to milliseconds, treating
// values below secondsThreshold as whole seconds. Zero means the gateway
// sent nothing; the current time keeps such messages visible at the tail.
func normalizeTimestamp(ts, nowMs int64) int64 {
	if ts == 0 {
		return nowMs
	}
	if ts < secondsThreshold {
		return ts * 1000
	}
	return ts
}
