package invalidation

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATS subjects for mutation events. Producers publish after their write
// transaction commits; delivery is at-least-once and unordered.
const (
	SubjectPostMutated     = "posts.mutated"
	SubjectCommentMutated  = "comments.mutated"
	SubjectReactionMutated = "reactions.mutated"
)

// Subscriber consumes mutation events from NATS and forwards them to a
// Handler. Malformed payloads are logged and dropped; redelivery of the
// same event is harmless because handlers are idempotent.
type Subscriber struct {
	conn    *nats.Conn
	handler Handler
	subs    []*nats.Subscription
}

// NewSubscriber creates a NATS subscriber that feeds the given handler.
func NewSubscriber(conn *nats.Conn, handler Handler) *Subscriber {
	return &Subscriber{
		conn:    conn,
		handler: handler,
	}
}

// Start subscribes to all mutation subjects. Call Close to drain.
func (s *Subscriber) Start() error {
	postSub, err := s.conn.Subscribe(SubjectPostMutated, s.onPostMutated)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectPostMutated, err)
	}
	s.subs = append(s.subs, postSub)

	commentSub, err := s.conn.Subscribe(SubjectCommentMutated, s.onCommentMutated)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectCommentMutated, err)
	}
	s.subs = append(s.subs, commentSub)

	reactionSub, err := s.conn.Subscribe(SubjectReactionMutated, s.onReactionMutated)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectReactionMutated, err)
	}
	s.subs = append(s.subs, reactionSub)

	slog.Info("subscribed to mutation events",
		"subjects", []string{SubjectPostMutated, SubjectCommentMutated, SubjectReactionMutated})
	return nil
}

// Close drains all subscriptions.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		if err := sub.Drain(); err != nil {
			slog.Warn("failed to drain subscription", "subject", sub.Subject, "error", err)
		}
	}
	s.subs = nil
}

func (s *Subscriber) onPostMutated(msg *nats.Msg) {
	var ev PostMutated
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		slog.Error("invalid post mutation event", "subject", msg.Subject, "error", err)
		return
	}
	if ev.PostID == "" {
		slog.Error("post mutation event missing post_id", "subject", msg.Subject)
		return
	}
	s.handler.HandlePostMutated(ev)
}

func (s *Subscriber) onCommentMutated(msg *nats.Msg) {
	var ev CommentMutated
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		slog.Error("invalid comment mutation event", "subject", msg.Subject, "error", err)
		return
	}
	if ev.PostID == "" {
		slog.Error("comment mutation event missing post_id", "subject", msg.Subject)
		return
	}
	s.handler.HandleCommentMutated(ev)
}

func (s *Subscriber) onReactionMutated(msg *nats.Msg) {
	var ev ReactionMutated
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		slog.Error("invalid reaction mutation event", "subject", msg.Subject, "error", err)
		return
	}
	if ev.PostID == "" {
		slog.Error("reaction mutation event missing post_id", "subject", msg.Subject)
		return
	}
	s.handler.HandleReactionMutated(ev)
}
