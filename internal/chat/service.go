package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/store"
)

// Status notice phrases appended on join and on leave/eviction.
const (
	JoinNotice  = "entra na sala..."
	LeaveNotice = "sai da sala..."
)

// Publisher receives every message accepted into the log, for live
// delivery to connected observers. A nil Publisher is valid.
type Publisher interface {
	Publish(msg Message)
}

// Service implements the chat operations on top of a store. All
// methods are safe for concurrent use; uniqueness and eviction races
// are decided by single store operations, never by read-then-write
// sequences in here.
type Service struct {
	store store.Store
	feed  Publisher
	log   *zerolog.Logger
	now   func() time.Time
}

// NewService creates a chat service. feed may be nil.
func NewService(st store.Store, feed Publisher, logger *zerolog.Logger) *Service {
	return &Service{
		store: st,
		feed:  feed,
		log:   logger,
		now:   time.Now,
	}
}

// Register inserts a new participant and announces it with a status
// notice. Returns ErrInvalid for an empty or reserved name and
// ErrConflict when the name is already registered.
func (s *Service) Register(ctx context.Context, name string) (*Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if IsReservedName(name) {
		return nil, fmt.Errorf("%w: name %q is reserved", ErrInvalid, name)
	}

	now := s.now()
	if err := s.store.AddParticipant(ctx, name, now); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return nil, fmt.Errorf("register %q: %w", name, ErrConflict)
		}
		return nil, s.storeFault("register participant", err)
	}

	// The join notice is best-effort: the registration stands even if
	// the announcement cannot be written.
	if err := s.appendNotice(ctx, name, JoinNotice, now); err != nil {
		s.log.Error().Err(err).Str("participant", name).Msg("failed to append join notice")
	}

	return &Participant{Name: name, LastActivity: now}, nil
}

// Heartbeat refreshes a participant's activity clock. Returns
// ErrNotFound when the name is not registered; the caller is expected
// to re-register.
func (s *Service) Heartbeat(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("heartbeat: %w", ErrNotFound)
	}
	touched, err := s.store.TouchParticipant(ctx, name, s.now())
	if err != nil {
		return s.storeFault("heartbeat", err)
	}
	if !touched {
		return fmt.Errorf("heartbeat %q: %w", name, ErrNotFound)
	}
	return nil
}

// Leave removes a participant explicitly and announces the departure.
func (s *Service) Leave(ctx context.Context, name string) error {
	removed, err := s.store.RemoveParticipant(ctx, name)
	if err != nil {
		return s.storeFault("leave", err)
	}
	if !removed {
		return fmt.Errorf("leave %q: %w", name, ErrNotFound)
	}
	if err := s.appendNotice(ctx, name, LeaveNotice, s.now()); err != nil {
		s.log.Error().Err(err).Str("participant", name).Msg("failed to append leave notice")
	}
	return nil
}

// Participants returns a snapshot of everyone currently registered.
func (s *Service) Participants(ctx context.Context) ([]Participant, error) {
	records, err := s.store.ListParticipants(ctx)
	if err != nil {
		return nil, s.storeFault("list participants", err)
	}
	participants := make([]Participant, 0, len(records))
	for _, r := range records {
		participants = append(participants, Participant{
			Name:         r.Name,
			LastActivity: r.LastActivity,
		})
	}
	return participants, nil
}

// PostMessage validates and appends a participant message. Kind must
// be message or private-message; status notices are system-only.
func (s *Service) PostMessage(ctx context.Context, from, to, text string, kind MessageKind) (*Message, error) {
	if from == "" {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalid)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalid)
	}
	if to == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalid)
	}
	if !PostableKind(kind) {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalid, kind)
	}

	active, err := s.store.ParticipantExists(ctx, from)
	if err != nil {
		return nil, s.storeFault("check sender", err)
	}
	if !active {
		return nil, fmt.Errorf("post from %q: %w", from, ErrUnauthorized)
	}

	msg := Message{
		ID:     uuid.NewString(),
		From:   from,
		To:     ParseRecipient(to),
		Text:   text,
		Kind:   kind,
		SentAt: s.now(),
	}
	record := toRecord(msg)
	if err := s.store.AppendMessage(ctx, record); err != nil {
		return nil, s.storeFault("append message", err)
	}
	msg.Seq = record.Seq

	s.publish(msg)
	return &msg, nil
}

// Messages returns the projection of the log visible to requester.
// With limit > 0, the last limit messages of the full log are windowed
// first and filtered second.
func (s *Service) Messages(ctx context.Context, requester string, limit int) ([]Message, error) {
	if requester == "" {
		return nil, fmt.Errorf("%w: requester identity is required", ErrInvalid)
	}

	var records []*store.Message
	var err error
	if limit > 0 {
		records, err = s.store.ListLastMessages(ctx, limit)
	} else {
		records, err = s.store.ListMessages(ctx)
	}
	if err != nil {
		return nil, s.storeFault("list messages", err)
	}

	msgs := make([]Message, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, fromRecord(r))
	}
	return VisibleTo(msgs, requester), nil
}

// GetMessage retrieves a single message by ID.
func (s *Service) GetMessage(ctx context.Context, id string) (*Message, error) {
	record, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, s.storeFault("get message", err)
	}
	if record == nil {
		return nil, fmt.Errorf("message %q: %w", id, ErrNotFound)
	}
	msg := fromRecord(record)
	return &msg, nil
}

// UpdateMessage replaces the content of a message. Only the original
// author may update; position and ID are preserved, the sent time is
// refreshed.
func (s *Service) UpdateMessage(ctx context.Context, id, requester, to, text string, kind MessageKind) (*Message, error) {
	if requester == "" {
		return nil, fmt.Errorf("%w: requester identity is required", ErrInvalid)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalid)
	}
	if to == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalid)
	}
	if !PostableKind(kind) {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalid, kind)
	}

	current, err := s.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.From != requester {
		return nil, fmt.Errorf("update message %q: %w", id, ErrForbidden)
	}

	updated := *current
	updated.To = ParseRecipient(to)
	updated.Text = text
	updated.Kind = kind
	updated.SentAt = s.now()

	ok, err := s.store.UpdateMessage(ctx, toRecord(updated))
	if err != nil {
		return nil, s.storeFault("update message", err)
	}
	if !ok {
		// Deleted between the ownership check and the write.
		return nil, fmt.Errorf("message %q: %w", id, ErrNotFound)
	}
	return &updated, nil
}

// DeleteMessage removes a message. Only the original author may delete.
func (s *Service) DeleteMessage(ctx context.Context, id, requester string) error {
	if requester == "" {
		return fmt.Errorf("%w: requester identity is required", ErrInvalid)
	}

	current, err := s.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if current.From != requester {
		return fmt.Errorf("delete message %q: %w", id, ErrForbidden)
	}

	ok, err := s.store.DeleteMessage(ctx, id)
	if err != nil {
		return s.storeFault("delete message", err)
	}
	if !ok {
		return fmt.Errorf("message %q: %w", id, ErrNotFound)
	}
	return nil
}

// AppendDeparture writes the eviction notice for a swept participant
// and publishes it to the live feed.
func (s *Service) AppendDeparture(ctx context.Context, name string) error {
	return s.appendNotice(ctx, name, LeaveNotice, s.now())
}

func (s *Service) appendNotice(ctx context.Context, from, text string, now time.Time) error {
	msg := Message{
		ID:     uuid.NewString(),
		From:   from,
		To:     Everyone(),
		Text:   text,
		Kind:   KindStatus,
		SentAt: now,
	}
	record := toRecord(msg)
	if err := s.store.AppendMessage(ctx, record); err != nil {
		return err
	}
	msg.Seq = record.Seq
	s.publish(msg)
	return nil
}

func (s *Service) publish(msg Message) {
	if s.feed != nil {
		s.feed.Publish(msg)
	}
}

// storeFault logs the full fault detail and returns the generic store
// error so internals never leak to callers.
func (s *Service) storeFault(op string, err error) error {
	s.log.Error().Err(err).Str("op", op).Msg("store fault")
	return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
}

func toRecord(m Message) *store.Message {
	return &store.Message{
		Seq:       m.Seq,
		ID:        m.ID,
		Sender:    m.From,
		Recipient: m.To.Name(),
		Broadcast: m.To.IsBroadcast(),
		Body:      m.Text,
		Kind:      string(m.Kind),
		SentAt:    m.SentAt,
	}
}

func fromRecord(r *store.Message) Message {
	to := Direct(r.Recipient)
	if r.Broadcast {
		to = Everyone()
	}
	return Message{
		Seq:    r.Seq,
		ID:     r.ID,
		From:   r.Sender,
		To:     to,
		Text:   r.Body,
		Kind:   MessageKind(r.Kind),
		SentAt: r.SentAt,
	}
}
