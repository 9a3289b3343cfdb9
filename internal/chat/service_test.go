package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat-server/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	disabledLogger := zerolog.New(nil)
	return NewService(st, nil, &disabledLogger)
}

func TestRegisterAndConflict(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Register(ctx, "ann")
	if err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if p.Name != "ann" || p.LastActivity.IsZero() {
		t.Fatalf("unexpected participant: %+v", p)
	}

	if _, err := svc.Register(ctx, "ann"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterRejectsBadNames(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "everyone", "Everyone"} {
		if _, err := svc.Register(ctx, name); !errors.Is(err, ErrInvalid) {
			t.Errorf("register(%q): expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestRegisterAppendsJoinNotice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ann"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	msgs, err := svc.Messages(ctx, "ann", 0)
	if err != nil {
		t.Fatalf("messages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one join notice, got %d messages", len(msgs))
	}
	notice := msgs[0]
	if notice.From != "ann" || !notice.To.IsBroadcast() || notice.Kind != KindStatus || notice.Text != JoinNotice {
		t.Fatalf("unexpected join notice: %+v", notice)
	}
}

func TestHeartbeat(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Heartbeat(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown name, got %v", err)
	}

	if _, err := svc.Register(ctx, "ann"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	base := time.Now()
	svc.now = func() time.Time { return base.Add(time.Minute) }

	if err := svc.Heartbeat(ctx, "ann"); err != nil {
		t.Fatalf("heartbeat failed: %v", err)
	}

	participants, err := svc.Participants(ctx)
	if err != nil {
		t.Fatalf("participants failed: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("expected one participant, got %d", len(participants))
	}
	if !participants[0].LastActivity.Equal(base.Add(time.Minute)) {
		t.Fatalf("heartbeat did not refresh clock: %v", participants[0].LastActivity)
	}
}

func TestLeave(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Leave(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.Register(ctx, "ann"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.Leave(ctx, "ann"); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	participants, err := svc.Participants(ctx)
	if err != nil {
		t.Fatalf("participants failed: %v", err)
	}
	if len(participants) != 0 {
		t.Fatalf("expected empty registry, got %d", len(participants))
	}

	msgs, err := svc.Messages(ctx, "bob", 0)
	if err != nil {
		t.Fatalf("messages failed: %v", err)
	}
	// Join notice plus leave notice, both broadcast.
	if len(msgs) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(msgs))
	}
	if msgs[1].Text != LeaveNotice || msgs[1].Kind != KindStatus || msgs[1].From != "ann" {
		t.Fatalf("unexpected leave notice: %+v", msgs[1])
	}
}

func TestPostMessageValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ann"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tests := []struct {
		name    string
		from    string
		to      string
		text    string
		kind    MessageKind
		wantErr error
	}{
		{"unregistered sender", "bob", "everyone", "hi", KindMessage, ErrUnauthorized},
		{"empty text", "ann", "everyone", "  ", KindMessage, ErrInvalid},
		{"empty recipient", "ann", "", "hi", KindMessage, ErrInvalid},
		{"status kind is system-only", "ann", "everyone", "hi", KindStatus, ErrInvalid},
		{"unknown kind", "ann", "everyone", "hi", MessageKind("shout"), ErrInvalid},
		{"empty sender", "", "everyone", "hi", KindMessage, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PostMessage(ctx, tt.from, tt.to, tt.text, tt.kind)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	msg, err := svc.PostMessage(ctx, "ann", "everyone", "hello all", KindMessage)
	if err != nil {
		t.Fatalf("valid post failed: %v", err)
	}
	if msg.ID == "" || msg.Seq == 0 || !msg.To.IsBroadcast() {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestMessagesRequiresRequester(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.Messages(context.Background(), "", 0); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing requester, got %v", err)
	}
}

// The limit cuts the window from the full log before the visibility
// filter runs, per the documented pagination policy.
func TestMessagesWindowThenFilter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"ann", "bob", "carol"} {
		if _, err := svc.Register(ctx, name); err != nil {
			t.Fatalf("register %s failed: %v", name, err)
		}
	}

	// Drain the three join notices out of consideration by posting on
	// top of them: log becomes [notices x3, m1..m10].
	var seqs []int64
	for i := 1; i <= 10; i++ {
		to := "everyone"
		if i%2 == 0 {
			to = "carol"
		}
		kind := KindMessage
		if to == "carol" {
			kind = KindPrivate
		}
		msg, err := svc.PostMessage(ctx, "ann", to, fmt.Sprintf("m%d", i), kind)
		if err != nil {
			t.Fatalf("post m%d failed: %v", i, err)
		}
		seqs = append(seqs, msg.Seq)
	}

	// Window of 3 is [m8, m9, m10]; only m9 is broadcast, so bob sees
	// exactly one message.
	got, err := svc.Messages(ctx, "bob", 3)
	if err != nil {
		t.Fatalf("messages failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 visible message in window, got %d", len(got))
	}
	if got[0].Seq != seqs[8] || got[0].Text != "m9" {
		t.Fatalf("expected m9, got %+v", got[0])
	}

	// carol sees all three of the window: m8 and m10 are hers, m9 is
	// broadcast.
	gotCarol, err := svc.Messages(ctx, "carol", 3)
	if err != nil {
		t.Fatalf("messages failed: %v", err)
	}
	if len(gotCarol) != 3 {
		t.Fatalf("expected 3 visible messages for carol, got %d", len(gotCarol))
	}
}

func TestUpdateMessage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ann"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	posted, err := svc.PostMessage(ctx, "ann", "everyone", "first", KindMessage)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}

	if _, err := svc.UpdateMessage(ctx, posted.ID, "bob", "everyone", "hacked", KindMessage); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-author, got %v", err)
	}
	if _, err := svc.UpdateMessage(ctx, "no-such-id", "ann", "everyone", "x", KindMessage); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.UpdateMessage(ctx, posted.ID, "ann", "everyone", "", KindMessage); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty text, got %v", err)
	}

	later := posted.SentAt.Add(time.Minute)
	svc.now = func() time.Time { return later }

	updated, err := svc.UpdateMessage(ctx, posted.ID, "ann", "everyone", "edited", KindMessage)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ID != posted.ID || updated.Seq != posted.Seq {
		t.Fatalf("update must preserve id and position: %+v vs %+v", updated, posted)
	}
	if updated.Text != "edited" {
		t.Fatalf("expected edited text, got %q", updated.Text)
	}
	if !updated.SentAt.Equal(later) {
		t.Fatalf("expected refreshed sent time, got %v", updated.SentAt)
	}

	// Round-trip through the store.
	fetched, err := svc.GetMessage(ctx, posted.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fetched.Seq != posted.Seq || fetched.Text != "edited" {
		t.Fatalf("unexpected stored message: %+v", fetched)
	}
}

func TestDeleteMessage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ann"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	posted, err := svc.PostMessage(ctx, "ann", "everyone", "bye", KindMessage)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}

	if err := svc.DeleteMessage(ctx, posted.ID, "bob"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-author, got %v", err)
	}
	if err := svc.DeleteMessage(ctx, "no-such-id", "ann"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteMessage(ctx, posted.ID, "ann"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.GetMessage(ctx, posted.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
