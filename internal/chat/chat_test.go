package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/hooks"
	"github.com/techtribe/techtribe/internal/llm"
	"github.com/techtribe/techtribe/internal/logging"
	"github.com/techtribe/techtribe/internal/store"
)

const fallbackText = "fallback"

func testLogger() *logging.Logger { return logging.New(nil, "silent") }

func testStore(t *testing.T) *store.ConversationStore {
	t.Helper()
	db, err := store.Open(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.NewConversationStore(db)
}

type responderFunc func(ctx context.Context, turn Turn) (string, error)

func (f responderFunc) Respond(ctx context.Context, turn Turn) (string, error) { return f(ctx, turn) }

func echoResponder() Responder {
	return responderFunc(func(_ context.Context, turn Turn) (string, error) {
		return "echo: " + turn.Message, nil
	})
}

func newTestService(t *testing.T, st Store, primary Responder, events hooks.Emitter) *Service {
	t.Helper()
	gw := NewGateway(st, NewFallbackResponder(fallbackText), testLogger(),
		WithPrimary(primary), WithTimeout(time.Second))
	return NewService(st, gw, events, testLogger(), Limits{Transcript: 200, Directory: 100})
}

func TestSendCreatesConversationAndTwoMessages(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	svc := newTestService(t, st, echoResponder(), nil)

	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "Salam", UserName: "Ali"})
	require.NoError(t, err)
	assert.Equal(t, "echo: Salam", res.Reply)
	assert.NotEmpty(t, res.ConversationID)
	assert.NotEmpty(t, res.MessageID)

	hist, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, hist.ConversationID)
	assert.Equal(t, res.ConversationID, *hist.ConversationID)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, domain.SenderVisitor, hist.Messages[0].Sender)
	assert.Equal(t, "Salam", hist.Messages[0].Content)
	assert.Equal(t, domain.SenderBot, hist.Messages[1].Sender)
	assert.Equal(t, res.MessageID, hist.Messages[1].ID)

	conv, err := st.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "Ali", conv.DisplayName)
	assert.True(t, conv.Active)
	assert.False(t, conv.UpdatedAt.Before(hist.Messages[1].CreatedAt))
}

func TestSendSameSessionReusesConversation(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	svc := newTestService(t, st, echoResponder(), nil)

	first, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "one", UserName: "Ali"})
	require.NoError(t, err)
	second, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "two", UserName: "Vali"})
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)

	conv, err := st.Get(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "Vali", conv.DisplayName)

	msgs, err := svc.Transcript(ctx, first.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, []string{"one", "echo: one", "two", "echo: two"}, contents(msgs))
}

// touchCountingStore records every Touch issued against the store.
type touchCountingStore struct {
	Store
	mu      sync.Mutex
	touches []string
}

func (s *touchCountingStore) Touch(ctx context.Context, id, displayName string, at time.Time) error {
	s.mu.Lock()
	s.touches = append(s.touches, displayName)
	s.mu.Unlock()
	return s.Store.Touch(ctx, id, displayName, at)
}

func TestSendTouchesConversationOncePerExchange(t *testing.T) {
	ctx := context.Background()
	st := &touchCountingStore{Store: testStore(t)}
	svc := newTestService(t, st, echoResponder(), nil)

	first, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "one", UserName: "Ali"})
	require.NoError(t, err)
	second, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "two", UserName: "Vali"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ali", "Vali"}, st.touches)

	conv, err := st.Get(ctx, second.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, conv.ID)
	assert.Equal(t, "Vali", conv.DisplayName)

	msgs, err := svc.Transcript(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.False(t, conv.UpdatedAt.Before(msgs[3].CreatedAt))
}

func TestSendDefaultsDisplayName(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	svc := newTestService(t, st, echoResponder(), nil)

	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "hi", UserName: "  "})
	require.NoError(t, err)

	conv, err := st.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDisplayName, conv.DisplayName)
}

func TestSendValidation(t *testing.T) {
	st := testStore(t)
	svc := newTestService(t, st, echoResponder(), nil)

	tests := []struct {
		name string
		req  SendRequest
	}{
		{"missing session", SendRequest{Message: "hi"}},
		{"blank session", SendRequest{SessionID: "  ", Message: "hi"}},
		{"missing message", SendRequest{SessionID: "s1"}},
		{"blank message", SendRequest{SessionID: "s1", Message: " \n\t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	summaries, err := svc.Conversations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestSendUsesFallbackWhenResponderFails(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	failing := responderFunc(func(context.Context, Turn) (string, error) {
		return "", errors.New("quota exceeded")
	})
	svc := newTestService(t, st, failing, nil)

	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "Salam"})
	require.NoError(t, err)
	assert.Equal(t, fallbackText, res.Reply)

	msgs, err := svc.Transcript(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.SenderBot, msgs[1].Sender)
	assert.Equal(t, fallbackText, msgs[1].Content)
}

func TestSendCompletesAfterCallerCancels(t *testing.T) {
	st := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelling := responderFunc(func(context.Context, Turn) (string, error) {
		cancel()
		return "still here", nil
	})
	svc := newTestService(t, st, cancelling, nil)

	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "still here", res.Reply)

	msgs, err := svc.Transcript(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestHistoryUnknownSession(t *testing.T) {
	svc := newTestService(t, testStore(t), echoResponder(), nil)

	hist, err := svc.History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, hist.ConversationID)
	assert.NotNil(t, hist.Messages)
	assert.Empty(t, hist.Messages)
}

func TestHistoryIsRepeatable(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, testStore(t), echoResponder(), nil)

	for _, m := range []string{"a", "b", "c"} {
		_, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: m})
		require.NoError(t, err)
	}

	first, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	second, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for i := 1; i < len(first.Messages); i++ {
		assert.False(t, first.Messages[i].CreatedAt.Before(first.Messages[i-1].CreatedAt))
	}
}

func TestTranscriptUnknownConversation(t *testing.T) {
	svc := newTestService(t, testStore(t), echoResponder(), nil)

	msgs, err := svc.Transcript(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestAdminReply(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	svc := newTestService(t, st, echoResponder(), nil)

	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "help"})
	require.NoError(t, err)

	msg, err := svc.AdminReply(ctx, "op-1", res.ConversationID, "Operator here")
	require.NoError(t, err)
	assert.Equal(t, domain.SenderAdmin, msg.Sender)
	assert.Equal(t, res.ConversationID, msg.ConversationID)

	conv, err := st.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	assert.False(t, conv.UpdatedAt.Before(msg.CreatedAt))

	msgs, err := svc.Transcript(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 3, "admin reply must not trigger an automated answer")
	assert.Equal(t, "Operator here", msgs[2].Content)

	hist, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, msgs, hist.Messages)
}

func TestAdminReplyUnknownConversation(t *testing.T) {
	ctx := context.Background()
	bus := hooks.NewManager(testLogger())
	var appended atomic.Int32
	bus.On(hooks.EventMessageAppended, "count", func(context.Context, hooks.Payload) error {
		appended.Add(1)
		return nil
	})
	svc := newTestService(t, testStore(t), echoResponder(), bus)

	_, err := svc.AdminReply(ctx, "op-1", "missing", "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, appended.Load())

	msgs, err := svc.Transcript(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAdminReplyRejectsBlank(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, testStore(t), echoResponder(), nil)

	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "hi"})
	require.NoError(t, err)

	_, err = svc.AdminReply(ctx, "op-1", res.ConversationID, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConcurrentAdminReplyAndVisitorSend(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	svc := newTestService(t, st, echoResponder(), nil)

	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "start"})
	require.NoError(t, err)

	const rounds = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "visitor"})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := svc.AdminReply(ctx, "op-1", res.ConversationID, "admin")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	msgs, err := svc.Transcript(ctx, res.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2+3*rounds)

	seen := make(map[string]bool, len(msgs))
	counts := map[domain.Sender]int{}
	for i, m := range msgs {
		assert.False(t, seen[m.ID], "message %s listed twice", m.ID)
		seen[m.ID] = true
		counts[m.Sender]++
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(msgs[i-1].CreatedAt))
		}
	}
	assert.Equal(t, 1+rounds, counts[domain.SenderVisitor])
	assert.Equal(t, 1+rounds, counts[domain.SenderBot])
	assert.Equal(t, rounds, counts[domain.SenderAdmin])
}

func TestConcurrentFirstContact(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, testStore(t), echoResponder(), nil)

	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Send(ctx, SendRequest{SessionID: "shared", Message: "hi"})
			assert.NoError(t, err)
			ids[i] = res.ConversationID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	summaries, err := svc.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 2*n, summaries[0].MessageCount)
}

// racingStore simulates another request creating the conversation between
// this request's lookup and its insert.
type racingStore struct {
	Store
	once   sync.Once
	winner domain.Conversation
}

func (r *racingStore) BySession(ctx context.Context, sessionID string) (domain.Conversation, error) {
	raced := false
	r.once.Do(func() { raced = true })
	if raced {
		if err := r.Store.Insert(ctx, r.winner); err != nil {
			return domain.Conversation{}, err
		}
		return domain.Conversation{}, domain.ErrNotFound
	}
	return r.Store.BySession(ctx, sessionID)
}

func TestResolveLosesCreationRace(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	rs := &racingStore{
		Store: testStore(t),
		winner: domain.Conversation{
			ID: "winner", SessionID: "s1", DisplayName: "First",
			Active: true, CreatedAt: now, UpdatedAt: now,
		},
	}
	bus := hooks.NewManager(testLogger())
	var started atomic.Int32
	bus.On(hooks.EventConversationStarted, "count", func(context.Context, hooks.Payload) error {
		started.Add(1)
		return nil
	})

	conv, created, err := NewResolver(rs, bus, testLogger()).Resolve(ctx, "s1", "Second")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "winner", conv.ID)
	assert.Equal(t, "Second", conv.DisplayName)
	assert.Zero(t, started.Load())

	stored, err := rs.Get(ctx, "winner")
	require.NoError(t, err)
	assert.Equal(t, "Second", stored.DisplayName)
}

func TestEventsPublished(t *testing.T) {
	ctx := context.Background()
	bus := hooks.NewManager(testLogger())

	var mu sync.Mutex
	var started []domain.Conversation
	var appended []domain.Message
	bus.On(hooks.EventConversationStarted, "test", func(_ context.Context, p hooks.Payload) error {
		mu.Lock()
		defer mu.Unlock()
		started = append(started, p.Data[hooks.KeyConversation].(domain.Conversation))
		return nil
	})
	bus.On(hooks.EventMessageAppended, "test", func(_ context.Context, p hooks.Payload) error {
		mu.Lock()
		defer mu.Unlock()
		appended = append(appended, p.Data[hooks.KeyMessage].(domain.Message))
		return nil
	})

	svc := newTestService(t, testStore(t), echoResponder(), bus)
	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "one"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, SendRequest{SessionID: "s1", Message: "two"})
	require.NoError(t, err)
	_, err = svc.AdminReply(ctx, "op-1", res.ConversationID, "three")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, started, 1)
	assert.Equal(t, res.ConversationID, started[0].ID)
	require.Len(t, appended, 5)
	assert.Equal(t, []string{"one", "echo: one", "two", "echo: two", "three"}, contents(appended))
}

func TestConversationsOrderedByActivity(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, testStore(t), echoResponder(), nil)

	a, err := svc.Send(ctx, SendRequest{SessionID: "a", Message: "first"})
	require.NoError(t, err)
	b, err := svc.Send(ctx, SendRequest{SessionID: "b", Message: "second"})
	require.NoError(t, err)

	list, err := svc.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ConversationID, list[0].ID)
	assert.Equal(t, "echo: second", list[0].LastMessage)
	assert.Equal(t, 2, list[0].MessageCount)

	_, err = svc.AdminReply(ctx, "op-1", a.ConversationID, "operator")
	require.NoError(t, err)

	list, err = svc.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ConversationID, list[0].ID)
	assert.Equal(t, "operator", list[0].LastMessage)
	assert.Equal(t, 3, list[0].MessageCount)
}

func TestDirectoryIsReadOnly(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	svc := newTestService(t, st, echoResponder(), nil)

	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "hi"})
	require.NoError(t, err)
	before, err := st.Get(ctx, res.ConversationID)
	require.NoError(t, err)

	_, err = svc.Conversations(ctx)
	require.NoError(t, err)

	after, err := st.Get(ctx, res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLedgerAppendValidation(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	ledger := NewLedger(st, nil, testLogger())
	conv, _, err := NewResolver(st, nil, testLogger()).Resolve(ctx, "s1", "")
	require.NoError(t, err)

	_, err = ledger.Append(ctx, conv.ID, domain.Sender("system"), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = ledger.Append(ctx, conv.ID, domain.SenderVisitor, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = ledger.Append(ctx, conv.ID, domain.SenderAdmin, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = ledger.Append(ctx, "missing", domain.SenderVisitor, "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	msg, err := ledger.Append(ctx, conv.ID, domain.SenderBot, "")
	require.NoError(t, err)
	assert.Equal(t, domain.SenderBot, msg.Sender)
}

func TestServiceWithLLMResponder(t *testing.T) {
	ctx := context.Background()
	mock := &llm.MockClient{ProviderName: "mock"}
	svc := newTestService(t, testStore(t), NewLLMResponder(mock, NewPersona("TechTribe", "", "", 0, nil)), nil)

	res, err := svc.Send(ctx, SendRequest{SessionID: "s1", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "mock response", res.Reply)
}

func contents(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}
