package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msavelyev/notiboard/internal/client/ack"
	"github.com/msavelyev/notiboard/internal/client/api"
	"github.com/msavelyev/notiboard/internal/client/session"
	"github.com/msavelyev/notiboard/internal/client/store"
	"github.com/msavelyev/notiboard/internal/client/stream"
	"github.com/msavelyev/notiboard/internal/logging"
)

type fakeClient struct {
	mu sync.Mutex

	NotifyErr   error
	LastFrom    string
	LastTarget  string
	LastMessage string

	SendAckRequestRet string
	LastAckTo         []string
}

func (f *fakeClient) Login(ctx context.Context, username string) error { return nil }
func (f *fakeClient) Logout(ctx context.Context) error                 { return nil }
func (f *fakeClient) ListUsers(ctx context.Context) ([]string, error)  { return nil, nil }

func (f *fakeClient) Notify(ctx context.Context, from, target, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastFrom, f.LastTarget, f.LastMessage = from, target, message
	return f.NotifyErr
}

func (f *fakeClient) SendAckRequest(ctx context.Context, to []string, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastAckTo = append([]string(nil), to...)
	return f.SendAckRequestRet, nil
}

func (f *fakeClient) SendAckResponse(ctx context.Context, requestID string) error { return nil }

func (f *fakeClient) OpenStream(ctx context.Context) (api.Stream, error) {
	return nil, errors.New("no stream in tests")
}

// newTestApp wires an App over a fake client and captures printlnFn output.
func newTestApp(t *testing.T, fc *fakeClient) (*App, *[]string) {
	t.Helper()

	var lines []string
	origPrint := printlnFn
	printlnFn = func(args ...any) (int, error) {
		lines = append(lines, fmt.Sprintln(args...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })

	logger := logging.NewJSON(io.Discard)
	st := store.New()
	coordinator := ack.New(fc, st, logger)
	router := stream.New(st, &announcingAckHandler{coordinator: coordinator}, logger)
	sess := session.NewManager(fc, st, router, logger)
	t.Cleanup(sess.Close)

	return &App{
		api:         fc,
		store:       st,
		coordinator: coordinator,
		session:     sess,
		reader:      bufio.NewReader(strings.NewReader("")),
	}, &lines
}

func output(lines *[]string) string {
	return strings.Join(*lines, "")
}

func TestUsers_PrintsRoster(t *testing.T) {
	a, lines := newTestApp(t, &fakeClient{})
	a.store.SetIdentity("alice")
	a.store.SetRoster([]string{"bob", "carol"})

	require.NoError(t, a.Users(context.Background()))

	out := output(lines)
	assert.Contains(t, out, "Connected users (2)")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "carol")
}

func TestUsers_EmptyRoster(t *testing.T) {
	a, lines := newTestApp(t, &fakeClient{})

	require.NoError(t, a.Users(context.Background()))
	assert.Contains(t, output(lines), "No other users connected")
}

func TestSend_PassesIdentityTargetAndJoinedMessage(t *testing.T) {
	fc := &fakeClient{}
	a, _ := newTestApp(t, fc)
	a.store.SetIdentity("alice")

	require.NoError(t, a.Send(context.Background(), []string{"bob", "hello", "there"}))

	assert.Equal(t, "alice", fc.LastFrom)
	assert.Equal(t, "bob", fc.LastTarget)
	assert.Equal(t, "hello there", fc.LastMessage)
}

func TestSend_UsageOnMissingArgs(t *testing.T) {
	fc := &fakeClient{}
	a, lines := newTestApp(t, fc)

	require.NoError(t, a.Send(context.Background(), []string{"bob"}))

	assert.Contains(t, output(lines), "Usage: send")
	assert.Empty(t, fc.LastTarget)
}

func TestSend_FailurePrintsError(t *testing.T) {
	fc := &fakeClient{NotifyErr: errors.New("boom")}
	a, lines := newTestApp(t, fc)

	err := a.Send(context.Background(), []string{"bob", "hi"})
	require.Error(t, err)
	assert.Contains(t, output(lines), "Send failed")
}

func TestWaitFor_SplitsRecipientList(t *testing.T) {
	fc := &fakeClient{SendAckRequestRet: "r1"}
	a, lines := newTestApp(t, fc)
	a.store.SetIdentity("alice")

	require.NoError(t, a.WaitFor(context.Background(), []string{"bob, carol ,", "are", "you", "ready"}))

	assert.Equal(t, []string{"bob", "carol"}, fc.LastAckTo)
	assert.Contains(t, output(lines), "r1")
}

func TestAck_NothingPending(t *testing.T) {
	a, lines := newTestApp(t, &fakeClient{})

	require.NoError(t, a.Ack(context.Background()))
	assert.Contains(t, output(lines), "Nothing to acknowledge")
}

func TestMessages_PrintsFeedAndClear(t *testing.T) {
	a, lines := newTestApp(t, &fakeClient{})
	a.store.AddNotification(store.Notification{From: "bob", Message: "hi"})

	require.NoError(t, a.Messages(context.Background()))
	assert.Contains(t, output(lines), "bob: hi")

	require.NoError(t, a.ClearMessages(context.Background()))
	require.NoError(t, a.Messages(context.Background()))
	assert.Contains(t, output(lines), "No messages yet")
}

func TestRequests_MarksAcknowledgedTargets(t *testing.T) {
	fc := &fakeClient{SendAckRequestRet: "r1"}
	a, lines := newTestApp(t, fc)
	a.store.SetIdentity("alice")

	_, err := a.coordinator.SendRequest(context.Background(), []string{"bob", "carol"}, "ready?")
	require.NoError(t, err)
	a.store.RecordAckResponse("r1", "bob")

	require.NoError(t, a.Requests(context.Background()))

	out := output(lines)
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "[done] bob")
	assert.Contains(t, out, "[waiting] carol")
}
