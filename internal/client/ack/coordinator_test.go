package ack

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msavelyev/notiboard/internal/client/api"
	"github.com/msavelyev/notiboard/internal/client/store"
	"github.com/msavelyev/notiboard/internal/common"
	"github.com/msavelyev/notiboard/internal/events"
	"github.com/msavelyev/notiboard/internal/logging"
)

// fakeClient implements api.Client for coordinator tests.
type fakeClient struct {
	mu sync.Mutex

	SendAckRequestRet   string
	SendAckRequestErr   error
	SendAckRequestCalls int
	LastAckTo           []string
	LastAckMessage      string

	SendAckResponseErr   error
	SendAckResponseCalls int
	LastResponseID       string
}

func (f *fakeClient) Login(ctx context.Context, username string) error { return nil }
func (f *fakeClient) Logout(ctx context.Context) error                 { return nil }
func (f *fakeClient) ListUsers(ctx context.Context) ([]string, error)  { return nil, nil }
func (f *fakeClient) Notify(ctx context.Context, from, target, message string) error {
	return nil
}

func (f *fakeClient) SendAckRequest(ctx context.Context, to []string, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SendAckRequestCalls++
	f.LastAckTo = append([]string(nil), to...)
	f.LastAckMessage = message
	return f.SendAckRequestRet, f.SendAckRequestErr
}

func (f *fakeClient) SendAckResponse(ctx context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SendAckResponseCalls++
	f.LastResponseID = requestID
	return f.SendAckResponseErr
}

func (f *fakeClient) OpenStream(ctx context.Context) (api.Stream, error) {
	return nil, errors.New("not implemented")
}

func newCoordinator(t *testing.T, fc *fakeClient) (*Coordinator, *store.Store) {
	t.Helper()
	st := store.New()
	st.SetIdentity("alice")
	return New(fc, st, logging.NewJSON(io.Discard)), st
}

// ---- sender role ----

func TestSendRequest_ValidationRejectsLocally(t *testing.T) {
	tests := []struct {
		name    string
		to      []string
		message string
		wantErr error
	}{
		{"no recipients", nil, "ready?", common.ErrNoRecipients},
		{"empty message", []string{"bob"}, "", common.ErrEmptyMessage},
		{"whitespace message", []string{"bob"}, "   ", common.ErrEmptyMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeClient{}
			c, st := newCoordinator(t, fc)

			_, err := c.SendRequest(context.Background(), tc.to, tc.message)
			require.ErrorIs(t, err, tc.wantErr)

			// Rejected before any network round trip or state write.
			assert.Zero(t, fc.SendAckRequestCalls)
			assert.Empty(t, st.Snapshot().AckRequests)
		})
	}
}

func TestSendRequest_RequiresBoundIdentity(t *testing.T) {
	fc := &fakeClient{}
	st := store.New()
	c := New(fc, st, logging.NewJSON(io.Discard))

	_, err := c.SendRequest(context.Background(), []string{"bob"}, "ready?")
	require.ErrorIs(t, err, common.ErrNotLoggedIn)
	assert.Zero(t, fc.SendAckRequestCalls)
}

func TestSendRequest_RecordsUnderServerAssignedID(t *testing.T) {
	fc := &fakeClient{SendAckRequestRet: "r1"}
	c, st := newCoordinator(t, fc)

	requestID, err := c.SendRequest(context.Background(), []string{"bob", "carol"}, "ready?")
	require.NoError(t, err)
	assert.Equal(t, "r1", requestID)
	assert.Equal(t, []string{"bob", "carol"}, fc.LastAckTo)

	req, ok := st.AckRequest("r1")
	require.True(t, ok)
	assert.Equal(t, "alice", req.FromUsername)
	assert.Empty(t, req.AcknowledgedBy)

	state, ok := c.RequestState("r1")
	require.True(t, ok)
	assert.Equal(t, StateSent, state)
}

func TestSendRequest_DuplicateTargetsCollapse(t *testing.T) {
	fc := &fakeClient{SendAckRequestRet: "r1"}
	c, st := newCoordinator(t, fc)

	_, err := c.SendRequest(context.Background(), []string{"bob", "bob", "carol"}, "ready?")
	require.NoError(t, err)

	// The deduplicated list goes over the wire and into the store.
	assert.Equal(t, []string{"bob", "carol"}, fc.LastAckTo)
	req, _ := st.AckRequest("r1")
	assert.Equal(t, []string{"bob", "carol"}, req.ToUsernames)

	st.RecordAckResponse("r1", "bob")
	st.RecordAckResponse("r1", "carol")
	state, _ := c.RequestState("r1")
	assert.Equal(t, StateComplete, state)
}

func TestSendRequest_CallFailureRecordsNothing(t *testing.T) {
	fc := &fakeClient{SendAckRequestErr: errors.New("boom")}
	c, st := newCoordinator(t, fc)

	_, err := c.SendRequest(context.Background(), []string{"bob"}, "ready?")
	require.Error(t, err)
	assert.Empty(t, st.Snapshot().AckRequests)
}

func TestRequestState_Transitions(t *testing.T) {
	fc := &fakeClient{SendAckRequestRet: "r1"}
	c, st := newCoordinator(t, fc)

	_, err := c.SendRequest(context.Background(), []string{"bob", "carol"}, "ready?")
	require.NoError(t, err)

	st.RecordAckResponse("r1", "bob")
	state, _ := c.RequestState("r1")
	assert.Equal(t, StatePartiallyAcked, state)

	// Duplicate delivery changes nothing.
	st.RecordAckResponse("r1", "bob")
	state, _ = c.RequestState("r1")
	assert.Equal(t, StatePartiallyAcked, state)

	st.RecordAckResponse("r1", "carol")
	state, _ = c.RequestState("r1")
	assert.Equal(t, StateComplete, state)

	// Completion does not remove the record.
	_, ok := st.AckRequest("r1")
	assert.True(t, ok)

	_, ok = c.RequestState("missing")
	assert.False(t, ok)
}

// ---- receiver role ----

func TestOnIncomingRequest_SecondRequestOverwritesFirst(t *testing.T) {
	c, _ := newCoordinator(t, &fakeClient{})

	c.OnIncomingRequest(events.AckRequest{ID: "r2", FromUsername: "dave", Message: "ping"})
	c.OnIncomingRequest(events.AckRequest{ID: "r3", FromUsername: "erin", Message: "pong"})

	pending, ok := c.Pending()
	require.True(t, ok)
	assert.Equal(t, "r3", pending.ID)
	assert.Equal(t, "erin", pending.FromUsername)
}

func TestAcknowledge_NoPending(t *testing.T) {
	c, _ := newCoordinator(t, &fakeClient{})
	err := c.Acknowledge(context.Background())
	require.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestAcknowledge_FailureKeepsPending(t *testing.T) {
	fc := &fakeClient{SendAckResponseErr: errors.New("boom")}
	c, _ := newCoordinator(t, fc)

	c.OnIncomingRequest(events.AckRequest{ID: "r2", FromUsername: "dave", Message: "ping"})

	err := c.Acknowledge(context.Background())
	require.Error(t, err)

	pending, ok := c.Pending()
	require.True(t, ok)
	assert.Equal(t, "r2", pending.ID)
	assert.False(t, pending.Acknowledged)
}

func TestAcknowledge_SuccessDismissesAfterDelay(t *testing.T) {
	fc := &fakeClient{}
	c, _ := newCoordinator(t, fc)
	c.SetDismissDelay(10 * time.Millisecond)

	c.OnIncomingRequest(events.AckRequest{ID: "r2", FromUsername: "dave", Message: "ping"})

	require.NoError(t, c.Acknowledge(context.Background()))
	assert.Equal(t, "r2", fc.LastResponseID)

	// Still visible immediately after, marked acknowledged.
	pending, ok := c.Pending()
	require.True(t, ok)
	assert.True(t, pending.Acknowledged)

	require.Eventually(t, func() bool {
		_, ok := c.Pending()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestDismiss_DropsPendingWithoutResponding(t *testing.T) {
	fc := &fakeClient{}
	c, _ := newCoordinator(t, fc)

	c.OnIncomingRequest(events.AckRequest{ID: "r2", FromUsername: "dave", Message: "ping"})
	c.Dismiss()

	_, ok := c.Pending()
	assert.False(t, ok)
	assert.Zero(t, fc.SendAckResponseCalls)
}
