package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sialweb/bookline/internal/dialog"
)

type fakeSessions struct {
	data    map[string]dialog.Session
	loadErr error
	saveErr error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: map[string]dialog.Session{}}
}

func (f *fakeSessions) Load(_ context.Context, id string) (*dialog.Session, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	sess, ok := f.data[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (f *fakeSessions) Save(_ context.Context, id string, sess dialog.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[id] = sess
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	delete(f.data, id)
	return nil
}

type fakeEngine struct {
	gotSession dialog.Session
	gotText    string
	reply      dialog.Reply
	next       dialog.Session
}

func (f *fakeEngine) HandleMessage(_ context.Context, sess dialog.Session, text string) (dialog.Reply, dialog.Session) {
	f.gotSession = sess
	f.gotText = text
	return f.reply, f.next
}

func post(t *testing.T, h *MessageHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) messageResponse {
	t.Helper()
	var resp messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestNewConversationGetsGeneratedID(t *testing.T) {
	engine := &fakeEngine{
		reply: dialog.Reply{Text: "welcome"},
		next:  dialog.Session{State: dialog.StateAwaitingInitialChoice, BusinessID: 1},
	}
	sessions := newFakeSessions()
	h := NewMessageHandler(engine, sessions, 1, nil)

	rec := post(t, h, `{"text":"hola"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "welcome", resp.Reply.Text)
	assert.False(t, resp.Completed)

	assert.Equal(t, "hola", engine.gotText)
	assert.Equal(t, int64(1), engine.gotSession.BusinessID, "default business applied")
	assert.Contains(t, sessions.data, resp.ConversationID)
}

func TestExistingConversationLoadsSession(t *testing.T) {
	engine := &fakeEngine{
		reply: dialog.Reply{Text: "and your phone?"},
		next:  dialog.Session{State: dialog.StateAskingPhone, BusinessID: 1, CustomerName: "Maria"},
	}
	sessions := newFakeSessions()
	sessions.data["conv-1"] = dialog.Session{State: dialog.StateAskingName, BusinessID: 1}
	h := NewMessageHandler(engine, sessions, 1, nil)

	rec := post(t, h, `{"conversation_id":"conv-1","text":"Maria"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, dialog.StateAskingName, engine.gotSession.State)
	assert.Equal(t, dialog.StateAskingPhone, sessions.data["conv-1"].State)
}

func TestCompletedConversationIsDeleted(t *testing.T) {
	engine := &fakeEngine{
		reply: dialog.Reply{Text: "all set"},
		next:  dialog.NewSession(1),
	}
	sessions := newFakeSessions()
	sessions.data["conv-1"] = dialog.Session{State: dialog.StatePreConfirmation, BusinessID: 1}
	h := NewMessageHandler(engine, sessions, 1, nil)

	rec := post(t, h, `{"conversation_id":"conv-1","text":"confirm"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Completed)
	assert.NotContains(t, sessions.data, "conv-1")
}

func TestRequestBusinessOverridesDefault(t *testing.T) {
	engine := &fakeEngine{reply: dialog.Reply{Text: "hi"}, next: dialog.Session{State: dialog.StateAskingName, BusinessID: 7}}
	h := NewMessageHandler(engine, newFakeSessions(), 1, nil)

	rec := post(t, h, `{"business_id":7,"text":"hola"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), engine.gotSession.BusinessID)
}

func TestMissingTextRejected(t *testing.T) {
	h := NewMessageHandler(&fakeEngine{}, newFakeSessions(), 1, nil)

	rec := post(t, h, `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "text is required")
}

func TestMalformedBodyRejected(t *testing.T) {
	h := NewMessageHandler(&fakeEngine{}, newFakeSessions(), 1, nil)

	rec := post(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLoadFailure(t *testing.T) {
	sessions := newFakeSessions()
	sessions.loadErr = errors.New("redis down")
	h := NewMessageHandler(&fakeEngine{}, sessions, 1, nil)

	rec := post(t, h, `{"text":"hola"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSessionSaveFailure(t *testing.T) {
	engine := &fakeEngine{reply: dialog.Reply{Text: "hi"}, next: dialog.Session{State: dialog.StateAskingName, BusinessID: 1}}
	sessions := newFakeSessions()
	sessions.saveErr = errors.New("redis down")
	h := NewMessageHandler(engine, sessions, 1, nil)

	rec := post(t, h, `{"text":"hola"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
