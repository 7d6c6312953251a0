// Package handlers holds the HTTP endpoints of the conversational
// booking API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sialweb/bookline/internal/dialog"
	"github.com/sialweb/bookline/pkg/logging"
)

// SessionStore loads and persists conversation sessions between
// messages.
type SessionStore interface {
	Load(ctx context.Context, conversationID string) (*dialog.Session, error)
	Save(ctx context.Context, conversationID string, sess dialog.Session) error
	Delete(ctx context.Context, conversationID string) error
}

// Engine processes one inbound message against a session.
type Engine interface {
	HandleMessage(ctx context.Context, sess dialog.Session, text string) (dialog.Reply, dialog.Session)
}

// MessageHandler is the single conversational endpoint: each POST
// carries one client message and returns the assistant's reply.
type MessageHandler struct {
	engine     Engine
	sessions   SessionStore
	businessID int64
	logger     *logging.Logger
}

// NewMessageHandler creates the handler. businessID is the tenant used
// when the request doesn't name one.
func NewMessageHandler(engine Engine, sessions SessionStore, businessID int64, logger *logging.Logger) *MessageHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &MessageHandler{
		engine:     engine,
		sessions:   sessions,
		businessID: businessID,
		logger:     logger,
	}
}

type messageRequest struct {
	ConversationID string `json:"conversation_id"`
	BusinessID     int64  `json:"business_id"`
	Text           string `json:"text"`
}

type messageResponse struct {
	ConversationID string       `json:"conversation_id"`
	Reply          dialog.Reply `json:"reply"`
	Completed      bool         `json:"completed"`
}

// Handle processes POST /v1/messages.
func (h *MessageHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	businessID := req.BusinessID
	if businessID <= 0 {
		businessID = h.businessID
	}
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	ctx := r.Context()
	sess, err := h.sessions.Load(ctx, conversationID)
	if err != nil {
		h.logger.Error("handlers: session load failed", "error", err, "conversation_id", conversationID)
		writeError(w, http.StatusInternalServerError, "could not load conversation")
		return
	}
	if sess == nil {
		fresh := dialog.NewSession(businessID)
		sess = &fresh
	}

	reply, updated := h.engine.HandleMessage(ctx, *sess, req.Text)

	if updated.Completed() {
		// Finished conversations don't need to outlive the reply.
		if err := h.sessions.Delete(ctx, conversationID); err != nil {
			h.logger.Warn("handlers: session delete failed", "error", err, "conversation_id", conversationID)
		}
	} else if err := h.sessions.Save(ctx, conversationID, updated); err != nil {
		h.logger.Error("handlers: session save failed", "error", err, "conversation_id", conversationID)
		writeError(w, http.StatusInternalServerError, "could not persist conversation")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		ConversationID: conversationID,
		Reply:          reply,
		Completed:      updated.Completed(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
