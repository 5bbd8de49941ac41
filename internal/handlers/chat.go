package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"safety-insight/internal/contextutil"
	"safety-insight/internal/eval"
	"safety-insight/internal/service"
)

// EmptyQuestionReply is returned for blank questions without calling the service.
const EmptyQuestionReply = "Please enter a question."

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	UserMessage string `json:"user_message"`
}

// ChatResponse represents the HTTP response payload for chat.
// Evaluation is omitted unless the reply was evaluated.
type ChatResponse struct {
	BotReply   string       `json:"bot_reply"`
	Evaluation *eval.Result `json:"evaluation,omitempty"`
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "panic while handling chat request", "panic", rec)
			h.writeReply(w, http.StatusInternalServerError, ChatResponse{BotReply: fmt.Sprintf("Error: %v", rec)})
		}
	}()

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeReply(w, http.StatusMethodNotAllowed, ChatResponse{BotReply: "Error: method not allowed"})
		return
	}

	// A missing or malformed body counts as an empty question.
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.DebugContext(ctx, "undecodable chat body", "error", err)
	}

	question := strings.TrimSpace(req.UserMessage)
	if question == "" {
		h.writeReply(w, http.StatusOK, ChatResponse{BotReply: EmptyQuestionReply})
		return
	}

	svcResp, err := h.chatService.ProcessChat(ctx, service.ChatRequest{Message: question})
	if err != nil {
		logger.ErrorContext(ctx, "service error", "error", err)
		h.writeReply(w, http.StatusInternalServerError, ChatResponse{BotReply: "Error: " + err.Error()})
		return
	}

	resp := ChatResponse{BotReply: svcResp.Reply}
	if svcResp.Evaluated {
		result := svcResp.Evaluation
		if result == nil {
			result = eval.Result{}
		}
		resp.Evaluation = &result
	}

	h.writeReply(w, http.StatusOK, resp)
}

// writeReply writes a chat response with the given status code.
func (h *ChatHandler) writeReply(w http.ResponseWriter, statusCode int, resp ChatResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
