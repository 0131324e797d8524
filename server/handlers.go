package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/crm"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
)

// ChatRequest is the body of POST /agent/chat.
type ChatRequest struct {
	Message string `json:"message"`
	// ConversationHistory is the prior conversation supplied by the client,
	// the turn does not use nor modify a session when it is set.
	ConversationHistory []llms.Message `json:"conversation_history,omitempty"`
	// SessionID is the conversation to continue, a new one is started when empty.
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the response of POST /agent/chat.
type ChatResponse struct {
	Success    bool               `json:"success"`
	Response   string             `json:"response"`
	SessionID  string             `json:"session_id,omitempty"`
	ToolUsed   *string            `json:"tool_used"`
	ToolParams map[string]any     `json:"tool_params"`
	ToolResult *string            `json:"tool_result"`
	ToolCalls  []tools.Result     `json:"tool_calls,omitempty"`
	States     []assistants.State `json:"states,omitempty"`
}

// DataResponse is the response of the direct tool endpoints.
type DataResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
}

// ErrorResponse is returned with a non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the response of the health endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// SessionResponse is the response of GET /agent/sessions/{id}.
type SessionResponse struct {
	SessionID string         `json:"session_id"`
	History   []llms.Message `json:"history"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, StatusResponse{Status: "AI Agent Service is running"})
}

func (s *Server) llmStatus(w http.ResponseWriter, r *http.Request) {
	if s.llmEndpoint == "" {
		writeJSON(w, r, http.StatusServiceUnavailable, StatusResponse{Status: "LLM service is not configured"})
		return
	}

	url := strings.TrimRight(s.llmEndpoint, "/") + "/health"
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, StatusResponse{Status: "LLM service is not available: " + err.Error()})
		return
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, StatusResponse{Status: "LLM service is not available: " + err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		writeJSON(w, r, http.StatusServiceUnavailable, StatusResponse{Status: "LLM service is not responding properly"})
		return
	}
	writeJSON(w, r, http.StatusOK, StatusResponse{Status: "LLM service is running"})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "Message is required"})
		return
	}
	for _, m := range req.ConversationHistory {
		if !m.Role.IsValid() || m.Role == llms.RoleSystem {
			writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid role in conversation_history: %q", m.Role)})
			return
		}
	}

	ctx := r.Context()
	var (
		turn      *assistants.Turn
		sessionID string
	)
	if len(req.ConversationHistory) > 0 {
		a, err := s.newAssistant()
		if err != nil {
			writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error: " + err.Error()})
			return
		}
		turn = a.Run(ctx, req.Message, req.ConversationHistory)
	} else {
		sess, err := s.sessions.get(req.SessionID)
		if err != nil {
			writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error: " + err.Error()})
			return
		}
		sess.lock.Lock()
		turn = sess.assistant.Chat(ctx, req.Message)
		s.sessions.touch(sess)
		sess.lock.Unlock()
		sessionID = sess.id
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "chat",
		"session_id", sessionID,
		"message", slices.StringUpto(req.Message, 64),
		"succeeded", turn.Succeeded(),
		"tools", len(turn.ToolCalls),
	)

	res := ChatResponse{
		Success:   turn.Succeeded(),
		Response:  turn.Answer,
		SessionID: sessionID,
		ToolCalls: turn.ToolCalls,
		States:    turn.States,
	}
	if call := turn.FirstToolCall(); call != nil {
		res.ToolUsed = &call.ToolName
		res.ToolParams = call.Parameters
		res.ToolResult = &call.Output
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) listTools(w http.ResponseWriter, r *http.Request) {
	type toolInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Parameters  any    `json:"parameters,omitempty"`
	}
	list := []toolInfo{}
	for _, t := range s.registry.Tools() {
		info := toolInfo{Name: t.Name(), Description: t.Description()}
		if p := t.Parameters(); p != nil {
			info.Parameters = p
		}
		list = append(list, info)
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.find(id)
	if !ok {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "session not found: " + id})
		return
	}
	writeJSON(w, r, http.StatusOK, SessionResponse{SessionID: id, History: sess.assistant.History()})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.remove(id) {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "session not found: " + id})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) opportunities(w http.ResponseWriter, r *http.Request) {
	s.callTool(w, r, crm.ToolGetOpportunities, r.URL.Query().Get("account_id"))
}

func (s *Server) supportCases(w http.ResponseWriter, r *http.Request) {
	s.callTool(w, r, crm.ToolGetSupportCases, r.URL.Query().Get("account_id"))
}

func (s *Server) accountInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("account_id")
	}
	s.callTool(w, r, crm.ToolGetAccountInfo, id)
}

func (s *Server) accountHealth(w http.ResponseWriter, r *http.Request) {
	s.callTool(w, r, crm.ToolAnalyzeAccountHealth, chi.URLParam(r, "id"))
}

// callTool runs the tool directly, without the model.
func (s *Server) callTool(w http.ResponseWriter, r *http.Request, name, accountID string) {
	params := map[string]any{}
	if accountID != "" {
		params["account_id"] = accountID
	}

	res := s.executor.Execute(r.Context(), name, params)
	switch {
	case res.Succeeded:
		writeJSON(w, r, http.StatusOK, DataResponse{Success: true, Data: res.Output})
	case tools.IsUnknownTool(res.Err):
		writeJSON(w, r, http.StatusServiceUnavailable, ErrorResponse{Error: res.Err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: res.Err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.ContextKV(r.Context(), xlog.ERROR,
			"status", "encode_response",
			"path", r.URL.Path,
			"err", err.Error(),
		)
	}
}
