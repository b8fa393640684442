package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/taskvault/internal/apperror"
	"github.com/sakif/taskvault/internal/auth"
	"github.com/sakif/taskvault/internal/model"
	"github.com/sakif/taskvault/internal/service"
)

// TodoHandler manages CRUD for the caller's task items.
//
// Every route sits behind auth.RequireAuth, so the owner ID always comes
// from the resolved session in the request context. There is deliberately no
// way for a request body or URL to name a different owner.
type TodoHandler struct {
	todoService *service.TodoService
	logger      *slog.Logger
}

// NewTodoHandler creates a TodoHandler.
func NewTodoHandler(todoService *service.TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		todoService: todoService,
		logger:      logger,
	}
}

type createTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// nullableString distinguishes the three states a JSON field can be in:
// absent, null, and a string value. Plain *string loses the first
// distinction — UnmarshalJSON only runs when the key is present, so Set
// records exactly that.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

type updateTodoRequest struct {
	Title       *string        `json:"title"`
	Description nullableString `json:"description"`
	Completed   *bool          `json:"completed"`
}

type deleteTodoResponse struct {
	Success bool `json:"success"`
}

// HandleList returns the caller's todos, newest first.
//
// HTTP: GET /api/todos
func (h *TodoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	todos, err := h.todoService.List(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to list todos", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, todos)
}

// HandleCreate creates a todo for the caller.
//
// HTTP: POST /api/todos
// Body: {"title": "buy milk", "description": "2 litres"} — description optional.
func (h *TodoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid todo JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Message: "request body must be valid JSON"})
		return
	}

	todo, err := h.todoService.Create(r.Context(), user.ID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, todo)
}

// HandleUpdate merge-patches the caller's todo.
//
// HTTP: PATCH /api/todos/{id}
// Body: any subset of {"title", "description", "completed"}.
// An explicit "description": null clears the description; omitting the key
// leaves it untouched.
func (h *TodoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "todo id is required"})
		return
	}

	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid todo patch JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_json", Message: "request body must be valid JSON"})
		return
	}

	patch := model.TodoPatch{
		Title:          req.Title,
		Description:    req.Description.Value,
		DescriptionSet: req.Description.Set,
		Completed:      req.Completed,
	}

	todo, err := h.todoService.Update(r.Context(), id, user.ID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

// HandleDelete removes the caller's todo.
//
// HTTP: DELETE /api/todos/{id}
//
// Responds 200 {"success": true|false} — false means nothing matched, which
// covers both "already deleted" and "not yours" without distinguishing them.
func (h *TodoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "todo id is required"})
		return
	}

	deleted, err := h.todoService.Delete(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteTodoResponse{Success: deleted})
}
