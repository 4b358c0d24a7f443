package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"taskdo/internal/auth"
	"taskdo/internal/reminder"
	"taskdo/internal/task"
)

type WorkspaceHandler struct {
	DB        *gorm.DB
	Reminders *reminder.Manager
	Log       zerolog.Logger
}

type workspaceReq struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type workspaceDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req workspaceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	ws := task.Workspace{UserID: uid, Name: req.Name, Color: "#667eea"}
	if req.Color != "" {
		ws.Color = req.Color
	}

	if err := h.DB.Create(&ws).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(workspaceDTO{
		ID: ws.ID, Name: ws.Name, Color: ws.Color, CreatedAt: ws.CreatedAt,
	})
}

func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var rows []task.Workspace
	if err := h.DB.Where("user_id = ?", uid).Order("created_at").Find(&rows).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]workspaceDTO, 0, len(rows))
	for _, ws := range rows {
		out = append(out, workspaceDTO{
			ID: ws.ID, Name: ws.Name, Color: ws.Color, CreatedAt: ws.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// Delete removes a workspace and its tasks, cancelling their reminders first.
func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var ws task.Workspace
	if err := h.DB.Where("id = ? AND user_id = ?", id, uid).First(&ws).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var tasks []task.Todo
	if err := h.DB.Where("workspace_id = ? AND user_id = ?", id, uid).Find(&tasks).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	for i := range tasks {
		h.Reminders.Cancel(r.Context(), &tasks[i])
	}

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ? AND user_id = ?", id, uid).Delete(&task.Todo{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ws).Error
	}); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
