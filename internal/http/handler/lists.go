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

var listTypes = map[string]bool{
	"home": true, "completed": true, "today": true,
	"personal": true, "work": true, "custom": true,
}

type ListHandler struct {
	DB        *gorm.DB
	Reminders *reminder.Manager
	Log       zerolog.Logger
}

type listReq struct {
	Name     string `json:"name"`
	ListType string `json:"list_type"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
}

type listDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	ListType  string    `json:"list_type"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

func toListDTO(l *task.List) listDTO {
	return listDTO{
		ID:        l.ID,
		Name:      l.Name,
		ListType:  l.ListType,
		Icon:      l.Icon,
		Color:     l.Color,
		CreatedAt: l.CreatedAt,
	}
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req listReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if req.ListType == "" {
		req.ListType = "custom"
	}
	if !listTypes[req.ListType] {
		http.Error(w, "invalid list_type", http.StatusBadRequest)
		return
	}

	l := task.List{
		UserID:   uid,
		Name:     req.Name,
		ListType: req.ListType,
		Icon:     req.Icon,
		Color:    "#667eea",
	}
	if req.Color != "" {
		l.Color = req.Color
	}

	if err := h.DB.Create(&l).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toListDTO(&l))
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var rows []task.List
	if err := h.DB.Where("user_id = ?", uid).
		Order("list_type, created_at").Find(&rows).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]listDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toListDTO(&rows[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// Delete removes a list and its tasks. Reminders for those tasks are
// cancelled first.
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var l task.List
	if err := h.DB.Where("id = ? AND user_id = ?", id, uid).First(&l).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var tasks []task.Todo
	if err := h.DB.Where("list_id = ? AND user_id = ?", id, uid).Find(&tasks).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	for i := range tasks {
		h.Reminders.Cancel(r.Context(), &tasks[i])
	}

	if err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ? AND user_id = ?", id, uid).Delete(&task.Todo{}).Error; err != nil {
			return err
		}
		return tx.Delete(&l).Error
	}); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
