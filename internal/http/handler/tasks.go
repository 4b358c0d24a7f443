package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"taskdo/internal/auth"
	"taskdo/internal/reminder"
	"taskdo/internal/task"
)

type TaskHandler struct {
	DB        *gorm.DB
	Reminders *reminder.Manager
	Log       zerolog.Logger
}

type taskReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Completed   *bool    `json:"completed"`
	Priority    *int     `json:"priority"`
	DueDate     *string  `json:"due_date"` // "2006-01-02", empty string clears
	DueTime     *string  `json:"due_time"` // "15:04", empty string clears
	ListID      *uint64  `json:"list_id"`
	WorkspaceID *uint64  `json:"workspace_id"`
	Tags        []string `json:"tags"`
}

type taskDTO struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Completed   bool      `json:"completed"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	DueDate     *string   `json:"due_date"`
	DueTime     *string   `json:"due_time"`
	ListID      *uint64   `json:"list_id"`
	WorkspaceID *uint64   `json:"workspace_id"`
	Tags        []string  `json:"tags"`
	HasReminder bool      `json:"has_reminder"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTaskDTO(t *task.Todo) taskDTO {
	var dueDate *string
	if t.DueDate != nil {
		s := t.DueDate.Format("2006-01-02")
		dueDate = &s
	}
	return taskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Color:       t.Color,
		Completed:   t.Completed,
		Status:      t.Status(),
		Priority:    t.Priority,
		DueDate:     dueDate,
		DueTime:     t.DueTime,
		ListID:      t.ListID,
		WorkspaceID: t.WorkspaceID,
		Tags:        []string(t.Tags),
		HasReminder: t.ReminderJobID != nil,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func parseDueDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, false
	}
	return &d, true
}

func parseDueTime(s string) (*string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return nil, false
	}
	return &s, true
}

func (h *TaskHandler) ownsList(uid uint64, id *uint64) bool {
	if id == nil {
		return true
	}
	var l task.List
	return h.DB.Where("id = ? AND user_id = ?", *id, uid).First(&l).Error == nil
}

func (h *TaskHandler) ownsWorkspace(uid uint64, id *uint64) bool {
	if id == nil {
		return true
	}
	var ws task.Workspace
	return h.DB.Where("id = ? AND user_id = ?", *id, uid).First(&ws).Error == nil
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req taskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		http.Error(w, "title required", http.StatusBadRequest)
		return
	}

	t := task.Todo{
		UserID:      uid,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Color:       "#667eea",
		Tags:        pq.StringArray{},
	}
	if req.Color != "" {
		t.Color = req.Color
	}
	if req.Priority != nil {
		if *req.Priority < 0 || *req.Priority > 3 {
			http.Error(w, "priority out of range", http.StatusBadRequest)
			return
		}
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		d, ok := parseDueDate(*req.DueDate)
		if !ok {
			http.Error(w, "invalid due_date (2006-01-02)", http.StatusBadRequest)
			return
		}
		t.DueDate = d
	}
	if req.DueTime != nil {
		dt, ok := parseDueTime(*req.DueTime)
		if !ok {
			http.Error(w, "invalid due_time (15:04)", http.StatusBadRequest)
			return
		}
		t.DueTime = dt
	}
	if !h.ownsList(uid, req.ListID) || !h.ownsWorkspace(uid, req.WorkspaceID) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	t.ListID = req.ListID
	t.WorkspaceID = req.WorkspaceID
	if len(req.Tags) > 0 {
		t.Tags = pq.StringArray(req.Tags)
	}

	if err := h.DB.Create(&t).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	// Reminder scheduling happens after the task is persisted and must not
	// affect the response.
	h.Reminders.Reschedule(r.Context(), &t)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toTaskDTO(&t))
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	q := h.DB.Model(&task.Todo{}).Where("user_id = ?", uid)

	if v := strings.TrimSpace(r.URL.Query().Get("completed")); v == "true" || v == "false" {
		q = q.Where("completed = ?", v == "true")
	}
	if v := strings.TrimSpace(r.URL.Query().Get("list_id")); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			q = q.Where("list_id = ?", id)
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("workspace_id")); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			q = q.Where("workspace_id = ?", id)
		}
	}
	if tag := strings.TrimSpace(strings.ToLower(r.URL.Query().Get("tag"))); tag != "" {
		q = q.Where("? = any(tags)", tag)
	}
	if text := strings.TrimSpace(r.URL.Query().Get("q")); text != "" {
		q = q.Where("title ILIKE ? OR description ILIKE ?", "%"+text+"%", "%"+text+"%")
	}

	var rows []task.Todo
	if err := q.Order("priority desc, created_at desc").Limit(100).Find(&rows).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]taskDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toTaskDTO(&rows[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *TaskHandler) fetch(w http.ResponseWriter, r *http.Request) (*task.Todo, bool) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return nil, false
	}

	var t task.Todo
	if err := h.DB.Where("id = ? AND user_id = ?", id, uid).First(&t).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return nil, false
	}
	return &t, true
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.fetch(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toTaskDTO(t))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	t, ok := h.fetch(w, r)
	if !ok {
		return
	}

	var req taskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		t.Title = title
	}
	if req.Description != "" {
		t.Description = strings.TrimSpace(req.Description)
	}
	if req.Color != "" {
		t.Color = req.Color
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	if req.Priority != nil {
		if *req.Priority < 0 || *req.Priority > 3 {
			http.Error(w, "priority out of range", http.StatusBadRequest)
			return
		}
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		d, ok := parseDueDate(*req.DueDate)
		if !ok {
			http.Error(w, "invalid due_date (2006-01-02)", http.StatusBadRequest)
			return
		}
		t.DueDate = d
	}
	if req.DueTime != nil {
		dt, ok := parseDueTime(*req.DueTime)
		if !ok {
			http.Error(w, "invalid due_time (15:04)", http.StatusBadRequest)
			return
		}
		t.DueTime = dt
	}
	if req.ListID != nil {
		if !h.ownsList(uid, req.ListID) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		t.ListID = req.ListID
	}
	if req.WorkspaceID != nil {
		if !h.ownsWorkspace(uid, req.WorkspaceID) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		t.WorkspaceID = req.WorkspaceID
	}
	if req.Tags != nil {
		t.Tags = pq.StringArray(req.Tags)
	}

	if err := h.DB.Save(t).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.Reminders.Reschedule(r.Context(), t)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toTaskDTO(t))
}

type completeReq struct {
	Completed bool `json:"completed"`
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.fetch(w, r)
	if !ok {
		return
	}

	var req completeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	t.Completed = req.Completed
	if err := h.DB.Model(t).Update("completed", t.Completed).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.Reminders.Reschedule(r.Context(), t)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toTaskDTO(t))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.fetch(w, r)
	if !ok {
		return
	}

	// Cancel before the row goes away; a racing fire is a safe no-op since
	// the executor re-checks existence.
	h.Reminders.Cancel(r.Context(), t)

	if err := h.DB.Delete(t).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
