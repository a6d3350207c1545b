package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/anandpillai/loantrack/internal/repository"
	"github.com/anandpillai/loantrack/pkg/response"
)

type NotificationHandler struct {
	repo repository.NotificationRepository
}

func NewNotificationHandler(repo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

// List handles GET /users/{userId}/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	notifications, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		response.InternalServerError(w, "Failed to list notifications", err)
		return
	}

	response.Success(w, notifications)
}

// MarkRead handles POST /notifications/{notificationId}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["notificationId"])
	if err != nil {
		response.BadRequest(w, "Invalid notification id", err)
		return
	}

	if err := h.repo.MarkRead(r.Context(), id); err != nil {
		response.InternalServerError(w, "Failed to mark notification read", err)
		return
	}

	response.Success(w, map[string]string{"read": id.String()})
}

// MarkAllRead handles POST /users/{userId}/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if err := h.repo.MarkAllRead(r.Context(), userID); err != nil {
		response.InternalServerError(w, "Failed to mark notifications read", err)
		return
	}

	response.Success(w, map[string]string{"user_id": userID})
}
