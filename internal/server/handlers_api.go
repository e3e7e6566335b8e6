package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"feedpulse/internal/domain"
	"feedpulse/internal/errors"
	"feedpulse/internal/notify"
)

type messageResponse struct {
	ID         string `json:"id"`
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

type notificationResponse struct {
	ID         string  `json:"id"`
	ToUserID   string  `json:"toUserId"`
	FromUserID string  `json:"fromUserId"`
	Message    string  `json:"message"`
	Action     string  `json:"action"`
	PostID     *string `json:"postId,omitempty"`
	Timestamp  string  `json:"timestamp"`
	Read       bool    `json:"read"`
}

type createNotificationRequest struct {
	ToUserID   string `json:"toUserId"`
	FromUserID string `json:"fromUserId"`
	Message    string `json:"message"`
	Action     string `json:"action"`
	PostID     string `json:"postId"`
}

func (s *Server) handleGetConversation(c echo.Context) error {
	userA, err := parseUserID(c.Param("userA"), "userA")
	if err != nil {
		return err
	}
	userB, err := parseUserID(c.Param("userB"), "userB")
	if err != nil {
		return err
	}

	history, err := s.messages.Fetch(c.Request().Context(), userA, userB)
	if err != nil {
		return err
	}

	response := make([]messageResponse, 0, len(history))
	for _, m := range history {
		response = append(response, messageResponse{
			ID:         m.ID.String(),
			FromUserID: m.FromUserID.String(),
			ToUserID:   m.ToUserID.String(),
			Message:    m.Body,
			Timestamp:  m.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleListNotifications(c echo.Context) error {
	userID, err := parseUserID(c.Param("userId"), "userId")
	if err != nil {
		return err
	}

	history, err := s.notifications.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	response := make([]notificationResponse, 0, len(history))
	for _, n := range history {
		response = append(response, encodeNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) handleCreateNotification(c echo.Context) error {
	var req createNotificationRequest
	if err := c.Bind(&req); err != nil {
		return errors.ValidationError("invalid request body")
	}

	toUserID, err := parseUserID(req.ToUserID, "toUserId")
	if err != nil {
		return err
	}
	fromUserID, err := parseUserID(req.FromUserID, "fromUserId")
	if err != nil {
		return err
	}

	params := notify.CreateParams{
		ToUserID:   toUserID,
		FromUserID: fromUserID,
		Message:    req.Message,
		Action:     domain.NotificationAction(req.Action),
	}
	if req.PostID != "" {
		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			return errors.ValidationError("postId must be a valid UUID")
		}
		params.PostID = &postID
	}

	created, err := s.notifications.Create(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, encodeNotificationResponse(*created))
}

func parseUserID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.ValidationError(field + " must be a valid UUID")
	}
	return id, nil
}

func encodeNotificationResponse(n domain.Notification) notificationResponse {
	response := notificationResponse{
		ID:         n.ID.String(),
		ToUserID:   n.ToUserID.String(),
		FromUserID: n.FromUserID.String(),
		Message:    n.Message,
		Action:     string(n.Action),
		Timestamp:  n.CreatedAt.Format(time.RFC3339),
		Read:       n.Read,
	}
	if n.PostID != nil {
		postID := n.PostID.String()
		response.PostID = &postID
	}
	return response
}
