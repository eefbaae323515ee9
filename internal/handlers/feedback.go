package handlers

import (
	"encoding/json"
	"math"
	"net/http"

	"artshowcase/internal/database"
	"artshowcase/internal/middleware"
	"artshowcase/internal/models"

	"github.com/gin-gonic/gin"
)

// Допустимый диапазон оценки.
const (
	MinScore = 1
	MaxScore = 5
)

type voteRequest struct {
	Score json.RawMessage `json:"score"`
}

// parseScore принимает число JSON с целым значением в диапазоне 1-5.
// 4 и 4.0 равнозначны; строки, дробные значения, true/false и null отклоняются.
func parseScore(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}
	if value != math.Trunc(value) || value < MinScore || value > MaxScore {
		return 0, false
	}
	return int(value), true
}

// Vote - POST /artworks/:id/vote, без авторизации.
// Возвращает обновленную среднюю оценку, округленную до двух знаков.
func (h *Handler) Vote(c *gin.Context) {
	id, ok := artworkID(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Score) == 0 {
		respondMessage(c, http.StatusBadRequest, "Требуется оценка")
		return
	}
	score, ok := parseScore(req.Score)
	if !ok {
		respondMessage(c, http.StatusBadRequest, "Оценка должна быть целым числом от 1 до 5")
		return
	}

	avg, err := h.store.AddVote(c.Request.Context(), id, score)
	if database.IsNotFound(err) {
		respondMessage(c, http.StatusNotFound, "Работа не найдена")
		return
	}
	if err != nil {
		respondInternal(c, "Ошибка при регистрации голоса", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Голос учтен",
		"average_score": round2(avg),
	})
}

type contactRequest struct {
	SenderName  string `json:"sender_name"`
	SenderPhone string `json:"sender_phone"`
	Message     string `json:"message"`
}

// Contact - POST /artworks/:id/contact, без авторизации.
// Сообщение адресуется художнику, которому работа принадлежит в момент отправки.
func (h *Handler) Contact(c *gin.Context) {
	id, ok := artworkID(c)
	if !ok {
		return
	}

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.SenderName == "" || req.SenderPhone == "" || req.Message == "" {
		respondMessage(c, http.StatusBadRequest, "Все поля (имя, телефон и сообщение) обязательны")
		return
	}

	msg := &models.Message{
		ArtworkID:   id,
		SenderName:  req.SenderName,
		SenderPhone: req.SenderPhone,
		Text:        req.Message,
	}
	err := h.store.CreateMessage(c.Request.Context(), msg)
	if database.IsNotFound(err) {
		respondMessage(c, http.StatusNotFound, "Работа не найдена")
		return
	}
	if err != nil {
		respondInternal(c, "Ошибка при отправке сообщения", err)
		return
	}

	respondMessage(c, http.StatusCreated, "Сообщение успешно отправлено художнику")
}

// ListMessages - GET /messages и GET /notifications: сообщения, адресованные текущему художнику.
func (h *Handler) ListMessages(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	msgs, err := h.store.ListMessagesForArtist(c.Request.Context(), identity.Username)
	if err != nil {
		respondInternal(c, "Ошибка при получении сообщений", err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
