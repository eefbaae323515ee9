package handlers

import (
	"context"
	"database/sql"
	"math"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"artshowcase/internal/auth"
	"artshowcase/internal/models"
	"artshowcase/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Store - операции хранилища, которые нужны обработчикам.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash, role string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateArtwork(ctx context.Context, artwork *models.Artwork) error
	GetArtwork(ctx context.Context, id int64) (*models.Artwork, error)
	ListArtworkStats(ctx context.Context, artist string) ([]models.ArtworkStats, error)
	DeleteArtwork(ctx context.Context, id int64, removeFile func() error) error
	AddVote(ctx context.Context, artworkID int64, score int) (float64, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessagesForArtist(ctx context.Context, username string) ([]models.Message, error)
}

// TokenIssuer выпускает токен для вошедшего пользователя.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// Handler объединяет зависимости всех обработчиков.
type Handler struct {
	store         Store
	files         services.Storage
	tokens        TokenIssuer
	baseURL       string
	maxUploadSize int64
}

// New создает обработчики. baseURL - префикс абсолютных ссылок на изображения.
func New(store Store, files services.Storage, tokens TokenIssuer, baseURL string, maxUploadSize int64) *Handler {
	return &Handler{
		store:         store,
		files:         files,
		tokens:        tokens,
		baseURL:       strings.TrimRight(baseURL, "/"),
		maxUploadSize: maxUploadSize,
	}
}

// Home - приветствие на корневом адресе.
func (h *Handler) Home(c *gin.Context) {
	c.String(http.StatusOK, "¡Bienvenido a Escaparate Artístico!")
}

// respondMessage отвечает JSON вида {"message": "..."}.
func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// respondInternal отвечает 500 с текстом исходной ошибки.
func respondInternal(c *gin.Context, operation string, err error) {
	_ = c.Error(err)
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(operation)
	respondMessage(c, http.StatusInternalServerError, operation+": "+err.Error())
}

// artworkID разбирает :id из пути. Нецелый id ведет себя как несуществующий маршрут (404).
func artworkID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondMessage(c, http.StatusNotFound, "Работа не найдена")
		return 0, false
	}
	return id, true
}

// imageURL превращает место хранения в абсолютную ссылку на /uploads/.
func (h *Handler) imageURL(location string) string {
	return h.baseURL + "/uploads/" + path.Base(filepath.ToSlash(location))
}

// round2 округляет до двух знаков после запятой.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (h *Handler) toArtworkResponse(row models.ArtworkStats) models.ArtworkResponse {
	avg := 0.0
	if row.AverageScore.Valid {
		avg = round2(row.AverageScore.Float64)
	}
	return models.ArtworkResponse{
		ID:           row.ID,
		Title:        row.Title,
		Artist:       row.Artist,
		Description:  row.Description,
		ImageURL:     h.imageURL(row.ImageURL),
		AverageScore: avg,
		VotesCount:   row.VotesCount,
	}
}

func (h *Handler) toMyArtworkResponse(row models.ArtworkStats) models.MyArtworkResponse {
	return models.MyArtworkResponse{
		ID:           row.ID,
		Title:        row.Title,
		Artist:       row.Artist,
		Description:  row.Description,
		ImageURL:     h.imageURL(row.ImageURL),
		AverageScore: nullableFloat(row.AverageScore),
		VotesCount:   row.VotesCount,
	}
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
