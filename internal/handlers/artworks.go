package handlers

import (
	"errors"
	"net/http"
	"strings"

	"artshowcase/internal/database"
	"artshowcase/internal/middleware"
	"artshowcase/internal/models"
	"artshowcase/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ListArtworks - GET /artworks, доступно всем.
// Средняя оценка округляется до двух знаков, без голосов - 0.
func (h *Handler) ListArtworks(c *gin.Context) {
	rows, err := h.store.ListArtworkStats(c.Request.Context(), "")
	if err != nil {
		respondInternal(c, "Ошибка при получении списка работ", err)
		return
	}

	resp := make([]models.ArtworkResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, h.toArtworkResponse(row))
	}
	c.JSON(http.StatusOK, resp)
}

// ListMyArtworks - GET /my-artworks, работы текущего художника.
// В отличие от публичного списка средняя не округляется и равна null без голосов.
func (h *Handler) ListMyArtworks(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	rows, err := h.store.ListArtworkStats(c.Request.Context(), identity.Username)
	if err != nil {
		respondInternal(c, "Ошибка при получении списка работ", err)
		return
	}

	resp := make([]models.MyArtworkResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, h.toMyArtworkResponse(row))
	}
	c.JSON(http.StatusOK, resp)
}

// CreateArtwork - POST /artworks (multipart: image, title, description).
// Файл сохраняется под очищенным исходным именем; одноименный файл перезаписывается.
// Если запись в БД не удалась, сохраненный файл остается в хранилище.
func (h *Handler) CreateArtwork(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		respondMessage(c, http.StatusBadRequest, "Неверный тип содержимого, требуется multipart/form-data")
		return
	}

	// Ограничиваем общий размер запроса: лимит файла плюс 1 МБ на остальные поля.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondMessage(c, http.StatusBadRequest, "Слишком большой запрос")
		case errors.Is(err, http.ErrMissingFile):
			respondMessage(c, http.StatusBadRequest, "В запросе нет изображения")
		default:
			log.Warn().Err(err).Str("username", identity.Username).Msg("ошибка разбора multipart-формы")
			respondMessage(c, http.StatusBadRequest, "Ошибка обработки multipart-формы")
		}
		return
	}
	if fileHeader.Filename == "" {
		respondMessage(c, http.StatusBadRequest, "Изображение не выбрано")
		return
	}

	// Отсутствующим считается только пустое название, пробелы допустимы
	title := c.PostForm("title")
	if title == "" {
		respondMessage(c, http.StatusBadRequest, "Название работы обязательно")
		return
	}
	description := c.PostForm("description")

	filename := services.SecureFilename(fileHeader.Filename)
	if filename == "" {
		respondMessage(c, http.StatusBadRequest, "Недопустимое имя файла")
		return
	}

	// Внешний ключ на владельца: роль из токена не перепроверяется, но id пользователя нужен.
	owner, err := h.store.GetUserByUsername(c.Request.Context(), identity.Username)
	if database.IsNotFound(err) {
		respondMessage(c, http.StatusUnauthorized, "Пользователь из токена не найден")
		return
	}
	if err != nil {
		respondInternal(c, "Ошибка при добавлении работы", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondInternal(c, "Ошибка при сохранении изображения", err)
		return
	}
	defer file.Close()

	location, err := h.files.Save(c.Request.Context(), filename, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondInternal(c, "Ошибка при сохранении изображения", err)
		return
	}

	artwork := &models.Artwork{
		Title:       title,
		UserID:      owner.ID,
		Description: description,
		ImageURL:    location,
	}
	if err := h.store.CreateArtwork(c.Request.Context(), artwork); err != nil {
		respondInternal(c, "Ошибка при добавлении работы", err)
		return
	}

	respondMessage(c, http.StatusCreated, "Работа успешно добавлена!")
}

// DeleteArtwork - DELETE /artworks/:id. Удалить работу может только её автор.
// Файл удаляется внутри транзакции удаления строки; голоса и сообщения остаются.
func (h *Handler) DeleteArtwork(c *gin.Context) {
	id, ok := artworkID(c)
	if !ok {
		return
	}
	identity, _ := middleware.CurrentIdentity(c)
	ctx := c.Request.Context()

	artwork, err := h.store.GetArtwork(ctx, id)
	if database.IsNotFound(err) {
		respondMessage(c, http.StatusNotFound, "Работа не найдена")
		return
	}
	if err != nil {
		respondInternal(c, "Ошибка при удалении работы", err)
		return
	}

	if artwork.User.Username != identity.Username {
		respondMessage(c, http.StatusForbidden, "Доступ запрещен. Удалить работу может только её автор")
		return
	}

	err = h.store.DeleteArtwork(ctx, id, func() error {
		return h.files.Remove(ctx, artwork.ImageURL)
	})
	if database.IsNotFound(err) {
		respondMessage(c, http.StatusNotFound, "Работа не найдена")
		return
	}
	if err != nil {
		respondInternal(c, "Ошибка при удалении работы", err)
		return
	}

	respondMessage(c, http.StatusOK, "Работа успешно удалена!")
}

// ServeUpload - GET /uploads/:filename. Доступ не ограничен.
func (h *Handler) ServeUpload(c *gin.Context) {
	filename := c.Param("filename")

	rc, size, err := h.files.Open(c.Request.Context(), filename)
	if errors.Is(err, services.ErrFileNotFound) {
		respondMessage(c, http.StatusNotFound, "Файл не найден")
		return
	}
	if err != nil {
		respondInternal(c, "Ошибка при чтении файла", err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, size, services.GetImageContentType(filename), rc, nil)
}
