package handlers

import (
	"errors"
	"net/http"

	"artshowcase/internal/auth"
	"artshowcase/internal/database"
	"artshowcase/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// bindCredentials читает {username, password}; пустые поля считаются отсутствующими.
func bindCredentials(c *gin.Context) (credentials, bool) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		respondMessage(c, http.StatusBadRequest, "Имя пользователя и пароль обязательны")
		return credentials{}, false
	}
	return req, true
}

// Register - POST /register. Новый пользователь всегда получает роль "artist".
func (h *Handler) Register(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		respondMessage(c, http.StatusBadRequest, "Пароль слишком длинный (не более 72 байт)")
		return
	}
	if err != nil {
		respondInternal(c, "Ошибка при регистрации пользователя", err)
		return
	}

	_, err = h.store.CreateUser(c.Request.Context(), req.Username, hashedPassword, auth.RoleArtist)
	if database.IsConflict(err) {
		respondMessage(c, http.StatusConflict, "Имя пользователя уже занято, выберите другое")
		return
	}
	if err != nil {
		respondInternal(c, "Ошибка при регистрации пользователя", err)
		return
	}

	respondMessage(c, http.StatusCreated, "Пользователь успешно зарегистрирован")
}

// Login - POST /login. Неизвестное имя и неверный пароль неразличимы для клиента.
func (h *Handler) Login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil && !database.IsNotFound(err) {
		respondInternal(c, "Ошибка сервера при проверке данных", err)
		return
	}
	if user == nil || !auth.PasswordMatches(user.Password, req.Password) {
		log.Info().Str("username", req.Username).Str("ip", c.ClientIP()).Msg("неудачная попытка входа")
		respondMessage(c, http.StatusUnauthorized, "Неверное имя пользователя или пароль")
		return
	}

	token, err := h.tokens.Issue(auth.Identity{Username: user.Username, Role: user.Role})
	if err != nil {
		respondInternal(c, "Не удалось выпустить токен", err)
		return
	}

	log.Info().Str("username", user.Username).Msg("пользователь вошел в систему")
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

// UserRole - GET /user-role. Данные берутся из токена без обращения к БД.
func (h *Handler) UserRole(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	c.JSON(http.StatusOK, gin.H{"username": identity.Username, "role": identity.Role})
}
