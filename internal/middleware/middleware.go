package middleware

import (
	"io"
	"net/http"
	"time"

	"artshowcase/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Ключи контекста gin.
const (
	IdentityKey  = "identity"
	RequestIDKey = "requestID"
)

// TokenParser проверяет bearer-токен и возвращает личность пользователя.
type TokenParser interface {
	Parse(token string) (auth.Identity, error)
}

// AuthRequired пропускает запрос только с действительным bearer-токеном.
// Личность из токена сохраняется в контексте под IdentityKey.
func AuthRequired(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			log.Debug().
				Str("path", c.Request.URL.Path).
				Str("ip", c.ClientIP()).
				Msg("доступ запрещен: нет токена")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Требуется токен авторизации"})
			return
		}

		identity, err := tokens.Parse(raw)
		if err != nil {
			log.Debug().
				Err(err).
				Str("path", c.Request.URL.Path).
				Str("ip", c.ClientIP()).
				Msg("доступ запрещен: недействительный токен")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Недействительный или просроченный токен"})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// RoleRequired пропускает только пользователей с ролью role.
// Должен стоять после AuthRequired. message - текст ответа 403.
func RoleRequired(role, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok || identity.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": message})
			return
		}
		c.Next()
	}
}

// CurrentIdentity возвращает личность, сохраненную AuthRequired.
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}

// RequestLogger пишет в лог каждый запрос: метод, путь, статус, длительность.
// Идентификатор запроса берется из X-Request-ID или генерируется.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("запрос обработан")
	}
}

// Recovery перехватывает панику обработчика и отвечает 500 {"message"}.
// Подключается после RequestLogger, чтобы запрос с паникой тоже попал в лог со статусом 500.
func Recovery() gin.HandlerFunc {
	// Стандартный вывод gin отключен, паника пишется в zerolog
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		requestID, _ := c.Get(RequestIDKey)
		log.Error().
			Interface("panic", recovered).
			Interface("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("паника при обработке запроса")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Внутренняя ошибка сервера"})
	})
}

// CORS разрешает кросс-доменные запросы фронтенда.
func CORS(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Preflight-запрос обрабатываем сразу
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
