package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleArtist - единственная роль, которую выдает регистрация.
// Посетители работают без токена.
const RoleArtist = "artist"

var (
	ErrMissingToken = errors.New("отсутствует токен авторизации")
	ErrInvalidToken = errors.New("недействительный токен")
)

// Identity - личность, извлеченная из токена.
// Роль берется из токена как есть, повторно в БД не проверяется.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// claims - внутреннее представление полезной нагрузки JWT.
type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenManager выпускает и проверяет bearer-токены (HS256).
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager создает менеджер токенов.
// ttl == 0 означает токены без срока действия.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("ключ подписи токенов не может быть пустым")
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue подписывает токен с {username, role}.
func (m *TokenManager) Issue(id Identity) (string, error) {
	now := m.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		Username: id.Username,
		Role:     id.Role,
	}
	if m.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия токена и возвращает личность.
func (m *TokenManager) Parse(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Username == "" {
		return Identity{}, fmt.Errorf("%w: нет имени пользователя", ErrInvalidToken)
	}
	return Identity{Username: parsed.Username, Role: parsed.Role}, nil
}

// BearerToken извлекает токен из заголовка "Authorization: Bearer <token>".
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}
