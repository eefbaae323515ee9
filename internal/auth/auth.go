package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes - предел bcrypt: байты сверх 72 он не учитывает и отказывается хешировать.
const MaxPasswordBytes = 72

// ErrPasswordTooLong - пароль художника не помещается в bcrypt.
var ErrPasswordTooLong = errors.New("пароль длиннее 72 байт")

// HashPassword готовит пароль художника к записи в users.password.
// В ответах API хеш не появляется (поле скрыто из JSON).
func HashPassword(password string) (string, error) {
	// Проверяем заранее, чтобы регистрация ответила 400, а не 500
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("не удалось захешировать пароль художника: %w", err)
	}
	return string(hash), nil
}

// PasswordMatches проверяет пароль из /login по сохраненному хешу.
// Поврежденный хеш и неверный пароль одинаково дают false.
func PasswordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewSigningSecret создает ключ подписи токенов на время жизни процесса.
// Нужен main, когда JWT_SECRET не задан: после перезапуска выданные токены недействительны.
// Ключ - nBytes случайных байт в base64url без паддинга.
func NewSigningSecret(nBytes int) (string, error) {
	if nBytes <= 0 {
		return "", fmt.Errorf("размер ключа подписи должен быть положительным, получено %d", nBytes)
	}
	key := make([]byte, nBytes)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("нет случайных байт для ключа подписи: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}
