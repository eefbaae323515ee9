package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// DatabaseError - ошибка драйвера или ORM.
type DatabaseError struct {
	Inner error
}

func (e *DatabaseError) Error() string {
	return "ошибка базы данных: " + e.Inner.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.Inner
}

// NotFoundError - запись не найдена.
type NotFoundError struct {
	Search string
}

func (e *NotFoundError) Error() string {
	return "запись не найдена: " + e.Search
}

// ConflictError - нарушение уникальности (например, занятое имя пользователя).
type ConflictError struct {
	Conflict string
}

func (e *ConflictError) Error() string {
	return "конфликт: " + e.Conflict
}

// IsNotFound сообщает, является ли err (или обернутая в нем ошибка) NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict сообщает, является ли err ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// wrapError переводит ошибку gorm/sqlite в одну из типизированных ошибок пакета.
func wrapError(err error, operation, details string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Search: fmt.Sprintf("%s (%s)", operation, details)}
	}
	// Драйвер modernc не поддерживает трансляцию ошибок gorm,
	// поэтому нарушение уникальности распознаем по тексту.
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &ConflictError{Conflict: fmt.Sprintf("%s (%s)", operation, details)}
	}

	// Уже типизированные ошибки (например, из колбэка транзакции) не оборачиваем повторно
	var nf *NotFoundError
	var ce *ConflictError
	var de *DatabaseError
	if errors.As(err, &nf) || errors.As(err, &ce) || errors.As(err, &de) {
		return err
	}

	return &DatabaseError{Inner: fmt.Errorf("%s: %w", operation, err)}
}
