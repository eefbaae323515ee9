package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrFileNotFound - запрошенного файла нет в хранилище.
var ErrFileNotFound = errors.New("файл не найден")

// Storage - хранилище загруженных изображений.
// Имена файлов уже очищены SecureFilename; файл с тем же именем перезаписывается.
type Storage interface {
	// Save сохраняет содержимое под именем filename и возвращает место хранения,
	// которое записывается в artworks.image_url.
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
	// Open открывает файл по имени для отдачи клиенту.
	Open(ctx context.Context, filename string) (io.ReadCloser, int64, error)
	// Remove удаляет файл по месту хранения. Отсутствие файла ошибкой не считается.
	Remove(ctx context.Context, location string) error
}

// GetImageContentType определяет Content-Type по расширению файла.
func GetImageContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream" // неизвестный тип файла
	}
}

// validStoredName отсекает имена, которые могут выйти за пределы хранилища.
// Без разделителей путь остается одним элементом, поэтому "vol..2.png" допустимо.
func validStoredName(filename string) bool {
	if filename == "" || filename == "." || filename == ".." {
		return false
	}
	return !strings.ContainsAny(filename, `/\`)
}
