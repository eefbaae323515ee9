package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FilesystemStorage хранит файлы в локальной папке загрузок.
// Местом хранения является полный путь к файлу.
type FilesystemStorage struct {
	dir string
}

// NewFilesystemStorage создает хранилище в папке dir. Папка должна существовать.
func NewFilesystemStorage(dir string) (*FilesystemStorage, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("папка загрузок %s недоступна: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("путь %s существует, но не является директорией", dir)
	}
	return &FilesystemStorage{dir: dir}, nil
}

// Dir возвращает папку загрузок.
func (s *FilesystemStorage) Dir() string {
	return s.dir
}

func (s *FilesystemStorage) Save(_ context.Context, filename string, r io.Reader, _ int64, _ string) (string, error) {
	if !validStoredName(filename) {
		return "", fmt.Errorf("недопустимое имя файла: %q", filename)
	}
	filePath := filepath.Join(s.dir, filename)

	// os.Create обрезает существующий файл: одноименная загрузка перезаписывает прежнюю.
	outFile, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("не удалось создать файл на сервере (%s): %w", filePath, err)
	}
	defer outFile.Close()

	written, err := io.Copy(outFile, r)
	if err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("не удалось записать файл %s: %w", filePath, err)
	}

	log.Debug().Str("path", filePath).Int64("bytes", written).Msg("файл сохранен")
	return filePath, nil
}

func (s *FilesystemStorage) Open(_ context.Context, filename string) (io.ReadCloser, int64, error) {
	if !validStoredName(filename) {
		return nil, 0, ErrFileNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, ErrFileNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка доступа к файлу %s: %w", filename, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("ошибка доступа к файлу %s: %w", filename, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, ErrFileNotFound
	}
	return f, info.Size(), nil
}

func (s *FilesystemStorage) Remove(_ context.Context, location string) error {
	err := os.Remove(location)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("не удалось удалить файл %s: %w", location, err)
	}
	if err == nil {
		log.Debug().Str("path", location).Msg("файл удален")
	}
	return nil
}
