package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MinIOStorage хранит файлы объектами в бакете MinIO (или любом S3-совместимом сервисе).
// Местом хранения является ключ объекта, он совпадает с именем файла.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// normaliseEndpoint принимает "minio:9000" или "http(s)://minio:9000"
// и возвращает host:port и признак TLS.
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, errors.New("пустой адрес MinIO")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("некорректный адрес MinIO: %s", raw)
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("адрес MinIO не должен содержать путь: %s", raw)
		}
		return u.Host, u.Scheme == "https", nil
	}

	// Без схемы: host:port, по умолчанию без TLS (локальный MinIO).
	return raw, false, nil
}

// NewMinIOStorage подключается к MinIO и проверяет, что бакет существует.
func NewMinIOStorage(ctx context.Context, rawEndpoint, accessKey, secretKey, bucket string) (*MinIOStorage, error) {
	endpoint, secure, err := normaliseEndpoint(rawEndpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать клиент MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки бакета %s: %w", bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("бакет MinIO не существует: %s", bucket)
	}

	log.Info().Str("endpoint", endpoint).Str("bucket", bucket).Msg("хранилище MinIO подключено")
	return &MinIOStorage{client: client, bucket: bucket}, nil
}

func (s *MinIOStorage) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !validStoredName(filename) {
		return "", fmt.Errorf("недопустимое имя файла: %q", filename)
	}
	if contentType == "" {
		contentType = GetImageContentType(filename)
	}

	info, err := s.client.PutObject(ctx, s.bucket, filename, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("не удалось сохранить объект %s: %w", filename, err)
	}

	log.Debug().Str("bucket", s.bucket).Str("key", info.Key).Int64("bytes", info.Size).Msg("объект сохранен")
	return filename, nil
}

func (s *MinIOStorage) Open(ctx context.Context, filename string) (io.ReadCloser, int64, error) {
	if !validStoredName(filename) {
		return nil, 0, ErrFileNotFound
	}

	// StatObject отличает отсутствующий объект от прочих ошибок до начала чтения.
	stat, err := s.client.StatObject(ctx, s.bucket, filename, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, 0, ErrFileNotFound
		}
		return nil, 0, fmt.Errorf("ошибка доступа к объекту %s: %w", filename, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, filename, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка чтения объекта %s: %w", filename, err)
	}
	return obj, stat.Size, nil
}

func (s *MinIOStorage) Remove(ctx context.Context, location string) error {
	// RemoveObject не возвращает ошибку для отсутствующего ключа.
	if err := s.client.RemoveObject(ctx, s.bucket, location, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("не удалось удалить объект %s: %w", location, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
