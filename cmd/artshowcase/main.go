package main

import (
	// Стандартные библиотеки
	"context"       // Для контекста остановки сервера
	"errors"        // Для проверки http.ErrServerClosed
	"fmt"           // Для форматирования ошибок
	"net/http"      // HTTP-сервер поверх движка gin
	"os"            // Для работы с папками
	"os/signal"     // Для перехвата SIGINT/SIGTERM
	"path/filepath" // Для папки файла БД
	"syscall"       // Для SIGTERM
	"time"          // Для таймаутов сервера

	// Внутренние пакеты
	"artshowcase/internal/auth"     // Ключ подписи и токены
	"artshowcase/internal/config"   // Конфигурация из окружения
	"artshowcase/internal/database" // Хранилище SQLite
	"artshowcase/internal/handlers" // Обработчики маршрутов
	"artshowcase/internal/router"   // Таблица маршрутов
	"artshowcase/internal/services" // Хранилища загруженных файлов

	// Сторонние пакеты
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// checkOrCreateDir проверяет, что dirPath - директория, и создает её при отсутствии.
func checkOrCreateDir(dirPath string) error {
	// Не даем случайно использовать корень или текущую директорию
	if dirPath == "" || dirPath == "/" || dirPath == "." {
		return fmt.Errorf("небезопасный путь для директории: %q", dirPath)
	}

	info, err := os.Stat(dirPath)
	// Папки нет - создаем вместе с родительскими
	if os.IsNotExist(err) {
		log.Info().Str("dir", dirPath).Msg("папка не найдена, создаем")
		if err := os.MkdirAll(dirPath, 0o755); err != nil {
			return fmt.Errorf("не удалось создать папку %s: %w", dirPath, err)
		}
		return nil
	}
	// Любая другая ошибка Stat (например, нет прав)
	if err != nil {
		return fmt.Errorf("ошибка при проверке папки %s: %w", dirPath, err)
	}
	// Путь есть, но это файл
	if !info.IsDir() {
		return fmt.Errorf("путь %s существует, но не является директорией", dirPath)
	}
	return nil
}

// setupLogger настраивает глобальный логгер zerolog.
// Неизвестный или пустой уровень заменяется на info.
func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
}

// newStorage выбирает хранилище изображений по STORAGE_TYPE.
func newStorage(ctx context.Context, cfg config.Config) (services.Storage, error) {
	switch cfg.StorageType {
	case config.StorageMinIO:
		// Бакет должен существовать заранее, NewMinIOStorage это проверяет
		return services.NewMinIOStorage(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket)
	default:
		// Папка загрузок создается при первом запуске
		if err := checkOrCreateDir(cfg.UploadPath); err != nil {
			return nil, err
		}
		return services.NewFilesystemStorage(cfg.UploadPath)
	}
}

func main() {
	// --- 1. Конфигурация ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("ошибка конфигурации")
	}
	setupLogger(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		// Без постоянного ключа токены перестают действовать после перезапуска
		log.Warn().Msg("JWT_SECRET не задан, используется случайный ключ для этого процесса")
		cfg.JWTSecret, err = auth.NewSigningSecret(32)
		if err != nil {
			log.Fatal().Err(err).Msg("не удалось сгенерировать ключ подписи")
		}
	}

	// --- 2. Директории и зависимости ---
	// Папка файла БД ("data" по умолчанию); файл в текущей папке проверять не нужно
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := checkOrCreateDir(dir); err != nil {
			log.Fatal().Err(err).Msg("директория БД недоступна")
		}
	}

	store, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("ошибка инициализации базы данных")
	}
	defer store.Close() // Закрываем БД при выходе из main

	// ctx отменяется по Ctrl+C или SIGTERM (остановка контейнера)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := newStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.StorageType).Msg("ошибка инициализации хранилища файлов")
	}

	// Один менеджер и выпускает токены при входе, и проверяет их в middleware
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("ошибка инициализации токенов")
	}

	// --- 3. HTTP ---
	gin.SetMode(cfg.GinMode) // Значение уже проверено в config.Validate
	h := handlers.New(store, files, tokens, cfg.BaseURL, cfg.MaxUploadSize)
	engine := router.New(h, tokens, router.Options{
		CORSOrigin:    cfg.CORSOrigin,
		MaxUploadSize: cfg.MaxUploadSize,
	})

	// Свой http.Server вместо engine.Run, чтобы можно было корректно остановиться
	server := &http.Server{
		Addr:              ":" + cfg.ListenPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Ждем сигнала и даем текущим запросам до 10 секунд на завершение
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ошибка остановки сервера")
		}
	}()

	log.Info().
		Str("port", cfg.ListenPort).
		Str("storage", cfg.StorageType).
		Str("db_path", cfg.DBPath).
		Msg("сервер запускается")

	// ListenAndServe блокирует до остановки; ErrServerClosed - штатное завершение
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("не удалось запустить сервер")
	}
	log.Info().Msg("сервер остановлен")
}
