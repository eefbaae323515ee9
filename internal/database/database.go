package database

import (
	// Стандартные библиотеки
	"context"      // Для отмены запросов вместе с HTTP-запросом
	"database/sql" // Пул соединений и NULL-значения агрегатов
	"fmt"          // Для форматирования ошибок
	"strconv"      // Для id в текстах ошибок
	"time"         // Для времени жизни соединения

	// Внутренние пакеты
	"artshowcase/internal/models" // Модели таблиц и строки выборок

	// Сторонние пакеты
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	// Драйвер SQLite на чистом Go. Пустой импорт регистрирует драйвер "sqlite"
	// в database/sql, а диалект gorm работает поверх уже открытого соединения.
	_ "modernc.org/sqlite"
)

// Store - доступ к хранилищу пользователей, работ, голосов и сообщений.
// Создается один раз в main и передается в обработчики (без глобальных переменных).
type Store struct {
	db    *gorm.DB // ORM поверх sqlDB, через него идут все запросы
	sqlDB *sql.DB  // Исходный пул, нужен для Close и Ping
}

// Open открывает (или создает) файл БД SQLite и приводит схему к актуальной.
// Принимает dataSourceName - путь к файлу БД.
func Open(dataSourceName string) (*Store, error) {
	// Строка подключения с прагмами в формате modernc:
	// - busy_timeout(5000): ждать снятия блокировки до 5 секунд;
	// - journal_mode(WAL): чтение не блокируется записью;
	// - foreign_keys(1): SQLite по умолчанию внешние ключи не проверяет;
	// - synchronous(NORMAL): в режиме WAL этого достаточно.
	dsn := fmt.Sprintf(
		"%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)",
		dataSourceName,
	)

	// sql.Open только готовит объект, соединение появится при первом запросе
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка при открытии %s: %w", dataSourceName, err)
	}

	// Параллельная запись в один файл SQLite затруднена, держим одно соединение.
	// Поэтому внутри транзакции все запросы обязаны идти через tx, иначе взаимоблокировка.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	// Соединение периодически пересоздается
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Ping проверяет, что файл действительно открывается
	if err = sqlDB.Ping(); err != nil {
		sqlDB.Close() // Закрываем пул, если соединение не удалось
		return nil, fmt.Errorf("ошибка при проверке соединения с %s: %w", dataSourceName, err)
	}

	// Диалект gorm получает готовое соединение, свой драйвер он не открывает.
	// Собственный логгер gorm выключен, ошибки логируются вызывающим кодом.
	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ошибка инициализации ORM для %s: %w", dataSourceName, err)
	}
	log.Debug().Str("db_path", dataSourceName).Msg("подключение к базе данных установлено")

	// Создаем недостающие таблицы и индексы. Существующие данные не трогаются.
	if err = db.AutoMigrate(&models.User{}, &models.Artwork{}, &models.Vote{}, &models.Message{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ошибка при создании таблиц: %w", err)
	}
	log.Debug().Msg("таблицы и индексы проверены/созданы")

	return &Store{db: db, sqlDB: sqlDB}, nil
}

// Close закрывает соединение с БД.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Ping проверяет, что БД доступна.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// CreateUser создает пользователя с уже захешированным паролем.
// Занятое имя возвращает ConflictError.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash, role string) (*models.User, error) {
	user := &models.User{Username: username, Password: passwordHash, Role: role}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Проверка и вставка в одной транзакции
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ConflictError{Conflict: fmt.Sprintf("пользователь '%s' уже существует", username)}
		}
		// Уникальный индекс все равно сработает при гонке, wrapError превратит его в ConflictError
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, wrapError(err, "создание пользователя", username)
	}

	log.Info().Str("username", username).Int64("user_id", user.ID).Msg("создан пользователь")
	return user, nil
}

// GetUserByUsername ищет пользователя по имени. Отсутствие - NotFoundError.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, wrapError(err, "поиск пользователя", username)
	}
	return &user, nil
}

// CreateArtwork сохраняет запись о работе. Файл к этому моменту уже лежит в хранилище.
func (s *Store) CreateArtwork(ctx context.Context, artwork *models.Artwork) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Владелец уже существует, ассоциацию не сохраняем (иначе gorm попробует вставить User)
		return tx.Omit(clause.Associations).Create(artwork).Error
	})
	if err != nil {
		return wrapError(err, "создание работы", artwork.Title)
	}

	log.Info().
		Int64("artwork_id", artwork.ID).
		Int64("user_id", artwork.UserID).
		Str("image_url", artwork.ImageURL).
		Msg("работа сохранена")
	return nil
}

// GetArtwork возвращает работу вместе с владельцем.
func (s *Store) GetArtwork(ctx context.Context, id int64) (*models.Artwork, error) {
	var artwork models.Artwork
	// Preload нужен для проверки автора при удалении
	err := s.db.WithContext(ctx).Preload("User").First(&artwork, id).Error
	if err != nil {
		return nil, wrapError(err, "поиск работы", strconv.FormatInt(id, 10))
	}
	return &artwork, nil
}

// ListArtworkStats возвращает работы с именем художника, средней оценкой
// и числом голосов. Пустой artist - все работы.
func (s *Store) ListArtworkStats(ctx context.Context, artist string) ([]models.ArtworkStats, error) {
	// LEFT JOIN голосов: работа без голосов дает AVG = NULL и COUNT = 0
	q := s.db.WithContext(ctx).
		Table("artworks").
		Select(`artworks.id AS id,
			artworks.title AS title,
			users.username AS artist,
			COALESCE(artworks.description, '') AS description,
			artworks.image_url AS image_url,
			AVG(votes.score) AS average_score,
			COUNT(votes.id) AS votes_count`).
		Joins("JOIN users ON users.id = artworks.user_id").
		Joins("LEFT JOIN votes ON votes.artwork_id = artworks.id")
	if artist != "" {
		// Только работы одного художника (для /my-artworks)
		q = q.Where("users.username = ?", artist)
	}

	// Пустой срез, а не nil: в JSON уходит [], а не null
	rows := []models.ArtworkStats{}
	if err := q.Group("artworks.id").Order("artworks.id").Scan(&rows).Error; err != nil {
		return nil, wrapError(err, "список работ", artist)
	}
	return rows, nil
}

// DeleteArtwork удаляет работу в одной транзакции: сначала removeFile
// (удаление файла из хранилища), затем строку. Ошибка removeFile возвращается как есть.
// Голоса и сообщения работы не удаляются.
func (s *Store) DeleteArtwork(ctx context.Context, id int64, removeFile func() error) error {
	var hookErr error // Ошибка хранилища файлов, отдельно от ошибок БД
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if removeFile != nil {
			if hookErr = removeFile(); hookErr != nil {
				return hookErr // Откат: строка остается, если файл удалить не удалось
			}
		}
		res := tx.Delete(&models.Artwork{}, id)
		if res.Error != nil {
			return res.Error
		}
		// Работу успели удалить между проверкой и удалением
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if hookErr != nil {
		return hookErr
	}
	if err != nil {
		return wrapError(err, "удаление работы", strconv.FormatInt(id, 10))
	}

	log.Info().Int64("artwork_id", id).Msg("работа удалена")
	return nil
}

// AddVote добавляет голос и возвращает обновленную среднюю оценку работы.
// Два одновременных голоса - две независимые вставки.
func (s *Store) AddVote(ctx context.Context, artworkID int64, score int) (float64, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Внешнего ключа на votes нет, существование работы проверяем сами
		if err := tx.Select("id").First(&models.Artwork{}, artworkID).Error; err != nil {
			return err
		}
		return tx.Create(&models.Vote{ArtworkID: artworkID, Score: score}).Error
	})
	if err != nil {
		return 0, wrapError(err, "голосование", strconv.FormatInt(artworkID, 10))
	}

	// Среднее считается уже после фиксации, с учетом только что добавленного голоса
	avg, err := s.AverageScore(ctx, artworkID)
	if err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

// AverageScore возвращает среднюю оценку работы (NULL, если голосов нет).
func (s *Store) AverageScore(ctx context.Context, artworkID int64) (sql.NullFloat64, error) {
	var avg sql.NullFloat64
	err := s.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("AVG(score)").
		Where("artwork_id = ?", artworkID).
		Row().
		Scan(&avg)
	if err != nil {
		return sql.NullFloat64{}, wrapError(err, "средняя оценка", strconv.FormatInt(artworkID, 10))
	}
	return avg, nil
}

// CreateMessage сохраняет сообщение, адресованное текущему владельцу работы.
func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Получатель определяется в момент отправки и дальше не меняется
		var artwork models.Artwork
		if err := tx.Select("id", "user_id").First(&artwork, msg.ArtworkID).Error; err != nil {
			return err
		}
		msg.ArtistID = artwork.UserID
		return tx.Omit(clause.Associations).Create(msg).Error
	})
	if err != nil {
		return wrapError(err, "отправка сообщения", strconv.FormatInt(msg.ArtworkID, 10))
	}

	log.Info().
		Int64("message_id", msg.ID).
		Int64("artwork_id", msg.ArtworkID).
		Int64("artist_id", msg.ArtistID).
		Msg("сообщение сохранено")
	return nil
}

// ListMessagesForArtist возвращает все сообщения, адресованные художнику username.
func (s *Store) ListMessagesForArtist(ctx context.Context, username string) ([]models.Message, error) {
	msgs := []models.Message{}
	// Сообщения к уже удаленным работам тоже попадают в выборку
	err := s.db.WithContext(ctx).
		Select("messages.*").
		Joins("JOIN users ON users.id = messages.artist_id").
		Where("users.username = ?", username).
		Order("messages.id").
		Find(&msgs).Error
	if err != nil {
		return nil, wrapError(err, "список сообщений", username)
	}
	return msgs, nil
}
