package models

import (
	"database/sql"
)

// User - зарегистрированный пользователь (таблица 'users').
// Пароль хранится только в виде bcrypt-хеша и никогда не отдается клиенту.
type User struct {
	ID       int64  `gorm:"primaryKey"                         json:"id"`
	Username string `gorm:"size:80;not null;uniqueIndex"       json:"username"`
	Password string `gorm:"size:120;not null"                  json:"-"`
	Role     string `gorm:"size:20;not null"                   json:"role"`
}

// Artwork - загруженная работа (таблица 'artworks').
// Владелец хранится внешним ключом UserID, имя художника подтягивается JOIN'ом при чтении.
// ImageURL - место хранения файла: путь на диске или ключ объекта в MinIO.
type Artwork struct {
	ID          int64  `gorm:"primaryKey"`
	Title       string `gorm:"size:100;not null"`
	UserID      int64  `gorm:"not null;index"`
	User        User   `gorm:"constraint:OnDelete:RESTRICT"`
	Description string `gorm:"type:text"`
	ImageURL    string `gorm:"column:image_url;size:200;not null"`
}

// Vote - одна оценка 1-5 (таблица 'votes').
// Внешнего ключа нет: при удалении работы голоса остаются в таблице.
type Vote struct {
	ID        int64 `gorm:"primaryKey"`
	ArtworkID int64 `gorm:"not null;index"`
	Score     int   `gorm:"not null"`
}

// Message - обращение посетителя к художнику (таблица 'messages').
// ArtistID - владелец работы на момент отправки сообщения.
type Message struct {
	ID          int64  `gorm:"primaryKey"                    json:"id"`
	ArtworkID   int64  `gorm:"not null;index"                json:"artwork_id"`
	SenderName  string `gorm:"size:100;not null"             json:"sender_name"`
	SenderPhone string `gorm:"size:15;not null"              json:"sender_phone"`
	Text        string `gorm:"column:message;type:text;not null" json:"message"`
	ArtistID    int64  `gorm:"not null;index"                json:"-"`
	Artist      User   `gorm:"foreignKey:ArtistID;constraint:OnDelete:RESTRICT" json:"-"`
}

// ArtworkStats - строка выборки работ вместе с именем художника и агрегатами голосов.
// AverageScore невалиден (NULL), если голосов нет.
type ArtworkStats struct {
	ID           int64
	Title        string
	Artist       string
	Description  string
	ImageURL     string `gorm:"column:image_url"`
	AverageScore sql.NullFloat64
	VotesCount   int64
}

// ArtworkResponse - публичное представление работы в GET /artworks.
type ArtworkResponse struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Description  string  `json:"description"`
	ImageURL     string  `json:"image_url"`
	AverageScore float64 `json:"average_score"`
	VotesCount   int64   `json:"votes_count"`
}

// MyArtworkResponse - то же для GET /my-artworks, но средняя оценка
// без округления и null, если голосов нет.
type MyArtworkResponse struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"image_url"`
	AverageScore *float64 `json:"average_score"`
	VotesCount   int64    `json:"votes_count"`
}
