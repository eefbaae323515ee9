package router

import (
	"artshowcase/internal/auth"
	"artshowcase/internal/handlers"
	"artshowcase/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Options - параметры построения движка gin.
type Options struct {
	CORSOrigin    string
	MaxUploadSize int64
}

// New собирает gin.Engine со всеми маршрутами API.
func New(h *handlers.Handler, tokens middleware.TokenParser, opts Options) *gin.Engine {
	router := gin.New()
	// Логгер снаружи: ответ 500 после паники фиксируется в логе запросов
	router.Use(middleware.RequestLogger(), middleware.Recovery(), middleware.CORS(opts.CORSOrigin))

	// Часть multipart-формы сверх этого размера уходит во временные файлы.
	if opts.MaxUploadSize > 0 {
		router.MaxMultipartMemory = opts.MaxUploadSize
	}

	requireAuth := middleware.AuthRequired(tokens)
	artistOnly := func(message string) gin.HandlerFunc {
		return middleware.RoleRequired(auth.RoleArtist, message)
	}

	// Публичные маршруты
	router.GET("/", h.Home)
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.GET("/artworks", h.ListArtworks)
	router.POST("/artworks/:id/vote", h.Vote)
	router.POST("/artworks/:id/contact", h.Contact)
	router.GET("/uploads/:filename", h.ServeUpload)

	// Маршруты с токеном
	protected := router.Group("/")
	protected.Use(requireAuth)
	{
		protected.GET("/user-role", h.UserRole)
		protected.GET("/my-artworks", artistOnly("Доступ запрещен. Только художники могут просматривать свои работы"), h.ListMyArtworks)
		protected.POST("/artworks", artistOnly("Доступ запрещен. Только художники могут добавлять работы"), h.CreateArtwork)
		protected.DELETE("/artworks/:id", h.DeleteArtwork)

		// Два адреса, один запрос
		protected.GET("/messages", artistOnly("Доступ запрещен. Только художники могут просматривать сообщения"), h.ListMessages)
		protected.GET("/notifications", artistOnly("Доступ запрещен. Только художники могут просматривать уведомления"), h.ListMessages)
	}

	return router
}
