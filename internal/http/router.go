package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	var counter SessionCounter
	if c, ok := cfg.Sessions.(SessionCounter); ok {
		counter = c
	}
	health := NewHealthController(cfg.Health, counter, cfg.Version)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	books := NewBooksController(cfg.Store, cfg.Resolver, cfg.Importer)
	deletes := NewDeleteController(cfg.Store, cfg.ClipCache)
	router.GET("/api/books", books.GetAllBooks)
	router.POST("/api/books", books.ImportBook)
	router.GET("/api/books/:id", books.GetBook)
	router.GET("/api/books/:id/pages", books.GetPages)
	router.DELETE("/api/books/:id", deletes.DeleteBook)

	// Reader session endpoints
	if cfg.Sessions != nil {
		sessions := NewSessionsController(cfg.Sessions)
		router.POST("/api/books/:id/sessions", sessions.OpenSession)
		router.GET("/api/sessions", sessions.ListSessions)
		router.GET("/api/sessions/:sid", sessions.GetSession)
		router.DELETE("/api/sessions/:sid", sessions.CloseSession)
		router.GET("/api/sessions/:sid/events", sessions.Events)
		router.POST("/api/sessions/:sid/start", sessions.Start)
		router.POST("/api/sessions/:sid/pause", sessions.TogglePause)
		router.POST("/api/sessions/:sid/finish", sessions.Finish)
		router.POST("/api/sessions/:sid/next", sessions.NextPage)
		router.POST("/api/sessions/:sid/prev", sessions.PrevPage)
		router.POST("/api/sessions/:sid/pages/:index", sessions.GoToPage)
	}

	// Task management endpoints
	if cfg.TaskRunner != nil {
		tasks := NewTasksController(cfg.TaskRunner)
		router.GET("/api/tasks/:id", tasks.GetTaskStatus)
		router.POST("/api/tasks/:type/run", tasks.RunTask)
	}

	return router
}
