package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"NewsBot/internal/session"
)

// Handler обрабатывает текст сообщения в рамках сессии
type Handler interface {
	Handle(ctx context.Context, key session.Key, text string, r session.Replier)
}

// MessageRequest тело запроса с текстом сообщения
type MessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// ReplyDTO один ответ контроллера
type ReplyDTO struct {
	Text           string `json:"text"`
	ShowMenu       bool   `json:"show_menu,omitempty"`
	DisablePreview bool   `json:"disable_preview,omitempty"`
}

// MessageResponse ответы на сообщение в порядке отправки
type MessageResponse struct {
	Session string     `json:"session"`
	Replies []ReplyDTO `json:"replies"`
}

// Server HTTP интерфейс к тому же контроллеру сессий, что и у бота
type Server struct {
	engine  *gin.Engine
	handler Handler
	log     *zap.Logger
}

// New создает HTTP сервер. Пустой allowOrigins разрешает все источники.
func New(handler Handler, allowOrigins []string, log *zap.Logger) *Server {
	s := &Server{
		engine:  gin.New(),
		handler: handler,
		log:     log.Named("http"),
	}

	config := cors.DefaultConfig()
	if len(allowOrigins) == 0 || (len(allowOrigins) == 1 && allowOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}

	s.engine.Use(gin.Recovery(), s.logRequests(), cors.New(config))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	api := s.engine.Group("/api/v1")
	{
		api.POST("/sessions/:id/messages", s.postMessage)
	}
}

// Handler возвращает http.Handler сервера
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run слушает addr до отмены ctx
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP сервер запущен", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http сервер")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "остановка http сервера")
		}
		s.log.Info("HTTP сервер остановлен")
		return nil
	}
}

func (s *Server) postMessage(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty session id"})
		return
	}

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	collector := &replyCollector{}
	s.handler.Handle(c.Request.Context(), session.Key("http:"+id), req.Text, collector)

	c.JSON(http.StatusOK, MessageResponse{
		Session: id,
		Replies: collector.dto(),
	})
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("HTTP запрос",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// replyCollector собирает ответы контроллера для JSON ответа
type replyCollector struct {
	mu      sync.Mutex
	replies []session.Reply
}

func (r *replyCollector) Reply(ctx context.Context, reply session.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
	return nil
}

func (r *replyCollector) dto() []ReplyDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ReplyDTO, 0, len(r.replies))
	for _, reply := range r.replies {
		out = append(out, ReplyDTO{
			Text:           reply.Text,
			ShowMenu:       reply.ShowMenu,
			DisablePreview: reply.DisablePreview,
		})
	}
	return out
}
