// Package router wires every handler into the HTTP surface.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/certlab/certlab-backend/internal/config"
	"github.com/certlab/certlab-backend/internal/handler"
	"github.com/certlab/certlab-backend/internal/middleware"
	"github.com/certlab/certlab-backend/internal/response"
	"github.com/certlab/certlab-backend/internal/service"
	"github.com/certlab/certlab-backend/internal/websocket"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	Content *handler.ContentHandler
	Code    *handler.CodeHandler
	Take    *handler.TakeHandler
	WS      *websocket.SessionHandler
}

// New builds the Gin engine with all routes and middleware attached.
func New(cfg *config.Config, auth *service.AuthService, h Handlers, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(response.RequestIDMiddleware())
	r.Use(middleware.RequestLogger(log))
	r.Use(corsMiddleware(cfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Credential endpoints get a tight bucket; the session endpoints a
	// looser one.
	authLimiter := middleware.NewRateLimiter(1, 10)
	takeLimiter := middleware.NewRateLimiter(10, 30)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authLimiter.Middleware(), h.Auth.Register)
		authGroup.POST("/login", authLimiter.Middleware(), h.Auth.Login)
		authGroup.POST("/logout", middleware.RequireJWT(auth), h.Auth.Logout)
		authGroup.GET("/me", middleware.RequireJWT(auth), h.Auth.Me)
	}

	creator := api.Group("")
	creator.Use(middleware.RequireJWT(auth), middleware.RequireCreator())
	{
		creator.GET("/exams", h.Exam.List)
		creator.POST("/exams", h.Exam.Create)
		creator.GET("/exams/:exam_id", h.Exam.Get)
		creator.PUT("/exams/:exam_id", h.Exam.Update)
		creator.DELETE("/exams/:exam_id", h.Exam.Delete)
		creator.POST("/exams/:exam_id/publish", h.Exam.Publish)
		creator.POST("/exams/:exam_id/archive", h.Exam.Archive)
		creator.GET("/exams/:exam_id/results", h.Exam.Results)

		creator.GET("/exams/:exam_id/subjects", h.Content.ListSubjects)
		creator.POST("/exams/:exam_id/subjects", h.Content.CreateSubject)
		creator.PUT("/subjects/:subject_id", h.Content.UpdateSubject)
		creator.DELETE("/subjects/:subject_id", h.Content.DeleteSubject)
		creator.GET("/subjects/:subject_id/questions", h.Content.ListQuestions)
		creator.POST("/subjects/:subject_id/questions", h.Content.CreateQuestion)
		creator.PUT("/questions/:question_id", h.Content.UpdateQuestion)
		creator.DELETE("/questions/:question_id", h.Content.DeleteQuestion)

		creator.GET("/exams/:exam_id/codes", h.Code.List)
		creator.POST("/exams/:exam_id/codes", h.Code.Generate)
		creator.POST("/exams/:exam_id/codes/bulk", h.Code.GenerateBulk)
		creator.DELETE("/codes/:code_id", h.Code.Revoke)
	}

	take := api.Group("/take")
	take.Use(middleware.RequireJWT(auth), takeLimiter.Middleware())
	{
		take.GET("/exams/:exam_id/verify", h.Take.Verify)
		take.GET("/exams/:exam_id/paper", h.Take.Paper)
		take.POST("/exams/:exam_id/start", h.Take.Start)
		take.GET("/exams/:exam_id/result", h.Take.Result)
		take.GET("/attempts/:attempt_id/state", h.Take.State)
		take.POST("/attempts/:attempt_id/answers", h.Take.SaveAnswer)
		take.POST("/attempts/:attempt_id/submit", h.Take.Submit)
		take.GET("/attempts/:attempt_id/ws", h.WS.Serve)
		take.GET("/results", h.Take.History)
	}

	return r
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(corsCfg)
}
