package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classboard/internal/account"
	"classboard/internal/auth"
	"classboard/internal/config"
	"classboard/internal/httpmiddleware"
	"classboard/internal/presence"
	"classboard/internal/queue"
	"classboard/internal/session"
	"classboard/internal/store"
	"classboard/internal/student"
)

const sessionCookie = "session_token"

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	accountsDB, err := store.NewDB(ctx, cfg.AccountsDBURL)
	if err != nil {
		return err
	}
	defer accountsDB.Close()

	studentsDB, err := store.NewDB(ctx, cfg.StudentsDBURL)
	if err != nil {
		return err
	}
	defer studentsDB.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	accounts := account.NewRepository(accountsDB.Client)
	if err := accounts.EnsureSchema(ctx); err != nil {
		return err
	}
	studentRepo := student.NewRepository(studentsDB.Client)
	if err := studentRepo.EnsureSchema(ctx); err != nil {
		return err
	}

	var sessions session.Store
	if cfg.SessionBackend == "memory" {
		sessions = session.NewMemory(cfg.SessionTTL)
	} else {
		sessions = session.NewRedisStore(redisClient.Client, cfg.SessionTTL)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classboard:auth-events")
	}

	hub := presence.NewHub()
	counter := presence.NewCounter(hub)
	counter.Reset()
	go hub.Run()

	authSvc := auth.NewService(accounts, sessions, counter, queue.NewRecorder(q))
	students := student.NewService(studentRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.LoadHTMLGlob("web/templates/*.html")

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy})
	})

	// currentSession resolves the cookie to live session attributes,
	// nil when absent or expired.
	currentSession := func(c *gin.Context) *session.Attrs {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			return nil
		}
		attrs, err := sessions.Get(c.Request.Context(), token)
		if err != nil {
			log.Printf("session lookup failed: %v", err)
			return nil
		}
		return attrs
	}

	home := func(c *gin.Context) {
		attrs := currentSession(c)
		if attrs == nil {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		c.HTML(http.StatusOK, "home.html", gin.H{
			"Username": attrs.Username,
			"Count":    counter.Current(),
		})
	}
	r.GET("/", home)
	r.POST("/", home)

	r.GET("/login", func(c *gin.Context) {
		if currentSession(c) != nil {
			c.Redirect(http.StatusFound, "/")
			return
		}
		c.HTML(http.StatusOK, "login.html", nil)
	})

	r.POST("/login", func(c *gin.Context) {
		email := c.PostForm("email")
		password := c.PostForm("password")

		grant, err := authSvc.Login(c.Request.Context(), email, password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				// Failed logins land on registration, not back on the
				// login form.
				c.Redirect(http.StatusFound, "/sign_up")
				return
			}
			log.Printf("login failed: %v", err)
			c.String(http.StatusInternalServerError, "login failed: %v", err)
			return
		}

		setSessionCookie(c, grant.Token, cfg.SessionTTL)
		c.Redirect(http.StatusFound, "/")
	})

	logout := func(c *gin.Context) {
		if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
			if err := authSvc.Logout(c.Request.Context(), token); err != nil {
				log.Printf("logout failed: %v", err)
			}
		}
		clearSessionCookie(c)
		c.Redirect(http.StatusFound, "/login")
	}
	r.GET("/logout", logout)
	r.POST("/logout", logout)

	r.GET("/sign_up", func(c *gin.Context) {
		c.HTML(http.StatusOK, "sign_up.html", nil)
	})

	r.POST("/sign_up", func(c *gin.Context) {
		username := c.PostForm("usr_name")
		email := c.PostForm("email")
		password := c.PostForm("password")

		grant, err := authSvc.SignUp(c.Request.Context(), username, email, password)
		if err != nil {
			if errors.Is(err, auth.ErrConflict) {
				c.Redirect(http.StatusFound, "/login")
				return
			}
			log.Printf("sign up failed: %v", err)
			c.String(http.StatusInternalServerError, "error occurred while adding user: %v", err)
			return
		}

		setSessionCookie(c, grant.Token, cfg.SessionTTL)
		c.Redirect(http.StatusFound, "/")
	})

	accountView := func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, "/login")
			return
		}

		if c.Request.Method == http.MethodPost {
			if _, ok := c.GetPostForm("update"); ok {
				err := authSvc.UpdateAccount(c.Request.Context(), token, c.PostForm("usr_name"), c.PostForm("password"))
				if err != nil {
					if errors.Is(err, auth.ErrNoSession) {
						c.Redirect(http.StatusFound, "/login")
						return
					}
					log.Printf("account update failed: %v", err)
					c.String(http.StatusInternalServerError, "account update failed")
					return
				}
				c.Redirect(http.StatusFound, "/account")
				return
			}
			if _, ok := c.GetPostForm("delete"); ok {
				err := authSvc.DeleteAccount(c.Request.Context(), token)
				if err != nil && !errors.Is(err, auth.ErrNoSession) {
					log.Printf("account delete failed: %v", err)
					c.String(http.StatusInternalServerError, "account delete failed")
					return
				}
				clearSessionCookie(c)
				c.Redirect(http.StatusFound, "/sign_up")
				return
			}
		}

		acc, err := authSvc.CurrentAccount(c.Request.Context(), token)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		c.HTML(http.StatusOK, "account.html", gin.H{"User": acc})
	}
	r.GET("/account", accountView)
	r.POST("/account", accountView)

	databaseView := func(c *gin.Context) {
		if currentSession(c) == nil {
			c.Redirect(http.StatusFound, "/login")
			return
		}

		if c.Request.Method == http.MethodPost {
			if _, ok := c.GetPostForm("add"); ok {
				age, err := strconv.Atoi(c.PostForm("age"))
				if err != nil || age < 0 {
					c.String(http.StatusBadRequest, "invalid age")
					return
				}
				rec := student.Record{
					Name:        c.PostForm("name"),
					Surname:     c.PostForm("surname"),
					FathersName: c.PostForm("fathers_name"),
					Age:         age,
					Email:       c.PostForm("email"),
				}
				if _, err := students.Add(c.Request.Context(), rec); err != nil {
					log.Printf("add student failed: %v", err)
					c.String(http.StatusInternalServerError, "add failed")
					return
				}
			} else if _, ok := c.GetPostForm("edit"); ok {
				id, idErr := strconv.ParseInt(c.PostForm("student_id"), 10, 64)
				age, ageErr := strconv.Atoi(c.PostForm("age"))
				if idErr == nil && ageErr == nil && age >= 0 {
					rec := student.Record{
						ID:          id,
						Name:        c.PostForm("name"),
						Surname:     c.PostForm("surname"),
						FathersName: c.PostForm("fathers_name"),
						Age:         age,
						Email:       c.PostForm("email"),
					}
					// Missing ids are a silent no-op.
					if err := students.Edit(c.Request.Context(), rec); err != nil {
						log.Printf("edit student failed: %v", err)
						c.String(http.StatusInternalServerError, "edit failed")
						return
					}
				}
			} else if _, ok := c.GetPostForm("delete"); ok {
				if id, err := strconv.ParseInt(c.PostForm("student_id"), 10, 64); err == nil {
					if err := students.Delete(c.Request.Context(), id); err != nil {
						log.Printf("delete student failed: %v", err)
						c.String(http.StatusInternalServerError, "delete failed")
						return
					}
				}
			}
			c.Redirect(http.StatusFound, "/database")
			return
		}

		records, err := students.List(c.Request.Context())
		if err != nil {
			log.Printf("list students failed: %v", err)
			c.String(http.StatusInternalServerError, "listing failed")
			return
		}
		c.HTML(http.StatusOK, "database.html", gin.H{"Students": records})
	}
	r.GET("/database", databaseView)
	r.POST("/database", databaseView)

	r.GET("/ws", func(c *gin.Context) {
		hub.HandleConnection(c.Writer, c.Request)
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetCookie(sessionCookie, token, int(ttl.Seconds()), "/", "", false, true)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
