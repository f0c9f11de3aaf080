package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/learnhall/learnhall-lms/internal/analytics"
	api "github.com/learnhall/learnhall-lms/internal/api/http"
	"github.com/learnhall/learnhall-lms/internal/auth"
	"github.com/learnhall/learnhall-lms/internal/config"
	"github.com/learnhall/learnhall-lms/internal/course"
	"github.com/learnhall/learnhall-lms/internal/db"
	"github.com/learnhall/learnhall-lms/internal/grading"
	"github.com/learnhall/learnhall-lms/internal/progress"
	"github.com/learnhall/learnhall-lms/internal/rbac"
)

func main() {
	cfg := config.FromEnv()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Error("db open failed", "err", err)
		os.Exit(1)
	}
	if err := ensureAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Error("admin bootstrap failed", "err", err)
		os.Exit(1)
	}

	store := course.NewSQLStore(dbh, cfg.DBDriver)
	grader := grading.NewGrader()
	tracker := progress.NewTracker(store)
	engine := analytics.NewEngine(store)
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT -> subject/role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(store))
		pr.With(rbac.Require("course:view")).
			Get("/courses", api.ListCoursesHandler(store))
		pr.With(rbac.Require("course:view")).
			Get("/courses/{courseID}", api.GetCourseHandler(store))

		// Enrollment flow
		pr.With(rbac.Require("enroll:request")).
			Post("/courses/{courseID}/enroll", api.EnrollHandler(store))
		pr.With(rbac.RequireAny("enroll:manage", "analytics:view")).
			Get("/courses/{courseID}/enrollments", api.ListEnrollmentsHandler(store))
		pr.With(rbac.Require("enroll:manage")).
			Put("/courses/{courseID}/enrollments/{studentID}", api.SetEnrollmentStatusHandler(store))

		// Student flow
		pr.With(rbac.Require("attempt:submit")).
			Post("/courses/{courseID}/quizzes/{quizID}/submit", api.SubmitQuizHandler(store, grader))
		pr.With(rbac.Require("attempt:submit")).
			Get("/courses/{courseID}/quizzes/{quizID}/attempt", api.GetAttemptHandler(store))
		pr.With(rbac.Require("lesson:complete")).
			Post("/courses/{courseID}/lessons/{lessonID}/complete", api.MarkCompleteHandler(store, tracker))
		pr.With(rbac.Require("progress:view")).
			Get("/courses/{courseID}/progress", api.GetProgressHandler(store))
		pr.With(rbac.Require("grades:view")).
			Get("/courses/{courseID}/grades", api.GradeSummaryHandler(store))

		// Educator analytics (instructor membership checked in the engine)
		pr.With(rbac.Require("analytics:view")).
			Get("/courses/{courseID}/analytics", api.AnalyticsHandler(store, engine))

		pr.With(rbac.Require("notifications:view")).
			Get("/notifications", api.ListNotificationsHandler(store))
		pr.With(rbac.Require("notifications:view")).
			Post("/notifications/{notificationID}/read", api.MarkNotificationReadHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("gateway listening", "addr", cfg.HTTPAddr, "mode", string(cfg.Mode))
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// ensureAdmin seeds the bootstrap admin account on first start.
func ensureAdmin(ctx context.Context, dbh *sql.DB, username, passHash string) error {
	var exist int
	err := dbh.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, username).Scan(&exist)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = dbh.ExecContext(ctx, `INSERT INTO users (id,username,password_hash,role,created_at)
		VALUES ($1,$2,$3,'admin',$4)`,
		uuid.NewString(), username, passHash, time.Now().Unix())
	return err
}
