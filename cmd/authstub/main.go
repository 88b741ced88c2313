// Command authstub serves an in-memory Auth API for local development of
// the storefront.  It seeds one account per role.
package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/authapi/authapitest"
	"github.com/oakline/storefront/internal/config"
	"github.com/oakline/storefront/internal/model"
)

var seeds = []struct {
	name, email string
	role        model.Role
}{
	{"Ada Admin", "admin@oakline.test", model.RoleAdmin},
	{"Sam Staff", "staff@oakline.test", model.RoleStaff},
	{"Uma User", "user@oakline.test", model.RoleUser},
	{"Pia Premium", "premium@oakline.test", model.RolePremium},
}

func main() {
	_ = godotenv.Load()
	logger, err := config.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	secret := os.Getenv("AUTHSTUB_SECRET")
	if secret == "" {
		secret = "authstub-dev-secret"
	}
	password := os.Getenv("AUTHSTUB_PASSWORD")
	if password == "" {
		password = "password123"
	}
	port := os.Getenv("AUTHSTUB_PORT")
	if port == "" {
		port = "9090"
	}

	srv := authapitest.New(authapitest.Options{
		Secret:              secret,
		TokenTTL:            24 * time.Hour,
		RegisterIssuesToken: os.Getenv("AUTHSTUB_REGISTER_LOGIN") != "false",
	})
	for _, s := range seeds {
		if _, err := srv.AddUser(s.name, s.email, password, s.role); err != nil {
			logger.Fatal("seed user", zap.String("email", s.email), zap.Error(err))
		}
		logger.Info("seeded", zap.String("email", s.email), zap.Stringer("role", s.role))
	}

	addr := ":" + port
	logger.Info("auth stub listening", zap.String("addr", addr))
	hs := &http.Server{Addr: addr, Handler: srv, ReadHeaderTimeout: 5 * time.Second}
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("auth stub failed", zap.Error(err))
	}
}
