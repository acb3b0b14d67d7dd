package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"tourbook/internal/config"
	api "tourbook/internal/http"
	"tourbook/internal/imaging"
	"tourbook/internal/mail"
	"tourbook/internal/payment"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	db, err := config.OpenDB(env.DBDSN)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	var mailer mail.Mailer = mail.LogMailer{}
	if env.SMTPHost != "" {
		mailer = mail.SMTPMailer{
			Host: env.SMTPHost,
			Port: env.SMTPPort,
			User: env.SMTPUser,
			Pass: env.SMTPPass,
			From: env.MailFrom,
		}
	}

	r := api.NewRouter(api.Deps{
		Env:      env,
		DB:       db,
		Mailer:   mailer,
		Resizer:  imaging.NopResizer{},
		Provider: payment.LocalProvider{},
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Fatal conditions drain in-flight requests instead of aborting.
	fatal := make(chan error, 1)
	go func() {
		log.Printf("Server listening on http://localhost%s (%s)", env.AppAddr, env.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("Received %s, shutting down...", sig)
	case err := <-fatal:
		log.Printf("Server error: %v, shutting down...", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Shutdown failed: %v", err)
	}

	log.Println("Server stopped cleanly.")
}
