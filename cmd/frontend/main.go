package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/maxence-charriere/go-app/v9/pkg/app"
	log "github.com/sirupsen/logrus"

	"taskboard/ui"
)

func main() {
	// Routes are registered on both sides: in the browser they drive the
	// wasm views, on the server they let the handler pre-render routes.
	app.Route("/", &ui.TaskListPage{})
	app.Route("/login", &ui.LoginPage{})
	app.Route("/signup", &ui.SignupPage{})

	app.RunWhenOnBrowser()

	_ = godotenv.Load()

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	handler := &app.Handler{
		Name:        "Taskboard",
		Description: "Multi-user task tracker",
		Styles: []string{
			"/web/app.css",
		},
		Env: map[string]string{
			"API_URL": apiURL,
		},
	}

	listenAddr := ":3000"
	if port := os.Getenv("FRONTEND_PORT"); port != "" {
		listenAddr = ":" + port
	}

	srv := &http.Server{Addr: listenAddr, Handler: handler}
	go func() {
		log.Infof("serving frontend on %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("frontend server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("frontend shutdown: %v", err)
	}
}
