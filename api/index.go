package handler

import (
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/JosephSalisbury/xirivellacal/app"
)

var (
	once   sync.Once
	router http.Handler
)

// setup runs once per function instance. Configuration comes from the
// project's environment variables only.
func setup() {
	cfg, cfgErr := app.LoadConfig("")

	log, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		log = zap.NewNop()
	}

	if cfgErr != nil {
		log.Error("invalid configuration", zap.Error(cfgErr))
		router = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Service misconfigured", http.StatusInternalServerError)
		})
		return
	}

	router = app.NewServer(cfg, app.NewService(cfg, log), log).Router()
}

// Handler is the Vercel serverless function entry point
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	router.ServeHTTP(w, r)
}
