package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduglobe/internal/api"
	"eduglobe/internal/exchange"
	"eduglobe/internal/gemini"
	"eduglobe/internal/middleware"
	"eduglobe/internal/translation"
	"eduglobe/pkg/config"

	"github.com/sirupsen/logrus"
)

func main() {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	cfg := config.LoadConfig()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if cfg.GeminiAPIKey == "" {
		logrus.Warn("GEMINI_API_KEY не задан: все запросы будут завершаться ошибкой 500")
	}

	ctx := context.Background()

	var translator translation.Translator
	translationService, err := translation.NewService(ctx, cfg)
	if err != nil {
		logrus.Warnf("Не удалось инициализировать сервис перевода, тексты передаются без перевода: %v", err)
		translator = translation.Identity{}
	} else {
		translator = translationService
	}

	geminiService := gemini.NewService(cfg)
	exchangeService := exchange.NewService(translator, geminiService, cfg.GeminiAPIKey != "", cfg.RequestTimeout)
	apiHandler := api.NewHandler(exchangeService)

	mux := http.NewServeMux()
	mux.Handle("/api/sendMessage", middleware.CORSMiddleware(http.HandlerFunc(apiHandler.SendMessageHandler), cfg.AllowedOrigin))
	mux.HandleFunc("/healthz", apiHandler.HealthHandler)

	server := &http.Server{
		Addr:			cfg.ServerHost + ":" + cfg.ServerPort,
		Handler:		middleware.LoggingMiddleware(mux),
		ReadHeaderTimeout:	10 * time.Second,
	}

	go func() {
		logrus.Infof("Сервер запущен на %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Ошибка при запуске сервера: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Завершение работы сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Ошибка при остановке сервера: %v", err)
	}

	logrus.Info("Сервер остановлен")
}
