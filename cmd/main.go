package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"conversation-recall/pkg/api"
	"conversation-recall/pkg/config"
	"conversation-recall/pkg/llm"
	"conversation-recall/pkg/storage"
	"conversation-recall/pkg/transcribe"

	"github.com/gorilla/mux"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize the durable person store
	store, closeStore, err := storage.NewDiskStore(cfg.StoragePath)
	if err != nil {
		log.Fatalf("Failed to initialize person store: %v", err)
	}
	defer closeStore()

	// External collaborators
	gateway := transcribe.NewHTTPGateway(cfg.Speech.URL, cfg.Speech.APIKey,
		transcribe.WithTimeout(cfg.Speech.Timeout))

	extractor, err := llm.NewOpenAIExtractor(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
	if err != nil {
		log.Fatalf("Failed to initialize extraction collaborator: %v", err)
	}

	// API handlers
	handlers := api.NewHandlers(cfg.Session, gateway, extractor, store)

	// Setup routes
	router := mux.NewRouter()
	router.HandleFunc("/people", handlers.ListPeopleHandler).Methods("GET")
	router.HandleFunc("/people/{id}", handlers.GetPersonHandler).Methods("GET")
	router.HandleFunc("/ws", handlers.WebSocketHandler)

	// Start HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
