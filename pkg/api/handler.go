package api

import (
	"encoding/json"
	"log"
	"net/http"

	"conversation-recall/pkg/config"
	"conversation-recall/pkg/llm"
	"conversation-recall/pkg/storage"
	"conversation-recall/pkg/transcribe"

	"github.com/gorilla/mux"
)

type Handlers struct {
	sessionCfg config.SessionConfig
	gateway    transcribe.Gateway
	extractor  llm.Extractor
	store      storage.PersonStore
}

func NewHandlers(sessionCfg config.SessionConfig, gateway transcribe.Gateway, extractor llm.Extractor, store storage.PersonStore) *Handlers {
	return &Handlers{
		sessionCfg: sessionCfg,
		gateway:    gateway,
		extractor:  extractor,
		store:      store,
	}
}

func (h *Handlers) ListPeopleHandler(w http.ResponseWriter, r *http.Request) {
	people, err := h.store.List()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"people": people,
		"count":  len(people),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *Handlers) GetPersonHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idOrName := vars["id"]

	person, err := h.store.Get(idOrName)
	if err != nil {
		if err == storage.ErrPersonNotFound {
			http.Error(w, "Person not found", http.StatusNotFound)
			return
		}
		log.Printf("Handlers: person lookup failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(person)
}
