package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/generator"
	"server/internal/infra"
	"server/internal/jobstore"
	"server/internal/providers/title"
)

// App is the handler container holding the service dependencies.
type App struct {
	Generator *generator.Service
	Store     jobstore.Store
	Titles    title.Refiner
	Logger    infra.Logger
}

// NewApp wires the handler container.
func NewApp(gen *generator.Service, store jobstore.Store, titles title.Refiner, logger infra.Logger) *App {
	return &App{Generator: gen, Store: store, Titles: titles, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorEnvelope{Success: false, Code: kind, Message: message})
}
