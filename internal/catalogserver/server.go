// Package catalogserver serves the mock plant catalog REST backend.
// Query params follow json-server conventions (_sort, _order).
package catalogserver

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/abelzeko/plant-manager/internal/entities"
)

//go:embed seed.json
var seedJSON []byte

// Catalog is the data set served by the backend
type Catalog struct {
	Environments []entities.Environment `json:"plants_environments"`
	Plants       []entities.Plant       `json:"plants"`
}

// LoadSeed parses the embedded catalog
func LoadSeed() (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(seedJSON, &c); err != nil {
		return nil, fmt.Errorf("failed to parse seed catalog: %w", err)
	}
	return &c, nil
}

// Server exposes a Catalog over HTTP
type Server struct {
	catalog *Catalog
	router  chi.Router
}

// New creates a catalog server
func New(catalog *Catalog) *Server {
	s := &Server{catalog: catalog}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/plants", s.handlePlants)
	r.Get("/plants/{plantID}", s.handlePlant)
	r.Get("/plants_environments", s.handleEnvironments)

	s.router = r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handlePlants(w http.ResponseWriter, r *http.Request) {
	plants := make([]entities.Plant, len(s.catalog.Plants))
	copy(plants, s.catalog.Plants)

	field := r.URL.Query().Get("_sort")
	desc := strings.EqualFold(r.URL.Query().Get("_order"), "desc")
	switch field {
	case "":
	case "name":
		sortBy(plants, desc, func(i, j int) bool { return plants[i].Name < plants[j].Name })
	case "id":
		sortBy(plants, desc, func(i, j int) bool { return plants[i].ID < plants[j].ID })
	default:
		http.Error(w, "unsupported sort field "+field, http.StatusBadRequest)
		return
	}
	writeJSON(w, plants)
}

func (s *Server) handlePlant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "plantID")
	for _, p := range s.catalog.Plants {
		if p.ID == id {
			writeJSON(w, p)
			return
		}
	}
	http.Error(w, "{}", http.StatusNotFound)
}

func (s *Server) handleEnvironments(w http.ResponseWriter, r *http.Request) {
	envs := make([]entities.Environment, len(s.catalog.Environments))
	copy(envs, s.catalog.Environments)

	field := r.URL.Query().Get("_sort")
	desc := strings.EqualFold(r.URL.Query().Get("_order"), "desc")
	switch field {
	case "":
	case "title":
		sortBy(envs, desc, func(i, j int) bool { return envs[i].Title < envs[j].Title })
	case "key":
		sortBy(envs, desc, func(i, j int) bool { return envs[i].Key < envs[j].Key })
	default:
		http.Error(w, "unsupported sort field "+field, http.StatusBadRequest)
		return
	}
	writeJSON(w, envs)
}

func sortBy(slice interface{}, desc bool, less func(i, j int) bool) {
	if desc {
		sort.SliceStable(slice, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(slice, less)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorf("Failed to encode catalog response: %v", err)
	}
}
