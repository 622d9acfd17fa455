// Package server wires the HTTP surface: websocket editing sessions, snapshot
// and render endpoints, session tokens and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inamate/inamate/diagram-go/internal/auth"
	"github.com/inamate/inamate/diagram-go/internal/collab"
	"github.com/inamate/inamate/diagram-go/internal/config"
	"github.com/inamate/inamate/diagram-go/internal/editor"
	"github.com/inamate/inamate/diagram-go/internal/export"
	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/snapshot"
	"github.com/inamate/inamate/diagram-go/internal/txn"
	"github.com/inamate/inamate/diagram-go/internal/typeid"
)

// Server owns the long-lived components behind the router.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     snapshot.Store
	autosaver *snapshot.Autosaver
	hub       *collab.Hub
	auth      *auth.Service
	registry  *prometheus.Registry
}

// New builds the server over store. Run must be running before Close is called.
func New(cfg *config.Config, store snapshot.Store, logger *slog.Logger) (*Server, error) {
	authService, err := auth.NewService(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	var reg prometheus.Registerer
	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		reg = registry
	}

	autosaver := snapshot.NewAutosaver(store,
		snapshot.WithAutosaveLogger(logger.With("component", "autosave")),
		snapshot.WithOnSaved(func(docID string, version int64) {
			logger.Debug("snapshot saved", "doc", docID, "version", version)
		}),
	)

	hub := collab.NewHub(store,
		collab.WithLogger(logger.With("component", "collab")),
		collab.WithAutosaver(autosaver),
		collab.WithMetrics(collab.NewMetrics(reg)),
		collab.WithEditorOptions(
			editor.WithStrict(cfg.Strict()),
			editor.WithAngleStep(cfg.AngleStep),
			editor.WithLogger(logger.With("component", "editor")),
			editor.WithTxOptions(
				txn.WithMaxIterations(cfg.MaxConstraintIterations),
				txn.WithHistoryLimit(cfg.HistoryLimit),
				txn.WithMetrics(txn.NewMetrics(reg)),
			),
		),
	)

	return &Server{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		autosaver: autosaver,
		hub:       hub,
		auth:      authService,
		registry:  registry,
	}, nil
}

// Run runs the hub loop until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// Close stops the hub and writes every pending snapshot.
func (s *Server) Close(ctx context.Context) error {
	s.hub.Stop()
	err := s.autosaver.Flush(ctx)
	s.autosaver.Close()
	return err
}

func (s *Server) Router() http.Handler {
	authHandler := auth.NewHandler(s.auth, auth.DefaultTTL, s.logger)
	exportHandler := export.NewHandler(s.store, s.logger)

	r := mux.NewRouter()
	r.Use(Recovery(s.logger))
	r.Use(Logger(s.logger))
	r.Use(CORS(s.cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")
	}

	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")
	r.Handle("/auth/me", s.auth.AuthMiddleware(http.HandlerFunc(authHandler.Me))).Methods("GET")

	r.Handle("/docs", s.auth.AuthMiddleware(http.HandlerFunc(s.createDocument))).Methods("POST")

	r.HandleFunc("/docs/{docId}/snapshot", exportHandler.Snapshot).Methods("GET")
	r.HandleFunc("/docs/{docId}/render.png", exportHandler.RenderPNG).Methods("GET")

	r.Handle("/ws/doc/{docId}", s.auth.OptionalMiddleware(http.HandlerFunc(s.handleWebSocket)))

	return r
}

type createDocumentRequest struct {
	Name   string `json:"name"`
	Sample bool   `json:"sample"`
}

type createDocumentResponse struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
}

// createDocument stores a new empty (or sample) document.
func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	var st *scene.Store
	if req.Sample {
		st = scene.NewSampleDocument()
	} else {
		st = scene.NewDocument(req.Name)
	}
	if req.Name != "" {
		st.Name = req.Name
	}

	data, err := st.Snapshot()
	if err != nil {
		s.logger.Error("encode new document", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	version, err := s.store.Save(r.Context(), st.ID, data)
	if err != nil {
		s.logger.Error("save new document", "doc", st.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, createDocumentResponse{ID: st.ID, Version: version})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["docId"]
	if err := typeid.Validate(docID, typeid.PrefixDocument); err != nil {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return
	}

	userID, displayName := "anon-"+uuid.New().String()[:8], "Anonymous"
	if user := auth.UserFromContext(r.Context()); user != nil {
		userID, displayName = user.ID, user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.Origins(),
	})
	if err != nil {
		s.logger.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(s.hub, conn, userID, displayName, docID, uuid.New().String())
	s.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully: the
// HTTP server first, then the hub, then pending snapshots.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(context.WithoutCancel(ctx))
	defer stopHub()
	go s.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "backend", s.cfg.SnapshotBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			s.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", "error", err)
	}
	s.logger.Info("saving pending snapshots")
	return s.Close(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
