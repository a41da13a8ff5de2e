package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-asset/pkg/simpleasset"
	"github.com/tendant/simple-asset/pkg/simpleasset/config"
)

// EnvConfig holds the process-level settings read before the service
// configuration is assembled.
type EnvConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	EnvPrefix   string `env:"ASSET_ENV_PREFIX" env-default:"ASSET_"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var env EnvConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("failed to read environment", "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(config.WithEnv(env.EnvPrefix))
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	cfg.Port = env.Port
	cfg.Environment = env.Environment

	if cfg.DatabaseType == "postgres" {
		if err := config.PingPostgres(cfg.DatabaseURL, cfg.DBSchema); err != nil {
			slog.Error("postgres not reachable", "err", err)
			os.Exit(1)
		}
	}

	svc, err := cfg.BuildService()
	if err != nil {
		slog.Error("failed to build service", "err", err)
		os.Exit(1)
	}

	server := NewHTTPServer(svc, cfg)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: server.Routes(),
	}

	go func() {
		slog.Info("simple-asset server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"database", cfg.DatabaseType,
			"default_backend", cfg.DefaultStorageBackend)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("server exiting")
}

// HTTPServer wraps the simple-asset service for HTTP access
type HTTPServer struct {
	service simpleasset.Service
	config  *config.ServerConfig
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(service simpleasset.Service, serverConfig *config.ServerConfig) *HTTPServer {
	return &HTTPServer{
		service: service,
		config:  serverConfig,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/owners/{ownerID}", func(r chi.Router) {
			r.Post("/assets/resolve", s.handleResolve)
			r.Post("/assets", s.handleUpload)
			r.Get("/assets", s.handleListAssets)
		})

		r.Get("/assets/{assetID}", s.handleGetAsset)
		r.Get("/assets/{assetID}/download", s.handleDownload)
		r.Get("/assets/{assetID}/download-url", s.handleGetDownloadURL)
		r.Post("/assets/retire", s.handleRetire)
	})

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":          "healthy",
		"environment":     s.config.Environment,
		"default_storage": s.config.DefaultStorageBackend,
	})
}

type resolveRequest struct {
	Category string `json:"category"`
	Existing []struct {
		SlotType string `json:"slot_type"`
		AssetID  string `json:"asset_id"`
	} `json:"existing"`
	Slots []struct {
		SlotType string `json:"slot_type"`
		Payload  string `json:"payload"`
		FileName string `json:"file_name,omitempty"`
	} `json:"slots"`
	GlobalScope bool   `json:"global_scope,omitempty"`
	Backend     string `json:"backend,omitempty"`
}

type resolvedSlotResponse struct {
	SlotType string `json:"slot_type"`
	AssetID  string `json:"asset_id"`
}

type cleanupFailureResponse struct {
	AssetID   string `json:"asset_id"`
	Backend   string `json:"backend"`
	ObjectKey string `json:"object_key"`
	Error     string `json:"error"`
}

type resolveResponse struct {
	Slots           []resolvedSlotResponse   `json:"slots"`
	RetiredAssetIDs []string                 `json:"retired_asset_ids"`
	CleanupFailures []cleanupFailureResponse `json:"cleanup_failures,omitempty"`
}

func (s *HTTPServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(chi.URLParam(r, "ownerID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid owner id")
		return
	}

	var req resolveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	existing := make([]simpleasset.ResolvedSlot, 0, len(req.Existing))
	for _, raw := range req.Existing {
		id, err := uuid.Parse(raw.AssetID)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid asset id: %s", raw.AssetID))
			return
		}
		existing = append(existing, simpleasset.ResolvedSlot{SlotType: raw.SlotType, AssetID: id})
	}

	slots := make([]simpleasset.DocumentSlot, 0, len(req.Slots))
	for _, raw := range req.Slots {
		payload, err := simpleasset.ParseSlotPayload(raw.Payload)
		if err != nil {
			renderError(w, r, http.StatusBadRequest,
				fmt.Sprintf("slot %s: %v", raw.SlotType, err))
			return
		}
		if inline, ok := payload.(simpleasset.InlineContent); ok && raw.FileName != "" {
			inline.FileName = raw.FileName
			payload = inline
		}
		slots = append(slots, simpleasset.DocumentSlot{
			SlotType: raw.SlotType,
			Payload:  payload,
		})
	}

	scope := simpleasset.PerOwnerScope(ownerID)
	if req.GlobalScope {
		scope = simpleasset.GlobalPoolScope()
	}

	result, err := s.service.Resolve(r.Context(), simpleasset.ResolveRequest{
		DesiredSlots:       slots,
		ExistingSlots:      existing,
		Category:           req.Category,
		Scope:              scope,
		StorageBackendName: req.Backend,
	})
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.JSON(w, r, toResolveResponse(result))
}

func toResolveResponse(result *simpleasset.ResolveResult) resolveResponse {
	resp := resolveResponse{
		Slots:           make([]resolvedSlotResponse, 0, len(result.Slots)),
		RetiredAssetIDs: make([]string, 0, len(result.RetiredAssetIDs)),
	}
	for _, slot := range result.Slots {
		resp.Slots = append(resp.Slots, resolvedSlotResponse{
			SlotType: slot.SlotType,
			AssetID:  slot.AssetID.String(),
		})
	}
	for _, id := range result.RetiredAssetIDs {
		resp.RetiredAssetIDs = append(resp.RetiredAssetIDs, id.String())
	}
	for _, failure := range result.CleanupFailures {
		resp.CleanupFailures = append(resp.CleanupFailures, cleanupFailureResponse{
			AssetID:   failure.AssetID.String(),
			Backend:   failure.Backend,
			ObjectKey: failure.ObjectKey,
			Error:     failure.Err.Error(),
		})
	}
	return resp
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(chi.URLParam(r, "ownerID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid owner id")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxPayloadBytes+1))
	if err != nil {
		renderError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	asset, err := s.service.CreateAsset(r.Context(), simpleasset.CreateAssetRequest{
		Data:               data,
		MimeType:           r.Header.Get("Content-Type"),
		FileName:           r.URL.Query().Get("filename"),
		Category:           r.URL.Query().Get("category"),
		Scope:              simpleasset.PerOwnerScope(ownerID),
		StorageBackendName: r.URL.Query().Get("backend"),
	})
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, asset)
}

func (s *HTTPServer) handleListAssets(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(chi.URLParam(r, "ownerID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid owner id")
		return
	}

	assets, err := s.service.ListAssets(r.Context(), simpleasset.ListAssetsRequest{
		Scope: simpleasset.PerOwnerScope(ownerID),
	})
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.JSON(w, r, assets)
}

func (s *HTTPServer) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(chi.URLParam(r, "assetID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid asset id")
		return
	}

	asset, err := s.service.GetAsset(r.Context(), assetID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.JSON(w, r, asset)
}

func (s *HTTPServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(chi.URLParam(r, "assetID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid asset id")
		return
	}

	asset, err := s.service.GetAsset(r.Context(), assetID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	body, err := s.service.DownloadAsset(r.Context(), assetID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	defer body.Close()

	if asset.MimeType != "" {
		w.Header().Set("Content-Type", asset.MimeType)
	}
	if asset.FileName != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", asset.FileName))
	}
	if _, err := io.Copy(w, body); err != nil {
		slog.Error("failed to stream asset", "asset_id", assetID, "err", err)
	}
}

func (s *HTTPServer) handleGetDownloadURL(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(chi.URLParam(r, "assetID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid asset id")
		return
	}

	url, err := s.service.GetDownloadURL(r.Context(), assetID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{"download_url": url})
}

type retireRequest struct {
	AssetIDs []string `json:"asset_ids"`
}

type retireResponse struct {
	TombstonedIDs   []string                 `json:"tombstoned_ids"`
	CleanupFailures []cleanupFailureResponse `json:"cleanup_failures,omitempty"`
}

func (s *HTTPServer) handleRetire(w http.ResponseWriter, r *http.Request) {
	var req retireRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.AssetIDs))
	for _, raw := range req.AssetIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid asset id: %s", raw))
			return
		}
		ids = append(ids, id)
	}

	result, err := s.service.Retire(r.Context(), simpleasset.RetireRequest{AssetIDs: ids})
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	resp := retireResponse{
		TombstonedIDs: make([]string, 0, len(result.TombstonedIDs)),
	}
	for _, id := range result.TombstonedIDs {
		resp.TombstonedIDs = append(resp.TombstonedIDs, id.String())
	}
	for _, failure := range result.CleanupFailures {
		resp.CleanupFailures = append(resp.CleanupFailures, cleanupFailureResponse{
			AssetID:   failure.AssetID.String(),
			Backend:   failure.Backend,
			ObjectKey: failure.ObjectKey,
			Error:     failure.Err.Error(),
		})
	}
	render.JSON(w, r, resp)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": message})
}

func renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, simpleasset.ErrAssetNotFound):
		renderError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, simpleasset.ErrReferenceNotFound),
		errors.Is(err, simpleasset.ErrInvalidPayloadFormat):
		renderError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, simpleasset.ErrPayloadTooLarge):
		renderError(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, simpleasset.ErrChecksumConflict):
		renderError(w, r, http.StatusConflict, err.Error())
	default:
		renderError(w, r, http.StatusInternalServerError, err.Error())
	}
}
