// cmd/chatbot-server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"infotec-chatbot/internal/chatbot"
	"infotec-chatbot/internal/chatbot/classifier"
	"infotec-chatbot/internal/chatbot/dispatcher"
	"infotec-chatbot/internal/chatbot/session"
	"infotec-chatbot/internal/common/config"
	"infotec-chatbot/internal/common/database"
	"infotec-chatbot/internal/common/logger"
	"infotec-chatbot/internal/common/observability"
	"infotec-chatbot/internal/services/cart"
	"infotec-chatbot/internal/services/catalog"
	"infotec-chatbot/internal/services/genai"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chatbot server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	jaegerURL := ""
	if cfg.Tracing.Enabled {
		jaegerURL = cfg.Tracing.JaegerURL
	}
	obs := observability.New(cfg.App.Name, jaegerURL)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch (optional) ---
	var searchIndex *catalog.SearchIndex
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Warn("elasticsearch unavailable, product search falls back to SQL", zap.Error(err))
		} else {
			searchIndex = catalog.NewSearchIndex(esClient.Client)
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Init session store ---
	var store session.Store
	if cfg.Session.Backend == "redis" {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		store = session.NewRedisStore(redisClient.Client, cfg.Session.MaxTurns, cfg.Session.TTL, log)
		zapLog.Info("Redis session store connected successfully")
	} else {
		store = session.NewMemoryStore(cfg.Session.MaxTurns, cfg.Session.TTL)
		zapLog.Info("Using in-memory session store")
	}

	// --- Wire the pipeline ---
	var generator genai.Generator
	if cfg.Generator.BaseURL != "" {
		generator = genai.NewClient(&cfg.Generator, log)
	} else {
		zapLog.Warn("no generator configured, running fully deterministic")
	}

	catalogSvc := catalog.NewPostgresCatalog(pg.DB, searchIndex, cfg.Database.Postgres.QueryTimeout, log)
	cartSvc := cart.NewPostgresCart(pg.DB, cfg.Database.Postgres.QueryTimeout, log)

	cls, err := classifier.New(generator, log)
	if err != nil {
		zapLog.Fatal("classifier init failed", zap.Error(err))
	}
	disp := dispatcher.New(catalogSvc, cartSvc, generator, store,
		cfg.Catalog.SearchLimit, cfg.Catalog.CandidateLimit, log)
	orchestrator := chatbot.NewOrchestrator(cls, disp, store, obs, log)

	// --- HTTP shim ---
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", handleChat(orchestrator))
	mux.HandleFunc("/sessions", handleSessions(orchestrator))
	mux.HandleFunc("/sessions/", handleSession(orchestrator))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Server stopped")
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

func handleChat(o *chatbot.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		resp := o.HandleMessage(r.Context(), req.Message, req.SessionID, req.UserID)
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleSessions(o *chatbot.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ids, err := o.ActiveSessions(r.Context())
			if err != nil {
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": ids})
		case http.MethodDelete:
			removed, err := o.ClearAllSessions(r.Context())
			if err != nil {
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": removed})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func handleSession(o *chatbot.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
		sessionID, action, _ := strings.Cut(rest, "/")
		if sessionID == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		switch {
		case r.Method == http.MethodGet && action == "stats":
			stats, err := o.SessionStats(r.Context(), sessionID)
			if err != nil {
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}
			writeJSON(w, http.StatusOK, stats)
		case r.Method == http.MethodDelete && action == "":
			if err := o.ClearSession(r.Context(), sessionID); err != nil {
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
