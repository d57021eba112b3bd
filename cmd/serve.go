package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pokearena/arena-cli/internal/arena"
	"github.com/pokearena/arena-cli/internal/battle"
	"github.com/pokearena/arena-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the battle API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc := newService()
		defer svc.Close()

		ar := arena.New(svc, battle.NewEngine(battle.NewMatrix()), arena.Config{
			OverallDeadline: cfg.Arena.OverallDeadline(),
			Retry:           cfg.Retry.Resilience(),
		})

		var st store.Store
		if cfg.History.Path != "" {
			s, err := store.NewSQLite(cfg.History.Path)
			if err != nil {
				return eris.Wrap(err, "open history store")
			}
			defer s.Close()
			if err := s.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate history store")
			}
			st = s
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ar, st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// judger is the slice of the arena the HTTP layer needs.
type judger interface {
	Judge(ctx context.Context, nameA, nameB string) (*battle.Verdict, error)
}

// newRouter wires the battle API routes. The store is optional; without it
// verdicts are returned but not recorded.
func newRouter(ar judger, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/battles", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			SideA string `json:"side_a"`
			SideB string `json:"side_b"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.SideA == "" || body.SideB == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "side_a and side_b are required"})
			return
		}

		verdict, err := ar.Judge(req.Context(), body.SideA, body.SideB)
		if err != nil {
			status, msg := classifyJudgeFailure(err)
			zap.L().Warn("battle request failed",
				zap.String("side_a", body.SideA),
				zap.String("side_b", body.SideB),
				zap.Error(err),
			)
			writeJSON(w, status, map[string]string{"error": msg})
			return
		}

		if st != nil {
			if err := st.SaveVerdict(req.Context(), *verdict); err != nil {
				zap.L().Warn("verdict not recorded", zap.Error(err))
			}
		}

		writeJSON(w, http.StatusOK, verdict)
	})

	r.Get("/v1/battles", func(w http.ResponseWriter, req *http.Request) {
		if st == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "history is not configured"})
			return
		}

		filter := store.Filter{
			Contestant: req.URL.Query().Get("contestant"),
			Winner:     req.URL.Query().Get("winner"),
		}
		records, err := st.ListVerdicts(req.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list verdicts failed"})
			return
		}
		if records == nil {
			records = []store.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	})

	return r
}

// classifyJudgeFailure maps judgment errors onto HTTP statuses the same way
// exitCode maps them for the CLI.
func classifyJudgeFailure(err error) (int, string) {
	if errors.Is(err, arena.ErrNoCapability) {
		return http.StatusBadGateway, "data service advertises no usable capability"
	}

	var oerr *arena.OrchestrationError
	if errors.As(err, &oerr) && oerr.Timeout {
		return http.StatusGatewayTimeout, "acquisition deadline elapsed"
	}

	var u *arena.UnresolvableError
	if errors.As(err, &u) {
		return http.StatusUnprocessableEntity, fmt.Sprintf("contestant %q is unresolvable", u.Identifier)
	}

	return http.StatusInternalServerError, "judgment failed"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
