package service

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vexec/pkg/api"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/types"
)

type Services struct {
	Metadata  *MetadataAPIService
	Schema    *SchemaAPIService
	Execution *ExecutionAPIService
}

type serviceFunc func(r *http.Request) (ImplResponse, error)

// NewRouter registers every API route and the prometheus endpoint.
func NewRouter(s Services, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{services: s, logger: logger}

	router := mux.NewRouter().StrictSlash(true)
	router.Use(h.logRequests)

	router.HandleFunc("/system/info", h.wrap(h.getSystemInfo)).Methods(http.MethodGet)
	router.HandleFunc("/tables", h.wrap(h.getTables)).Methods(http.MethodGet)
	router.HandleFunc("/table/{tableId}", h.wrap(h.getTableById)).Methods(http.MethodGet)
	router.HandleFunc("/table", h.wrap(h.createTable)).Methods(http.MethodPut)
	router.HandleFunc("/table/{tableId}", h.wrap(h.deleteTable)).Methods(http.MethodDelete)
	router.HandleFunc("/query", h.wrap(h.submitQuery)).Methods(http.MethodPost)
	router.HandleFunc("/query/plan", h.wrap(h.submitPlan)).Methods(http.MethodPost)
	router.HandleFunc("/queries", h.wrap(h.getQueries)).Methods(http.MethodGet)
	router.HandleFunc("/query/{queryId}", h.wrap(h.getQueryById)).Methods(http.MethodGet)
	router.HandleFunc("/query/{queryId}/result", h.wrap(h.getQueryResult)).Methods(http.MethodGet)
	router.HandleFunc("/query/{queryId}/error", h.wrap(h.getQueryError)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

type handlers struct {
	services Services
	logger   *slog.Logger
}

func (h *handlers) wrap(fn serviceFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := fn(r)
		if err != nil {
			h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
			resp = Response(http.StatusInternalServerError, api.Error{Message: err.Error()})
		}
		if err := EncodeJSONResponse(w, resp); err != nil {
			h.logger.Warn("failed to write response", "path", r.URL.Path, "error", err)
		}
	}
}

func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func badRequest(err error) ImplResponse {
	return Response(http.StatusBadRequest, api.ToProblems(err))
}

func (h *handlers) getSystemInfo(r *http.Request) (ImplResponse, error) {
	return h.services.Metadata.GetSystemInfo(r.Context())
}

func (h *handlers) getTables(r *http.Request) (ImplResponse, error) {
	return h.services.Schema.GetTables(r.Context())
}

func (h *handlers) getTableById(r *http.Request) (ImplResponse, error) {
	return h.services.Schema.GetTableById(r.Context(), mux.Vars(r)["tableId"])
}

func (h *handlers) createTable(r *http.Request) (ImplResponse, error) {
	var schema api.TableSchema
	if err := decodeJSONBody(r.Body, &schema); err != nil {
		return badRequest(err), nil
	}
	return h.services.Schema.CreateTable(r.Context(), schema)
}

func (h *handlers) deleteTable(r *http.Request) (ImplResponse, error) {
	return h.services.Schema.DeleteTable(r.Context(), mux.Vars(r)["tableId"])
}

func (h *handlers) submitQuery(r *http.Request) (ImplResponse, error) {
	var req api.ExecuteQueryRequest
	if err := decodeJSONBody(r.Body, &req); err != nil {
		return badRequest(err), nil
	}
	return h.services.Execution.SubmitQuery(r.Context(), req)
}

func (h *handlers) submitPlan(r *http.Request) (ImplResponse, error) {
	queryPlan, err := plan.Decode(r.Body)
	if err != nil {
		return badRequest(err), nil
	}
	return h.services.Execution.SubmitPlan(r.Context(), queryPlan)
}

func (h *handlers) getQueries(r *http.Request) (ImplResponse, error) {
	return h.services.Execution.GetQueries(r.Context())
}

func (h *handlers) getQueryById(r *http.Request) (ImplResponse, error) {
	return h.services.Execution.GetQueryById(r.Context(), mux.Vars(r)["queryId"])
}

func (h *handlers) getQueryResult(r *http.Request) (ImplResponse, error) {
	req, err := parseResultRequest(r)
	if err != nil {
		return badRequest(err), nil
	}
	return h.services.Execution.GetQueryResult(r.Context(), mux.Vars(r)["queryId"], req)
}

func (h *handlers) getQueryError(r *http.Request) (ImplResponse, error) {
	return h.services.Execution.GetQueryError(r.Context(), mux.Vars(r)["queryId"])
}

// parseResultRequest reads rowLimit and flushResult from the query string.
func parseResultRequest(r *http.Request) (api.GetQueryResultRequest, error) {
	var req api.GetQueryResultRequest
	q := r.URL.Query()
	if v := q.Get("rowLimit"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 32)
		if err != nil || limit < 0 {
			return req, types.NewVErr("rowLimit must be a non-negative integer", "rowLimit")
		}
		req.RowLimit = int32(limit)
	}
	if v := q.Get("flushResult"); v != "" {
		flush, err := strconv.ParseBool(v)
		if err != nil {
			return req, types.NewVErr("flushResult must be a boolean", "flushResult")
		}
		req.FlushResult = flush
	}
	return req, nil
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
