package graphql

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	gql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/cartql/pkg/httputil"
	"github.com/utafrali/cartql/pkg/logger"
)

const maxRequestBytes = 1 << 20

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cartql_graphql_operations_total",
		Help: "GraphQL operations by result.",
	},
	[]string{"result"},
)

// Handler serves GraphQL requests over HTTP POST.
type Handler struct {
	schema *gql.Schema
	logger *slog.Logger
}

// NewHandler creates a new GraphQL HTTP handler.
func NewHandler(schema *gql.Schema, logger *slog.Logger) *Handler {
	return &Handler{schema: schema, logger: logger}
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// ServeHTTP handles POST /graphql. Execution errors are reported in the
// response body with status 200; only malformed requests get a 400.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		operationsTotal.WithLabelValues("bad_request").Inc()
		writeRequestError(w, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		operationsTotal.WithLabelValues("bad_request").Inc()
		writeRequestError(w, "query is required")
		return
	}

	resp := h.schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)

	result := "ok"
	if len(resp.Errors) > 0 {
		result = "error"
		logger.FromContext(r.Context()).DebugContext(r.Context(), "graphql operation returned errors",
			slog.String("operation", req.OperationName),
			slog.Int("errors", len(resp.Errors)),
			slog.String("first_error", resp.Errors[0].Message),
		)
	}
	operationsTotal.WithLabelValues(result).Inc()

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Schema serves the SDL as plain text.
func (h *Handler) Schema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(schemaSDL))
}

func writeRequestError(w http.ResponseWriter, msg string) {
	httputil.WriteJSON(w, http.StatusBadRequest, gql.Response{
		Errors: []*gqlerrors.QueryError{gqlerrors.Errorf("%s", msg)},
	})
}
