package preview

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neom/pkg/platform/httputil"
	"neom/pkg/platform/middleware/metadata"
	"neom/pkg/platform/middleware/request"
	"neom/pkg/platform/middleware/requesttime"
	"neom/pkg/requestcontext"
	"neom/pkg/wire"
)

// Handler serves gallery pages. Its capabilities come from a wire registry.
type Handler struct {
	Renderer Renderer `wire:""`
	Roster   Roster   `wire:"optional"`

	logger *slog.Logger
}

// NewHandler resolves a Handler's capabilities from r.
func NewHandler(r wire.Resolver, logger *slog.Logger) (*Handler, error) {
	h, err := wire.AutoWire[Handler](r)()
	if err != nil {
		return nil, err
	}
	h.logger = logger
	return h, nil
}

// Register mounts gallery endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleIndex)
	r.Get("/api/pages", h.HandlePages)
	r.Get("/{page}", h.HandlePage)
}

// HandleIndex renders the page list.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index")
}

// HandlePage renders GET /{page}.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, chi.URLParam(r, "page"))
}

// HandlePages lists the page names as JSON.
func (h *Handler) HandlePages(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"pages": h.Renderer.Pages()})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	page := Page{RequestID: requestcontext.RequestID(ctx)}

	if name == "staff" && h.Roster != nil {
		members, err := h.Roster.Members(ctx)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to load staff", "request_id", page.RequestID, "error", err)
			httputil.WriteError(w, err)
			return
		}
		page.Members = members
	}

	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, name, page); err != nil {
		h.logger.WarnContext(ctx, "render failed", "request_id", page.RequestID, "page", name, "error", err)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// NewRouter builds the preview server's router: request middleware, the
// gallery and Prometheus metrics from gatherer.
func NewRouter(h *Handler, logger *slog.Logger, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(logger))
	r.Use(request.AccessLog(logger))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	h.Register(r)
	return r
}
