package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the REST surface, the visit hub websocket endpoint, and
// the operational endpoints onto one chi router.
func NewRouter(h *Handler, visitHub http.Handler) http.Handler {
	r := chi.NewRouter()

	h.Register(r)
	r.Handle("/visithub", visitHub)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
