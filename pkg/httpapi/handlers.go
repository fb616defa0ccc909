package httpapi

import (
	"net/http"

	"github.com/deviceflow/resbroker/pkg/broker"
)

// ResourceSnapshotter is the narrow view of a Host the status server needs.
// Host satisfies it directly; tests can supply a stub.
type ResourceSnapshotter interface {
	Snapshot() []broker.ResourceSnapshot
}

type statusHandler struct {
	host ResourceSnapshotter
}

func newStatusHandler(host ResourceSnapshotter) *statusHandler {
	return &statusHandler{host: host}
}

// resourceView is the wire shape for a single resource in /resources.
type resourceView struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Owner string `json:"owner,omitempty"`
}

// Liveness handles GET /healthz: always 200 while the process is serving.
func (h *statusHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{"service": "resbroker"}))
}

// Readiness handles GET /readyz: 200 once the host has resources to report,
// 503 before Initialize or when no resources are registered. A Host keeps
// reporting its resources after Shutdown, so it stays 200 then.
func (h *statusHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.host == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("host not initialized"))
		return
	}
	snap := h.host.Snapshot()
	if len(snap) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no resources registered"))
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(map[string]int{"resources": len(snap)}))
}

// Resources handles GET /resources: a point-in-time view of every
// pre-registered resource's state and owner.
func (h *statusHandler) Resources(w http.ResponseWriter, r *http.Request) {
	if h.host == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("host not initialized"))
		return
	}

	snap := h.host.Snapshot()
	views := make([]resourceView, 0, len(snap))
	for _, s := range snap {
		view := resourceView{ID: s.ID.String(), State: s.State.String()}
		if !s.Owner.IsZero() {
			view.Owner = s.Owner.String()
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, healthyResponse(views))
}
