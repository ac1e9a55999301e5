package api

import (
	"net/http"

	"github.com/okian/delhihouse/internal/adapters/widget"
	service "github.com/okian/delhihouse/internal/app"
)

type widgetConfigResponse struct {
	Frame     widget.Frame  `json:"frame"`
	Fallback  []widget.Link `json:"fallback"`
	Available bool          `json:"available"`
}

func (s *Server) handleWidgetConfig(w http.ResponseWriter, r *http.Request) {
	wd := s.deps.Widget()
	writeJSON(w, http.StatusOK, widgetConfigResponse{
		Frame:     wd.Frame(),
		Fallback:  wd.Fallback(),
		Available: s.deps.WidgetAvailability(r.Context()).Available,
	})
}

// handleWidgetEvent records a beacon from the reservations page and tells
// the page whether to show the fallback links.
func (s *Server) handleWidgetEvent(w http.ResponseWriter, r *http.Request) {
	var ev service.WidgetEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	o, err := s.deps.RecordWidgetEvent(r.Context(), ev)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outcome":  o.String(),
		"fallback": o.NeedsFallback(),
	})
}
