package api

import (
	"net/http"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/motion.report/internal/httputil"
	"github.com/banshee-data/motion.report/internal/version"
)

// AttachDebugRoutes registers the tsweb debugger under /debug/ with the
// publisher counters and the scene.
func (s *Server) AttachDebugRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.KV("Version", version.String())
	debug.KV("Scene", s.scene.Formula)
	debug.KVFunc("Uptime", func() any { return time.Since(s.started).Round(time.Second) })
	debug.KVFunc("Frames published", func() any { return s.publisher.Stats().FrameCount })
	debug.KVFunc("Frames dropped", func() any { return s.publisher.Stats().Dropped })
	debug.KVFunc("Clients", func() any { return s.publisher.Stats().ClientCount })
	debug.KVFunc("Latest frame", func() any {
		if u, ok := s.publisher.Latest(); ok {
			return u.Frame
		}
		return "none"
	})

	debug.HandleFunc("stats", "Publisher statistics as JSON", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, s.publisher.Stats())
	})
	debug.HandleSilentFunc("scene", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, s.scene)
	})
}
