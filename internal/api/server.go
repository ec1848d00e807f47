// Package api serves the animation over HTTP: an ECharts page of the current
// frame, JSON endpoints for the latest frame and the scene, a websocket
// stream of frame updates and the tsweb debug pages.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/httputil"
	"github.com/banshee-data/motion.report/internal/kinematics"
	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/visualiser"
)

// ANSI escape codes for the request log
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Config controls the chart layout.
type Config struct {
	CurvePadding float64
	CurveSamples int
	// AssetsHost overrides where the page loads echarts from.
	AssetsHost string
}

// Server exposes a publisher's frames over HTTP.
type Server struct {
	publisher *visualiser.Publisher
	scene     visualiser.SceneInfo
	curves    kinematics.Series
	config    Config
	upgrader  websocket.Upgrader
	started   time.Time
}

// NewServer samples the engine's curves once for the chart and scene endpoints.
func NewServer(publisher *visualiser.Publisher, engine *animation.Engine, scene visualiser.SceneInfo, cfg Config) *Server {
	if cfg.CurveSamples < 2 {
		cfg.CurveSamples = 201
	}
	d := engine.Domain()
	curves := kinematics.Sample(engine.Model(), d.TMin, d.TMax, (d.TMax-d.TMin)/float64(cfg.CurveSamples-1))

	return &Server{
		publisher: publisher,
		scene:     scene,
		curves:    curves,
		config:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		started: time.Now(),
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController and the websocket upgrader reach the
// underlying writer.
func (lrw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lrw.ResponseWriter
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration.
// Websocket upgrades are passed through untouched.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			monitoring.Logf("[API] upgrade %s%s%s", colorCyan, r.RequestURI, colorReset)
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the routes, including /debug/.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/frame", s.handleFrame)
	mux.HandleFunc("/api/scene", s.handleScene)
	mux.HandleFunc("/ws", s.handleWebsocket)
	s.AttachDebugRoutes(mux)
	return mux
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	u, ok := s.publisher.Latest()
	if !ok {
		httputil.NotFound(w, "no frame rendered yet")
		return
	}
	httputil.WriteJSONOK(w, u)
}

// sceneResponse is the /api/scene body: the scene plus the sampled curves.
type sceneResponse struct {
	visualiser.SceneInfo
	Curves curvesJSON `json:"curves"`
}

type curvesJSON struct {
	T []float64 `json:"t"`
	S []float64 `json:"position"`
	V []float64 `json:"velocity"`
	A []float64 `json:"acceleration"`
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	httputil.WriteJSONOK(w, sceneResponse{
		SceneInfo: s.scene,
		Curves: curvesJSON{
			T: s.curves.T,
			S: s.curves.S,
			V: s.curves.V,
			A: s.curves.A,
		},
	})
}
