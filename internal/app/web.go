package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/relabs-tech/gnss_skyplot/internal/config"
	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
	"github.com/relabs-tech/gnss_skyplot/internal/metrics"
	"github.com/relabs-tech/gnss_skyplot/internal/prefs"
	"github.com/relabs-tech/gnss_skyplot/internal/skyplot"
)

// Requested PNG sizes are clamped to this range.
const (
	minPlotSize = 64
	maxPlotSize = 2048
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

type pngKey struct {
	seq           uint64
	width, height int
}

// frameSummary is pushed to websocket clients on every redraw.
type frameSummary struct {
	Seq     uint64       `json:"seq"`
	Visible int          `json:"visible"`
	Used    int          `json:"used"`
	Tier    skyplot.Tier `json:"tier"`
}

// satellitesResponse is the body of /api/satellites.
type satellitesResponse struct {
	frameSummary
	Snapshot *gnss.Snapshot    `json:"snapshot"`
	Fix      *gnss.LocationFix `json:"fix"`
}

// WebServer serves the latest sky plot frame over HTTP and websockets.
type WebServer struct {
	view     *skyplot.View
	renderer *skyplot.Renderer
	metrics  *metrics.Collector
	png      *lru.Cache[pngKey, []byte]
	width    int
	height   int

	mu       sync.RWMutex
	frame    skyplot.Frame
	counters skyplot.FrameCounters

	clientsMu sync.Mutex
	clients   map[chan frameSummary]struct{}
}

// NewWebServer returns a server for view's frames. Its OnFrame method must
// be the view's redraw function.
func NewWebServer(view *skyplot.View, m *metrics.Collector, width, height, cacheSize int) (*WebServer, error) {
	cache, err := lru.New[pngKey, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating PNG cache: %w", err)
	}
	s := &WebServer{
		view:     view,
		renderer: skyplot.NewRenderer(skyplot.DefaultTheme()),
		metrics:  m,
		png:      cache,
		width:    clampPlot(width),
		height:   clampPlot(height),
		clients:  make(map[chan frameSummary]struct{}),
	}
	// until the first redraw, serve an empty plot with the stored config
	s.frame.Config = view.Config()
	s.frame.Geometry = skyplot.NewGeometry(s.width, s.height)
	return s, nil
}

// OnFrame stores f as the latest frame, pre-renders it at the default size
// and notifies websocket clients. It runs on the view's loop.
func (s *WebServer) OnFrame(f skyplot.Frame) {
	w, h := f.Geometry.Size()
	data, counters, err := s.render(f, w, h)
	if err != nil {
		log.Printf("web: rendering frame %d: %v", f.Seq, err)
	} else {
		s.png.Add(pngKey{f.Seq, w, h}, data)
	}

	s.mu.Lock()
	s.frame = f
	s.counters = counters
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveFrame(counters.Visible, counters.Used)
	}
	s.broadcast(frameSummary{Seq: f.Seq, Visible: counters.Visible, Used: counters.Used, Tier: f.Tier()})
}

func (s *WebServer) latest() (skyplot.Frame, skyplot.FrameCounters) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.counters
}

func (s *WebServer) render(f skyplot.Frame, width, height int) ([]byte, skyplot.FrameCounters, error) {
	r := skyplot.NewRaster(width, height)
	counters := s.renderer.RenderFrame(r, skyplot.NewGeometry(width, height), f.Snapshot, f.Fix, f.Config)
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		return nil, counters, err
	}
	return buf.Bytes(), counters, nil
}

// Routes returns the HTTP handler with every endpoint and the metrics
// middleware.
func (s *WebServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /skyplot.png", s.handlePNG)
	mux.HandleFunc("GET /api/satellites", s.handleSatellites)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handlePostConfig)
	mux.HandleFunc("GET /ws", s.handleWS)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
		return s.metrics.Middleware(mux)
	}
	return mux
}

func (s *WebServer) handlePNG(w http.ResponseWriter, r *http.Request) {
	width, err := sizeParam(r, "w", s.width)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := sizeParam(r, "h", s.height)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, _ := s.latest()
	key := pngKey{f.Seq, width, height}
	data, ok := s.png.Get(key)
	s.countCache(ok)
	if !ok {
		if data, _, err = s.render(f, width, height); err != nil {
			log.Printf("web: rendering %dx%d: %v", width, height, err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		s.png.Add(key, data)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *WebServer) countCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.PNGCache.WithLabelValues("hit").Inc()
	} else {
		s.metrics.PNGCache.WithLabelValues("miss").Inc()
	}
}

func (s *WebServer) handleSatellites(w http.ResponseWriter, r *http.Request) {
	f, counters := s.latest()
	writeJSON(w, http.StatusOK, satellitesResponse{
		frameSummary: frameSummary{Seq: f.Seq, Visible: counters.Visible, Used: counters.Used, Tier: f.Tier()},
		Snapshot:     f.Snapshot,
		Fix:          f.Fix,
	})
}

func (s *WebServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.view.Config())
}

// handlePostConfig applies a full or partial configuration; keys left out
// keep their current value.
func (s *WebServer) handlePostConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.view.Config()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid config: %v", err), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := s.view.ApplyConfiguration(ctx, cfg)
	switch {
	case errors.Is(err, skyplot.ErrInvalidConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		// applied but maybe not persisted; report and show what is live
		log.Printf("web: apply config: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, s.view.Config())
	}
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	updates := make(chan frameSummary, 8)
	s.clientsMu.Lock()
	s.clients[updates] = struct{}{}
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, updates)
		s.clientsMu.Unlock()
	}()

	// reader: only needed to notice the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	f, counters := s.latest()
	current := frameSummary{Seq: f.Seq, Visible: counters.Visible, Used: counters.Used, Tier: f.Tier()}
	if err := conn.WriteJSON(current); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case u := <-updates:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		}
	}
}

// broadcast never blocks the view loop; slow clients miss updates.
func (s *WebServer) broadcast(u frameSummary) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- u:
		default:
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func sizeParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return clampPlot(n), nil
}

func clampPlot(n int) int {
	return min(max(n, minPlotSize), maxPlotSize)
}

// RunWeb subscribes to the GNSS feed and serves the sky plot on
// WEB_SERVER_PORT.
func RunWeb() error {
	cfg := config.Get()

	collector, err := metrics.NewCollector(nil)
	if err != nil {
		return err
	}

	var srv *WebServer
	store := prefs.NewFileStore(cfg.PrefsFile)
	view := skyplot.NewView(store, func(f skyplot.Frame) { srv.OnFrame(f) })
	srv, err = NewWebServer(view, collector, cfg.PlotWidth, cfg.PlotHeight, cfg.PNGCacheSize)
	if err != nil {
		return err
	}
	view.Resize(srv.width, srv.height)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	viewDone := make(chan struct{})
	go func() {
		defer close(viewDone)
		if err := runView(ctx, view); err != nil {
			log.Printf("web: view loop: %v", err)
		}
	}()
	defer func() {
		stop()
		<-viewDone
	}()

	client, err := connectMQTT(cfg, cfg.MQTTClientIDWeb, "web")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	if err := subscribeFeed(client, cfg, view, collector, "web"); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("web: server listening on %s", addr)
	err = serveUntil(ctx, &http.Server{Handler: srv.Routes()}, ln)
	log.Println("web: shutting down")
	return err
}

// shutdownTimeout bounds how long in-flight requests may finish.
const shutdownTimeout = 5 * time.Second

// serveUntil serves on ln until ctx is done, then shuts the server down
// gracefully. A server error before that is returned as is.
func serveUntil(ctx context.Context, server *http.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- server.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
