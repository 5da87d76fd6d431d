package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/relabs-tech/gnss_skyplot/internal/gnss"
	"github.com/relabs-tech/gnss_skyplot/internal/metrics"
	"github.com/relabs-tech/gnss_skyplot/internal/prefs"
	"github.com/relabs-tech/gnss_skyplot/internal/skyplot"
)

type webFixture struct {
	srv     *WebServer
	view    *skyplot.View
	store   *prefs.MemoryStore
	metrics *metrics.Collector
}

// newWebFixture builds a server for a 200x150 plot. With run set the view
// loop runs until the test ends.
func newWebFixture(t *testing.T, run bool) *webFixture {
	t.Helper()
	m, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	fx := &webFixture{store: prefs.NewMemoryStore(), metrics: m}
	fx.view = skyplot.NewView(fx.store, func(f skyplot.Frame) { fx.srv.OnFrame(f) })
	if fx.srv, err = NewWebServer(fx.view, m, 200, 150, 8); err != nil {
		t.Fatal(err)
	}
	fx.view.Resize(200, 150)

	if run {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			fx.view.Run(ctx)
		}()
		t.Cleanup(func() {
			cancel()
			<-done
		})
	}
	return fx
}

// waitFor polls the latest frame until ready reports true.
func (fx *webFixture) waitFor(t *testing.T, ready func(skyplot.Frame) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f, _ := fx.srv.latest(); ready(f) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected frame never arrived")
}

func hasSnapshot(f skyplot.Frame) bool { return f.Snapshot != nil }

func (fx *webFixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	fx.srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func threeSats() *gnss.Snapshot {
	return &gnss.Snapshot{Satellites: []gnss.SatelliteObservation{
		{ID: 3, Constellation: gnss.GPS, AzimuthDeg: 40, ElevationDeg: 60, UsedInFix: true},
		{ID: 71, Constellation: gnss.GLONASS, AzimuthDeg: 200, ElevationDeg: 30, UsedInFix: false},
		{ID: 11, Constellation: gnss.Galileo, AzimuthDeg: 90, ElevationDeg: 10, UsedInFix: true},
	}}
}

func TestWeb_PNGBeforeFirstFrame(t *testing.T) {
	fx := newWebFixture(t, false)

	tests := []struct {
		query string
		code  int
		wantW int
		wantH int
	}{
		{"", http.StatusOK, 200, 150},
		{"?w=320&h=240", http.StatusOK, 320, 240},
		{"?w=10&h=5000", http.StatusOK, minPlotSize, maxPlotSize},
		{"?w=wide", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := fx.get(t, "/skyplot.png"+tt.query)
			if rec.Code != tt.code {
				t.Fatalf("code = %d, want %d", rec.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("content type = %q", ct)
			}
			img, err := png.Decode(rec.Body)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("size = %v, want %dx%d", b, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestWeb_OnFrameCachesFrameSize(t *testing.T) {
	fx := newWebFixture(t, false)
	f := skyplot.Frame{
		Seq:      7,
		Geometry: skyplot.NewGeometry(160, 120),
		Snapshot: threeSats(),
		Config:   skyplot.DefaultViewConfig(),
	}
	fx.srv.OnFrame(f)

	data, ok := fx.srv.png.Get(pngKey{7, 160, 120})
	if !ok {
		t.Fatal("frame was not cached at its own size")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 120 {
		t.Errorf("cached size = %v, want 160x120", b)
	}

	got, counters := fx.srv.latest()
	if got.Seq != 7 {
		t.Errorf("latest seq = %d, want 7", got.Seq)
	}
	if counters.Visible != 3 || counters.Used != 2 {
		t.Errorf("counters = %+v, want 3 visible, 2 used", counters)
	}
}

func TestWeb_PNGCache(t *testing.T) {
	fx := newWebFixture(t, true)
	fx.view.NewStatus(threeSats())
	fx.waitFor(t, hasSnapshot)

	// default size was rendered with the frame
	fx.get(t, "/skyplot.png")
	fx.get(t, "/skyplot.png?w=100&h=100")
	fx.get(t, "/skyplot.png?w=100&h=100")

	if got := testutil.ToFloat64(fx.metrics.PNGCache.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(fx.metrics.PNGCache.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestWeb_Satellites(t *testing.T) {
	fx := newWebFixture(t, true)
	fx.view.NewStatus(threeSats())
	fx.view.NewLocation(&gnss.LocationFix{AccuracyMeters: 3, HasAccuracy: true})
	fx.waitFor(t, func(f skyplot.Frame) bool { return f.Snapshot != nil && f.Fix != nil })

	rec := fx.get(t, "/api/satellites")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var body struct {
		Seq      uint64         `json:"seq"`
		Visible  int            `json:"visible"`
		Used     int            `json:"used"`
		Tier     string         `json:"tier"`
		Snapshot *gnss.Snapshot `json:"snapshot"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Visible != 3 || body.Used != 2 || body.Tier != "GOOD" {
		t.Errorf("body = %+v", body)
	}
	if body.Snapshot == nil || len(body.Snapshot.Satellites) != 3 {
		t.Errorf("snapshot = %+v", body.Snapshot)
	}
	if got := testutil.ToFloat64(fx.metrics.VisibleSatellites); got != 3 {
		t.Errorf("visible gauge = %v", got)
	}
}

func TestWeb_Config(t *testing.T) {
	fx := newWebFixture(t, true)
	h := fx.srv.Routes()

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(body)))
		return rec
	}

	rec := post(`{"gps":false,"zenith_style":"STAR"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body)
	}
	want := skyplot.DefaultViewConfig()
	want.ShowGPS = false
	want.ZenithStyle = skyplot.ZenithStar
	if got := fx.view.Config(); got != want {
		t.Errorf("applied %+v, want %+v", got, want)
	}
	if fx.store.Saves() != 1 {
		t.Errorf("saves = %d, want 1", fx.store.Saves())
	}

	var got skyplot.ViewConfig
	if err := json.NewDecoder(fx.get(t, "/api/config").Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("GET /api/config = %+v", got)
	}

	for _, bad := range []string{`{"zenith_style":"HEXAGON"}`, `not json`} {
		if rec := post(bad); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d, want 400", bad, rec.Code)
		}
	}
	if fx.view.Config() != want || fx.store.Saves() != 1 {
		t.Error("rejected config changed the view")
	}
}

func TestWeb_WebsocketPushesFrames(t *testing.T) {
	fx := newWebFixture(t, true)
	ts := httptest.NewServer(fx.srv.Routes())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg struct {
		Seq     uint64 `json:"seq"`
		Visible int    `json:"visible"`
		Used    int    `json:"used"`
		Tier    string `json:"tier"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("initial summary: %v", err)
	}
	if msg.Visible != 0 {
		t.Fatalf("initial summary = %+v, want an empty plot", msg)
	}

	fx.view.NewStatus(threeSats())
	for msg.Visible == 0 {
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("reading update: %v", err)
		}
	}
	if msg.Visible != 3 || msg.Used != 2 || msg.Tier != "UNKNOWN" {
		t.Errorf("update = %+v", msg)
	}
}

func TestWeb_Metrics(t *testing.T) {
	fx := newWebFixture(t, true)
	fx.view.NewStatus(threeSats())
	fx.waitFor(t, hasSnapshot)

	rec := fx.get(t, "/metrics")
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"skyplot_frames_total", "skyplot_visible_satellites 3"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestServeUntil_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveUntil(ctx, &http.Server{Handler: handler}, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serveUntil = %v, want nil after shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeUntil_ReturnsServeError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ln.Close()

	if err := serveUntil(context.Background(), &http.Server{}, ln); err == nil {
		t.Error("serveUntil on a closed listener returned nil")
	}
}
