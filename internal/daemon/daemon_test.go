package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SecretPocketCat/chela/internal/config"
	"github.com/SecretPocketCat/chela/internal/cullmeta"
	"github.com/SecretPocketCat/chela/internal/daemon"
	"github.com/SecretPocketCat/chela/internal/images"
	"github.com/SecretPocketCat/chela/internal/logging"
	"github.com/SecretPocketCat/chela/internal/preview"
	"github.com/SecretPocketCat/chela/internal/testsupport"
)

type gatedTransformer struct {
	gate chan struct{}
	once sync.Once

	mu    sync.Mutex
	calls []string
}

func newGatedTransformer() *gatedTransformer {
	return &gatedTransformer{gate: make(chan struct{})}
}

func (g *gatedTransformer) Transform(ctx context.Context, source, dest string, _ preview.Constraints) error {
	g.mu.Lock()
	g.calls = append(g.calls, filepath.Base(source))
	g.mu.Unlock()
	select {
	case <-g.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func (g *gatedTransformer) release() {
	g.once.Do(func() { close(g.gate) })
}

func (g *gatedTransformer) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func startDaemon(t *testing.T, cfg *config.Config, opts ...daemon.Option) (*daemon.Daemon, *httptest.Server) {
	t.Helper()
	d, err := daemon.New(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = d.Close()
	})
	return d, srv
}

func handlerConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Paths.APIBind = ""
	return cfg
}

func writeSources(t *testing.T, dir string, names ...string) {
	t.Helper()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, name := range names {
		testsupport.WriteSource(t, filepath.Join(dir, name), base.Add(time.Duration(i)*time.Second))
	}
}

func previewOf(dir, name string) string {
	return filepath.Join(dir, "_preview", strings.TrimSuffix(name, filepath.Ext(name))+".webp")
}

func getPreview(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/preview?path="+url.QueryEscape(path), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET preview: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func postJSON(t *testing.T, srv *httptest.Server, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestEndToEndThreeFiles(t *testing.T) {
	cfg := handlerConfig(t, testsupport.WithStubMagick())
	d, srv := startDaemon(t, cfg)

	dir := filepath.Join(testsupport.BaseDir(cfg), "shoot")
	writeSources(t, dir, "DSC001.ARW", "DSC002.ARW", "DSC003.ARW")

	resp := postJSON(t, srv, "/api/dirs", map[string]string{"path": dir})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open dir status %d", resp.StatusCode)
	}
	var opened daemon.ImageDir
	if err := json.NewDecoder(resp.Body).Decode(&opened); err != nil {
		t.Fatalf("decode open response: %v", err)
	}
	if opened.DirName != "shoot" || len(opened.Images) != 3 || opened.Pending != 3 || opened.BatchID == "" {
		t.Fatalf("unexpected open response: %+v", opened)
	}
	if opened.Images[1].PreviewPath != previewOf(dir, "DSC002.ARW") || opened.Images[1].State != cullmeta.StateNew {
		t.Fatalf("unexpected second image: %+v", opened.Images[1])
	}

	second := getPreview(t, srv, previewOf(dir, "DSC002.ARW"))
	if second.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for second file, got %d", second.StatusCode)
	}
	if ct := second.Header.Get("Content-Type"); ct != "image/webp" {
		t.Fatalf("unexpected content type %q", ct)
	}
	got, err := io.ReadAll(second.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, testsupport.WebP(64, 48)) {
		t.Fatalf("unexpected preview bytes %x", got)
	}

	unknown := getPreview(t, srv, filepath.Join(dir, "_preview", "nope.webp"))
	if unknown.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", unknown.StatusCode)
	}

	for _, name := range []string{"DSC001.ARW", "DSC003.ARW"} {
		if resp := getPreview(t, srv, previewOf(dir, name)); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", name, resp.StatusCode)
		}
	}
	if stats := d.Status(context.Background()).Pool; stats.Generated != 3 {
		t.Fatalf("expected 3 generated previews, got %+v", stats)
	}
}

func TestPreviewBlocksUntilGenerated(t *testing.T) {
	cfg := handlerConfig(t, testsupport.WithWorkers(1))
	gated := newGatedTransformer()
	d, srv := startDaemon(t, cfg, daemon.WithTransformer(gated))

	dir := filepath.Join(testsupport.BaseDir(cfg), "shoot")
	writeSources(t, dir, "a.ARW", "b.ARW")
	if _, err := d.OpenDir(context.Background(), dir); err != nil {
		t.Fatalf("OpenDir: %v", err)
	}

	done := make(chan int, 1)
	go func() {
		resp, err := http.Get(srv.URL + "/preview?path=" + url.QueryEscape(previewOf(dir, "a.ARW")))
		if err != nil {
			done <- -1
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	select {
	case code := <-done:
		t.Fatalf("request returned %d before generation finished", code)
	case <-time.After(50 * time.Millisecond):
	}

	gated.release()
	select {
	case code := <-done:
		if code != http.StatusOK {
			t.Fatalf("expected 200 after generation, got %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete after generation")
	}
}

func TestDirectorySwitchDropsPreviousJobs(t *testing.T) {
	cfg := handlerConfig(t, testsupport.WithWorkers(1))
	gated := newGatedTransformer()
	d, srv := startDaemon(t, cfg, daemon.WithTransformer(gated))

	base := testsupport.BaseDir(cfg)
	dirA := filepath.Join(base, "A")
	dirB := filepath.Join(base, "B")
	writeSources(t, dirA, "a1.ARW", "a2.ARW")
	writeSources(t, dirB, "b1.ARW")

	if _, err := d.OpenDir(context.Background(), dirA); err != nil {
		t.Fatalf("OpenDir A: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for gated.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	waiting := make(chan int, 1)
	go func() {
		resp, err := http.Get(srv.URL + "/preview?path=" + url.QueryEscape(previewOf(dirA, "a1.ARW")))
		if err != nil {
			waiting <- -1
			return
		}
		resp.Body.Close()
		waiting <- resp.StatusCode
	}()
	time.Sleep(20 * time.Millisecond)

	if _, err := d.OpenDir(context.Background(), dirB); err != nil {
		t.Fatalf("OpenDir B: %v", err)
	}
	select {
	case code := <-waiting:
		if code != http.StatusNotFound {
			t.Fatalf("expected waiter on previous directory to get 404, got %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiter on previous directory was not released")
	}

	gated.release()
	if resp := getPreview(t, srv, previewOf(dirB, "b1.ARW")); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected B preview, got %d", resp.StatusCode)
	}

	if _, err := os.Stat(previewOf(dirA, "a1.ARW")); !os.IsNotExist(err) {
		t.Fatalf("expected no preview for abandoned job, stat err %v", err)
	}
	cache := d.Cache()
	for _, name := range []string{"a1.ARW", "a2.ARW"} {
		if cache.Tracked(previewOf(dirA, name)) {
			t.Fatalf("%s reappeared in the status map", name)
		}
	}
	if dir := d.ActiveDir(); dir != dirB {
		t.Fatalf("unexpected active dir %q", dir)
	}
}

func TestExistingPreviewIsServedWithoutGeneration(t *testing.T) {
	cfg := handlerConfig(t, testsupport.WithStubMagick())
	d, srv := startDaemon(t, cfg)

	dir := filepath.Join(testsupport.BaseDir(cfg), "shoot")
	writeSources(t, dir, "a.ARW", "b.ARW")
	testsupport.WriteBytes(t, previewOf(dir, "a.ARW"), testsupport.WebP(4, 4))

	opened, err := d.OpenDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	if opened.Pending != 1 {
		t.Fatalf("expected 1 pending preview, got %d", opened.Pending)
	}
	if d.Cache().Tracked(previewOf(dir, "a.ARW")) {
		t.Fatal("existing preview must not be tracked")
	}

	resp := getPreview(t, srv, previewOf(dir, "a.ARW"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected existing preview to be served, got %d", resp.StatusCode)
	}
	got, _ := io.ReadAll(resp.Body)
	if !bytes.Equal(got, testsupport.WebP(4, 4)) {
		t.Fatal("expected the pre-existing preview bytes")
	}
}

func TestFailedPreviewReturns500(t *testing.T) {
	cfg := handlerConfig(t, testsupport.WithStubMagick())
	d, srv := startDaemon(t, cfg)

	dir := filepath.Join(testsupport.BaseDir(cfg), "shoot")
	writeSources(t, dir, "corrupt.ARW", "good.ARW")
	if _, err := d.OpenDir(context.Background(), dir); err != nil {
		t.Fatalf("OpenDir: %v", err)
	}

	resp := getPreview(t, srv, previewOf(dir, "corrupt.ARW"))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for failed generation, got %d", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(payload["error"], "no decode delegate") {
		t.Fatalf("expected converter output in error, got %q", payload["error"])
	}
	if resp := getPreview(t, srv, previewOf(dir, "good.ARW")); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected unaffected preview to succeed, got %d", resp.StatusCode)
	}
}

func TestPreviewRequestValidation(t *testing.T) {
	cfg := handlerConfig(t)
	_, srv := startDaemon(t, cfg)

	resp, err := http.Get(srv.URL + "/preview")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without path, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/preview?path=/x.webp", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", resp.StatusCode)
	}
}

func TestHealthReportsUptime(t *testing.T) {
	cfg := handlerConfig(t)
	_, srv := startDaemon(t, cfg)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	req.Header.Set(daemon.RequestIDHeader, "req-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(daemon.RequestIDHeader); got != "req-42" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload["status"] != "OK" || !strings.HasSuffix(payload["uptime"], " second(s)") {
		t.Fatalf("unexpected health payload: %v", payload)
	}
}

func TestOpenDirErrors(t *testing.T) {
	cfg := handlerConfig(t)
	d, srv := startDaemon(t, cfg)
	base := testsupport.BaseDir(cfg)

	empty := filepath.Join(base, "empty")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(base, "file.txt")
	testsupport.WriteBytes(t, file, []byte("x"))

	cases := []struct {
		name string
		body any
		want int
	}{
		{name: "missing path", body: map[string]string{}, want: http.StatusBadRequest},
		{name: "not a directory", body: map[string]string{"path": file}, want: http.StatusBadRequest},
		{name: "does not exist", body: map[string]string{"path": filepath.Join(base, "nope")}, want: http.StatusBadRequest},
		{name: "no images", body: map[string]string{"path": empty}, want: http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if resp := postJSON(t, srv, "/api/dirs", tc.body); resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}

	if _, err := d.OpenDir(context.Background(), empty); !errors.Is(err, images.ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
	if _, err := d.OpenDir(context.Background(), file); !errors.Is(err, daemon.ErrInvalidDir) {
		t.Fatalf("expected ErrInvalidDir, got %v", err)
	}
}

func TestOpenDirRollsBackWhenDispatchTimesOut(t *testing.T) {
	cfg := handlerConfig(t, testsupport.WithWorkers(1))
	gated := newGatedTransformer()
	d, srv := startDaemon(t, cfg, daemon.WithTransformer(gated))
	t.Cleanup(gated.release)

	base := testsupport.BaseDir(cfg)
	dirA := filepath.Join(base, "A")
	dirB := filepath.Join(base, "B")
	dirC := filepath.Join(base, "C")
	writeSources(t, dirA, "a1.ARW", "a2.ARW", "a3.ARW")
	writeSources(t, dirB, "b1.ARW")
	writeSources(t, dirC, "c0.ARW", "c1.ARW")
	testsupport.WriteSource(t, previewOf(dirC, "c0.ARW"), time.Now())

	if _, err := d.OpenDir(context.Background(), dirA); err != nil {
		t.Fatalf("OpenDir A: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for gated.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// A's first job holds the only worker, so B waits in the dispatch slot.
	if _, err := d.OpenDir(context.Background(), dirB); err != nil {
		t.Fatalf("OpenDir B: %v", err)
	}

	cPending := previewOf(dirC, "c1.ARW")
	waiter := make(chan string, 1)
	go func() {
		until := time.Now().Add(2 * time.Second)
		for !d.Cache().Tracked(cPending) && time.Now().Before(until) {
			time.Sleep(time.Millisecond)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		lookup, err := d.Cache().Await(ctx, cPending)
		if err != nil {
			waiter <- err.Error()
			return
		}
		waiter <- lookup.State.String()
	}()

	openErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		_, err := d.OpenDir(ctx, dirC)
		openErr <- err
	}()

	for d.ActiveDir() != dirC && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if resp := getPreview(t, srv, previewOf(dirC, "c0.ARW")); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected existing preview of the opening directory, got %d", resp.StatusCode)
	}

	var err error
	select {
	case err = <-openErr:
	case <-time.After(5 * time.Second):
		t.Fatal("OpenDir C did not return")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	select {
	case state := <-waiter:
		if state != "not_tracked" {
			t.Fatalf("expected waiter on abandoned open to see not_tracked, got %q", state)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiter on abandoned open was not released")
	}

	if dir := d.ActiveDir(); dir != dirB {
		t.Fatalf("expected active dir to fall back to B, got %q", dir)
	}
	if d.Cache().Tracked(cPending) {
		t.Fatal("abandoned open left its preview tracked")
	}
	if resp := getPreview(t, srv, cPending); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for abandoned preview, got %d", resp.StatusCode)
	}
}

func TestStopFailsPendingPreviews(t *testing.T) {
	cfg := handlerConfig(t, testsupport.WithWorkers(1))
	gated := newGatedTransformer()
	d, srv := startDaemon(t, cfg, daemon.WithTransformer(gated))

	dir := filepath.Join(testsupport.BaseDir(cfg), "shoot")
	writeSources(t, dir, "a.ARW", "b.ARW", "c.ARW")
	if _, err := d.OpenDir(context.Background(), dir); err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for gated.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	codes := make(chan int, 1)
	go func() {
		resp, err := http.Get(srv.URL + "/preview?path=" + url.QueryEscape(previewOf(dir, "a.ARW")))
		if err != nil {
			codes <- -1
			return
		}
		resp.Body.Close()
		codes <- resp.StatusCode
	}()
	time.Sleep(20 * time.Millisecond)

	d.Stop()
	select {
	case code := <-codes:
		if code != http.StatusInternalServerError {
			t.Fatalf("expected 500 for a preview dropped at stop, got %d", code)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("preview waiter was not released by Stop")
	}
	if stats := d.Cache().Snapshot(); stats.Pending != 0 {
		t.Fatalf("expected no pending entries after stop, got %+v", stats)
	}
}

func TestOpenDirAfterStopReportsDispatchClosed(t *testing.T) {
	cfg := handlerConfig(t)
	d, err := daemon.New(cfg, logging.NewNop(), daemon.WithTransformer(newGatedTransformer()))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	d.Stop()

	dir := filepath.Join(testsupport.BaseDir(cfg), "shoot")
	writeSources(t, dir, "a.ARW")
	srv := httptest.NewServer(d.Handler())
	defer srv.Close()
	if resp := postJSON(t, srv, "/api/dirs", map[string]string{"path": dir}); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestCullEndpoint(t *testing.T) {
	cfg := handlerConfig(t, testsupport.WithStubMagick())
	d, srv := startDaemon(t, cfg)

	dir := filepath.Join(testsupport.BaseDir(cfg), "shoot")
	writeSources(t, dir, "a.ARW", "b.ARW")
	if _, err := d.OpenDir(context.Background(), dir); err != nil {
		t.Fatalf("OpenDir: %v", err)
	}

	resp := postJSON(t, srv, "/api/cull", map[string]string{
		previewOf(dir, "a.ARW"): "selected",
		previewOf(dir, "b.ARW"): "rejected",
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if meta := cullmeta.ReadOrDefault(previewOf(dir, "a.ARW")); meta.CullState != cullmeta.StateSelected {
		t.Fatalf("unexpected sidecar state %q", meta.CullState)
	}

	if resp := postJSON(t, srv, "/api/cull", map[string]string{previewOf(dir, "a.ARW"): "maybe"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown state, got %d", resp.StatusCode)
	}
	if resp := postJSON(t, srv, "/api/cull", map[string]string{"/elsewhere/_preview/x.webp": "selected"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for path outside the active directory, got %d", resp.StatusCode)
	}

	reopened, err := d.OpenDir(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Images[1].State != cullmeta.StateRejected {
		t.Fatalf("expected reopened directory to carry sidecar state, got %q", reopened.Images[1].State)
	}
}

func TestListenerConfigAndStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubMagick())
	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	addr := d.Addr()
	if addr == "" {
		t.Fatal("expected listener address")
	}

	resp, err := http.Get("http://" + addr + "/api/config")
	if err != nil {
		t.Fatal(err)
	}
	var cfgPayload map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&cfgPayload)
	resp.Body.Close()
	if cfgPayload["previewApiUrl"] != "http://"+addr {
		t.Fatalf("unexpected previewApiUrl %q", cfgPayload["previewApiUrl"])
	}

	resp, err = http.Get("http://" + addr + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	var status daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	resp.Body.Close()
	if !status.Running || status.Address != addr || status.Pool.Workers != cfg.Preview.Workers {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(status.Dependencies) != 1 || !status.Dependencies[0].Available {
		t.Fatalf("expected stubbed magick to be reported available: %+v", status.Dependencies)
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := handlerConfig(t)
	d, _ := startDaemon(t, cfg)

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}

	other, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Start(context.Background()); err == nil {
		other.Stop()
		t.Fatal("expected lock to prevent a second daemon")
	}

	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{in: 1500 * time.Millisecond, want: "1.50 second(s)"},
		{in: 60 * time.Second, want: "60.00 second(s)"},
		{in: 90 * time.Second, want: "1.50 minute(s)"},
		{in: time.Hour, want: "60.00 minute(s)"},
		{in: 90 * time.Minute, want: "1.50 hour(s)"},
	}
	for _, tc := range cases {
		if got := daemon.FormatUptime(tc.in); got != tc.want {
			t.Fatalf("FormatUptime(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
