package cli

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
campaigns:
  - id: spring-sale
    active: true
    promotion:
      id: promo-1
      title: Free gift card
      type: gift_card
    product_ids: [p1]
    marketplaces: [us]
products:
  - id: p1
    title: Kettle
    asin: B000KETTLE
`

func ptr[T any](v T) *T { return &v }

func build(t *testing.T, cfg config.Config) *App {
	t.Helper()
	require.NoError(t, cfg.Validate())
	app, err := Build(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func encodedKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func TestBuild_DemoOnly(t *testing.T) {
	ctx := context.Background()
	app := build(t, config.Default())

	s, err := app.Engine.Mount(ctx, domain.Anonymous(), domain.DemoCampaignID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseActive, s.Phase)

	s, err = app.Engine.Mount(ctx, domain.Anonymous(), "spring-sale")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseError, s.Phase, "no fixtures, only the demo resolves")
}

func TestBuild_RedisStoreIsEncrypted(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Store.Driver = config.StoreRedis
	cfg.Store.RedisAddr = mr.Addr()
	cfg.Store.EncryptionKey = encodedKey(t)
	app := build(t, cfg)

	s, err := app.Engine.Mount(ctx, domain.Anonymous(), domain.DemoCampaignID)
	require.NoError(t, err)
	_, err = app.Engine.Update(ctx, s.ID, domain.FormPatch{Email: ptr("ada@example.com")})
	require.NoError(t, err)

	raw, err := mr.Get(cfg.Store.Prefix + s.ID)
	require.NoError(t, err)
	assert.NotContains(t, raw, "ada@example.com")

	got, err := app.Engine.Session(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Form.Email)
}

func TestBuild_RedisUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.StoreRedis
	cfg.Store.RedisAddr = "127.0.0.1:1"
	_, err := Build(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "redis unavailable")
}

func TestBuild_BadEncryptionKey(t *testing.T) {
	cfg := config.Default()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
	_, err := Build(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestBuild_FixturesAndPixelTracking(t *testing.T) {
	ctx := context.Background()

	var (
		mu     sync.Mutex
		events []map[string]any
	)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		events = append(events, body)
		mu.Unlock()
	}))
	defer collector.Close()

	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))

	cfg := config.Default()
	cfg.Backend.Fixtures = path
	cfg.Tracking.PixelURL = collector.URL
	app, err := Build(ctx, cfg, logging.NewNop())
	require.NoError(t, err)

	s, err := app.Engine.Mount(ctx, domain.Anonymous(), "spring-sale")
	require.NoError(t, err)
	require.Equal(t, domain.PhaseActive, s.Phase)

	_, err = app.Engine.Update(ctx, s.ID, domain.FormPatch{
		Target:        ptr("p1"),
		Marketplace:   ptr("us"),
		OrderID:       ptr("111-222"),
		Rating:        ptr(5),
		UsedSevenDays: ptr(true),
	})
	require.NoError(t, err)
	s, err = app.Engine.Advance(ctx, domain.Anonymous(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepContactInfo, s.CurrentStep)

	// Close flushes the dispatcher.
	require.NoError(t, app.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	assert.Equal(t, "step_completed", events[0]["event"])
}

func TestRunSession_JSON(t *testing.T) {
	app := build(t, config.Default())
	var out bytes.Buffer

	err := RunSession(context.Background(), app, RunOptions{
		JSON: true,
		In:   strings.NewReader(":quit\n"),
		Out:  &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"type":"view"`)
	assert.Contains(t, out.String(), `"kind":"select_target"`)

	ids, err := app.Engine.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids, "session is unmounted when the run ends")
}

func TestRunSession_EndOfInputIsClean(t *testing.T) {
	app := build(t, config.Default())
	var out bytes.Buffer

	err := RunSession(context.Background(), app, RunOptions{In: strings.NewReader(""), Out: &out})
	assert.NoError(t, err)
	assert.NotEmpty(t, out.String())
}

func TestRunSession_FailedCampaign(t *testing.T) {
	app := build(t, config.Default())
	err := RunSession(context.Background(), app, RunOptions{
		CampaignID: "unknown",
		In:         strings.NewReader(""),
		Out:        &bytes.Buffer{},
	})
	assert.ErrorIs(t, err, domain.ErrSessionFailed)
}

func TestHandler(t *testing.T) {
	app := build(t, config.Default())
	srv := httptest.NewServer(Handler(app))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	app := build(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, Serve(ctx, app))
}

func TestServeMCP_UnknownTransport(t *testing.T) {
	app := build(t, config.Default())
	assert.Error(t, ServeMCP(context.Background(), app, "carrier-pigeon", 0))
}
