package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/backend"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/resolver"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var viewer = domain.Viewer{ActorID: "u1", Token: "tok-123"}

func fakeService(t *testing.T, hits *atomic.Int32, requireAuth bool) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			hits.Add(1)
			if requireAuth && req.Header.Get("Authorization") != "Bearer tok-123" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if !requireAuth && req.Header.Get("Authorization") != "" {
				t.Errorf("public surface must not receive credentials")
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/campaigns/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		if id == "missing" {
			http.NotFound(w, req)
			return
		}
		time.Sleep(20 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(domain.CampaignView{ID: id, Active: true, Marketplaces: []string{"us", "gb"}})
	})
	r.Get("/products", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "p1,p2", req.URL.Query().Get("ids"))
		_ = json.NewEncoder(w).Encode([]domain.ProductSummary{{ID: "p1", ASIN: "A1"}, {ID: "p2", ASIN: "A2"}})
	})
	r.Post("/reviews", func(w http.ResponseWriter, req *http.Request) {
		var p domain.ReviewPayload
		require.NoError(t, json.NewDecoder(req.Body).Decode(&p))
		_ = json.NewEncoder(w).Encode(domain.Receipt{ReviewID: "rev-" + p.ASIN})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Privileged(t *testing.T) {
	var hits atomic.Int32
	srv := fakeService(t, &hits, true)
	c := backend.NewPrivileged(srv.URL)
	ctx := context.Background()

	campaign, err := c.Campaign(ctx, viewer, "camp-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"us", "gb"}, campaign.Marketplaces)

	products, err := c.Products(ctx, viewer, []string{"p1", "p2"})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	receipt, err := c.SubmitReview(ctx, viewer, domain.ReviewPayload{ASIN: domain.SellerSentinelASIN})
	require.NoError(t, err)
	assert.Equal(t, "rev-SELLER_FEEDBACK", receipt.ReviewID)
}

func TestClient_PrivilegedRejectsAnonymousLocally(t *testing.T) {
	var hits atomic.Int32
	srv := fakeService(t, &hits, true)
	c := backend.NewPrivileged(srv.URL)

	_, err := c.Campaign(context.Background(), domain.Anonymous(), "camp-1")
	assert.ErrorIs(t, err, backend.ErrUnauthenticated)
	assert.Zero(t, hits.Load())
}

func TestClient_StatusError(t *testing.T) {
	var hits atomic.Int32
	srv := fakeService(t, &hits, false)

	_, err := backend.NewPublic(srv.URL).Campaign(context.Background(), domain.Anonymous(), "missing")
	var statusErr *backend.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestClient_PublicCollapsesConcurrentFetches(t *testing.T) {
	var hits atomic.Int32
	srv := fakeService(t, &hits, false)
	c := backend.NewPublic(srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Campaign(context.Background(), domain.Anonymous(), "camp-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, hits.Load(), int32(8))
}

func TestClient_PublicSharedFetchSurvivesCallerCancel(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-req.Context().Done():
			return
		}
		_ = json.NewEncoder(w).Encode(domain.CampaignView{ID: "camp-1", Active: true})
	}))
	t.Cleanup(srv.Close)
	c := backend.NewPublic(srv.URL)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Campaign(firstCtx, domain.Anonymous(), "camp-1")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		campaign domain.CampaignView
		err      error
	}
	second := make(chan result, 1)
	go func() {
		campaign, err := c.Campaign(context.Background(), domain.Anonymous(), "camp-1")
		second <- result{campaign, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Equal(t, "camp-1", res.campaign.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestBackend_FallsBackThroughResolver(t *testing.T) {
	var privHits, pubHits atomic.Int32
	priv := fakeService(t, &privHits, true)
	pub := fakeService(t, &pubHits, false)

	r := resolver.New(backend.New(priv.URL, pub.URL, backend.WithTimeout(time.Second)))
	res := r.Campaign(context.Background(), domain.Anonymous(), "camp-1", false)

	require.True(t, res.OK())
	assert.Equal(t, resolver.Fallback, res.Outcome)
	assert.Zero(t, privHits.Load(), "anonymous viewers never reach the privileged service")
	assert.Equal(t, int32(1), pubHits.Load())
}
