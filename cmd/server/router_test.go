package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "kitties/internal/jwt_token"
	"kitties/internal/kitty/counter"
	"kitties/internal/kitty/events"
	"kitties/internal/kitty/handler"
	kittymetrics "kitties/internal/kitty/metrics"
	"kitties/internal/kitty/models"
	"kitties/internal/kitty/service"
	"kitties/internal/kitty/store"
	"kitties/internal/platform/health"
	"kitties/internal/platform/metrics"
	id "kitties/pkg/domain"
	"kitties/pkg/testutil"
)

const (
	createdDNA = "0x06850eba51cb1195d01e9b316a9a677beea5ba76c1b311524ca055faec4a15f4"
	createdCID = "bafkreiagquhluuolcgk5ahu3gfvjuz3352s3u5wbwmivetfakx5oysqv6q"
)

var (
	alice = testutil.Account(0x0a)
	bob   = testutil.Account(0x0b)
)

type testServer struct {
	router http.Handler
	jwt    *jwttoken.JWTService
	store  *store.InMemoryStore
	sink   *events.MemorySink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kitties := store.NewInMemoryStore()
	sink := events.NewMemorySink()

	svc := service.New(kitties, counter.Fixed(10),
		service.WithLogger(logger),
		service.WithMetrics(kittymetrics.NewWithRegisterer(prometheus.NewRegistry())),
		service.WithPublisher(sink),
	)
	healthHandler := health.New(logger).
		Add("memory", func(context.Context) error { return nil }).
		WithCount(svc.Count)

	jwtService := jwttoken.NewJWTService("router-test-key", "kitties", "kitties-api")
	router := newRouter(logger, metrics.NewWithRegisterer(prometheus.NewRegistry()), healthHandler,
		handler.New(svc, logger), jwttoken.NewJWTServiceAdapter(jwtService))

	return &testServer{router: router, jwt: jwtService, store: kitties, sink: sink}
}

func (s *testServer) createKitty(t *testing.T, caller, owner id.AccountID, dnaHex string) *http.Response {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/kitties", handler.CreateKittyRequest{
		Owner: owner.String(),
		DNA:   dnaHex,
	})
	token, err := s.jwt.GenerateCallerToken(caller, time.Minute)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return testutil.DoRequest(s.router, req).Result()
}

func TestRouter_KittyScenarios(t *testing.T) {
	s := newTestServer(t)

	testutil.Given(t, "alice creates [1,2,3,4] at block 10", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/kitties", handler.CreateKittyRequest{
			Owner: alice.String(),
			DNA:   "01020304",
		})
		token, err := s.jwt.GenerateCallerToken(alice, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := testutil.DoRequest(s.router, req)

		testutil.Then(t, "the kitty is created with a content-derived dna", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusCreated)
			resp := testutil.UnmarshalResponse[handler.KittyResponse](t, rr)
			assert.Equal(t, createdDNA, resp.DNA)
			assert.Equal(t, createdCID, resp.CID)
			assert.Equal(t, alice.String(), resp.Owner)
			assert.Equal(t, "male", resp.Gender)
			assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		})

		testutil.And(t, "exactly one Created event is emitted", func(t *testing.T) {
			evts := s.sink.Events()
			require.Len(t, evts, 1)
			created, ok := evts[0].(models.Created)
			require.True(t, ok)
			assert.Equal(t, alice, created.Owner)
			assert.Equal(t, createdDNA, created.Kitty.String())
		})
	})

	testutil.When(t, "alice repeats the same creation", func(t *testing.T) {
		resp := s.createKitty(t, alice, alice, "01020304")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		n, err := s.store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Len(t, s.sink.Events(), 1)
	})

	testutil.When(t, "bob creates [9] on behalf of alice", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/kitties", handler.CreateKittyRequest{
			Owner: alice.String(),
			DNA:   "09",
		})
		token, err := s.jwt.GenerateCallerToken(bob, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(models.ReasonNotOwner))
		n, err := s.store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestRouter_DuplicateErrorEnvelope(t *testing.T) {
	s := newTestServer(t)
	first := s.createKitty(t, alice, alice, "0102")
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/kitties", handler.CreateKittyRequest{
		Owner: alice.String(),
		DNA:   "0102",
	})
	token, err := s.jwt.GenerateCallerToken(alice, time.Minute)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	testutil.AssertStatusAndError(t, testutil.DoRequest(s.router, req), http.StatusConflict, string(models.ReasonDuplicateKitty))
}

func TestRouter_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/kitties", handler.CreateKittyRequest{
		Owner: alice.String(),
		DNA:   "01",
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	expired, err := s.jwt.GenerateCallerToken(alice, -time.Minute)
	require.NoError(t, err)
	req = testutil.NewJSONRequest(t, http.MethodPost, "/debug/log", handler.DebugLogRequest{Message: "hi"})
	req.Header.Set("Authorization", "Bearer "+expired)
	testutil.AssertStatus(t, testutil.DoRequest(s.router, req), http.StatusUnauthorized)
}

func TestRouter_DebugLog(t *testing.T) {
	s := newTestServer(t)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/debug/log", handler.DebugLogRequest{Message: "checkpoint"})
	token, err := s.jwt.GenerateCallerToken(bob, time.Minute)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	testutil.AssertStatus(t, testutil.DoRequest(s.router, req), http.StatusNoContent)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	created := s.createKitty(t, alice, alice, "01020304")
	created.Body.Close()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "kitties", float64(1))

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
}
