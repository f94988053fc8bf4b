package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brickfoundation/referral-service/internal/delivery/http/dto/response"
	"github.com/brickfoundation/referral-service/internal/delivery/http/middleware"
	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/kafka"
	"github.com/brickfoundation/referral-service/internal/infrastructure/linksigner"
	"github.com/brickfoundation/referral-service/internal/infrastructure/memory"
	"github.com/brickfoundation/referral-service/internal/infrastructure/metrics"
	"github.com/brickfoundation/referral-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	webhookSecret = "webhook-secret"
	adminKey      = "admin-key"
)

type testServer struct {
	router *gin.Engine
	store  *memory.Store
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testTiers() []domain.ReferralTier {
	return []domain.ReferralTier{
		{ID: "starter", Name: "Starter", Level: 1, MinReferrals: 0, RewardMultiplier: decimal.NewFromInt(1)},
		{ID: "builder", Name: "Builder", Level: 2, MinReferrals: 2, RewardMultiplier: decimal.NewFromFloat(1.5)},
	}
}

func newTestServer(t *testing.T, override func(*RouterDeps)) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.NewReferralMetrics(reg)
	store := memory.NewStore(testTiers())
	events := kafka.NewLogEventPublisher(log)
	policy := usecase.DefaultPolicy()

	signer, err := linksigner.New("link-secret", time.Hour, "https://brickfoundation.org/join")
	require.NoError(t, err)

	links, err := usecase.NewDefaultLinkUsecase(store, signer, m, log, policy)
	require.NoError(t, err)
	referrals := usecase.NewDefaultReferralUsecase(store, events, signer, m, log, policy)

	deps := RouterDeps{
		Referrals:     referrals,
		Payments:      usecase.NewDefaultPaymentUsecase(store, events, links, referrals, m, log, policy),
		Links:         links,
		Rewards:       usecase.NewDefaultRewardUsecase(store, events, m, log),
		Stats:         usecase.NewDefaultStatsUsecase(store, log, policy),
		Notifications: usecase.NewDefaultNotificationUsecase(store),
		Gatherer:      reg,
		Log:           log,
		WebhookSecret: webhookSecret,
		RateLimit:     100,
		Burst:         100,
		AdminAPIKey:   adminKey,
	}
	if override != nil {
		override(&deps)
	}
	return &testServer{router: NewRouter(deps), store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) webhook(t *testing.T, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SignatureHeader, middleware.Sign(webhookSecret, raw))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, name, code string) string {
	t.Helper()
	id := uuid.NewString()
	w := s.do(t, http.MethodPost, "/api/v1/users", map[string]any{
		"user_id":       id,
		"email":         name + "@example.org",
		"full_name":     name,
		"referral_code": code,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return id
}

func (s *testServer) pay(t *testing.T, userID, txID string) response.PaymentResponse {
	t.Helper()
	w := s.webhook(t, paymentPayload(userID, txID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out response.PaymentResponse
	decode(t, w, &out)
	return out
}

func paymentPayload(userID, txID string) map[string]any {
	return map[string]any{
		"user_id":                 userID,
		"amount":                  "90000",
		"currency":                "UGX",
		"provider_transaction_id": txID,
		"provider":                "flutterwave",
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.register(t, "metrics", "")
	s.pay(t, id, "tx-metrics")

	w := s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "activation_payments_processed_total")
}

func TestRegisterUser(t *testing.T) {
	s := newTestServer(t, nil)
	id := uuid.NewString()
	body := map[string]any{"user_id": id, "email": "Ada@Example.org", "full_name": "Ada"}

	w := s.do(t, http.MethodPost, "/api/v1/users", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out response.RegisterUserResponse
	decode(t, w, &out)
	assert.True(t, out.Created)
	assert.Equal(t, id, out.User.ID)

	w = s.do(t, http.MethodPost, "/api/v1/users", body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterUserRejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing fields", map[string]any{"email": "a@example.org"}, http.StatusBadRequest},
		{"invalid email", map[string]any{"user_id": uuid.NewString(), "email": "nope", "full_name": "A"}, http.StatusBadRequest},
		{"non uuid id", map[string]any{"user_id": "42", "email": "a@example.org", "full_name": "A"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/users", tt.body, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRegisterUserWithUnknownCode(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/v1/users", map[string]any{
		"user_id":       uuid.NewString(),
		"email":         "b@example.org",
		"full_name":     "B",
		"referral_code": "missing",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out response.RegisterUserResponse
	decode(t, w, &out)
	assert.True(t, out.Created)
	assert.Empty(t, out.ReferrerID)
	assert.Equal(t, "missing", out.RejectedReferralCode)
}

func TestPaymentWebhookSignature(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.register(t, "sig", "")
	raw, err := json.Marshal(paymentPayload(id, "tx-sig"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		signature string
	}{
		{"missing", ""},
		{"not hex", "zz"},
		{"wrong secret", middleware.Sign("other", raw)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(raw))
			if tt.signature != "" {
				req.Header.Set(middleware.SignatureHeader, tt.signature)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	u, err := s.store.Repos().Users.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, u.IsActivated())
}

func TestPaymentWebhookIsIdempotent(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.register(t, "payer", "")

	first := s.pay(t, id, "tx-1")
	assert.True(t, first.Activated)
	assert.False(t, first.Duplicate)
	assert.Len(t, first.LinkCodes, 3)

	second := s.pay(t, id, "tx-1")
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.PaymentID, second.PaymentID)

	links, err := s.store.Repos().Links.ListLinksByUser(context.Background(), id, true)
	require.NoError(t, err)
	assert.Len(t, links, 3)
}

func TestPaymentWebhookErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.webhook(t, paymentPayload(uuid.NewString(), "tx-unknown"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	payload := paymentPayload(uuid.NewString(), "tx-negative")
	payload["amount"] = "-5"
	w = s.webhook(t, payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentWebhookRateLimited(t *testing.T) {
	s := newTestServer(t, func(d *RouterDeps) {
		d.RateLimit = 0.001
		d.Burst = 1
	})
	id := s.register(t, "limited", "")

	assert.Equal(t, http.StatusOK, s.webhook(t, paymentPayload(id, "tx-a")).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.webhook(t, paymentPayload(id, "tx-b")).Code)
}

func TestReferralFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	referrer := s.register(t, "ada", "")
	codes := s.pay(t, referrer, "tx-ada").LinkCodes
	require.NotEmpty(t, codes)

	friend := s.register(t, "grace", codes[0])
	s.pay(t, friend, "tx-grace")

	w := s.do(t, http.MethodGet, "/api/v1/users/"+referrer+"/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats response.StatsResponse
	decode(t, w, &stats)
	assert.False(t, stats.Degraded)
	assert.Equal(t, 1, stats.ActiveReferrals)
	assert.Equal(t, 0, stats.PendingReferrals)
	assert.True(t, stats.Rewards.Pending.Equal(decimal.NewFromInt(10)), stats.Rewards.Pending.String())
	require.NotNil(t, stats.Tier.Next)
	assert.Equal(t, "builder", stats.Tier.Next.ID)

	w = s.do(t, http.MethodGet, "/api/v1/users/"+referrer+"/tree?depth=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tree response.TreeResponse
	decode(t, w, &tree)
	require.NotNil(t, tree.Tree)
	require.Len(t, tree.Tree.Children, 1)
	assert.Equal(t, friend, tree.Tree.Children[0].ID)

	w = s.do(t, http.MethodGet, "/api/v1/leaderboard?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board response.LeaderboardResponse
	decode(t, w, &board)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, referrer, board.Entries[0].User.ID)
	assert.Equal(t, 1, board.Entries[0].Rank)

	w = s.do(t, http.MethodGet, "/api/v1/users/"+referrer+"/notifications?unread=true", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notes struct {
		Notifications []response.NotificationResponse `json:"notifications"`
	}
	decode(t, w, &notes)
	require.NotEmpty(t, notes.Notifications)

	w = s.do(t, http.MethodPost, "/api/v1/notifications/"+notes.Notifications[0].ID+"/read", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestActivityRouteRequiresAPIKey(t *testing.T) {
	s := newTestServer(t, nil)
	referrer := s.register(t, "ada", "")
	codes := s.pay(t, referrer, "tx-ada").LinkCodes
	require.NotEmpty(t, codes)
	friend := s.register(t, "grace", codes[0])
	s.pay(t, friend, "tx-grace")

	body := map[string]any{"user_id": friend, "activity_id": "forged-1"}
	w := s.do(t, http.MethodPost, "/api/v1/activities", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/activities", body, map[string]string{middleware.APIKeyHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	rewards := func() int {
		w := s.do(t, http.MethodGet, "/api/v1/users/"+referrer+"/rewards", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out struct {
			Rewards []response.RewardResponse `json:"rewards"`
		}
		decode(t, w, &out)
		return len(out.Rewards)
	}
	require.Equal(t, 1, rewards())

	auth := map[string]string{middleware.APIKeyHeader: adminKey}
	w = s.do(t, http.MethodPost, "/api/v1/activities", map[string]any{"user_id": friend, "activity_id": "lesson-1"}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, rewards())
}

func TestRewardAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	referrer := s.register(t, "ada", "")
	codes := s.pay(t, referrer, "tx-ada").LinkCodes
	friend := s.register(t, "grace", codes[0])
	s.pay(t, friend, "tx-grace")

	w := s.do(t, http.MethodGet, "/api/v1/users/"+referrer+"/rewards", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Rewards []response.RewardResponse `json:"rewards"`
	}
	decode(t, w, &list)
	require.Len(t, list.Rewards, 1)
	rewardID := list.Rewards[0].ID
	auth := map[string]string{middleware.APIKeyHeader: adminKey}

	w = s.do(t, http.MethodPost, "/admin/rewards/"+rewardID+"/approve", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodPost, "/admin/rewards/"+rewardID+"/approve", nil, map[string]string{middleware.APIKeyHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/admin/rewards/"+rewardID+"/approve", nil, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/admin/rewards/"+rewardID+"/pay", nil, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var paid response.RewardResponse
	decode(t, w, &paid)
	assert.Equal(t, string(domain.RewardPaid), paid.Status)
	assert.NotNil(t, paid.PaidAt)

	w = s.do(t, http.MethodPost, "/admin/rewards/"+rewardID+"/approve", nil, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/admin/rewards/"+uuid.NewString()+"/pay", nil, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLinkRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.register(t, "linker", "")

	w := s.do(t, http.MethodPost, "/api/v1/users/"+id+"/links", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unactivated users cannot hold links")

	s.pay(t, id, "tx-linker")
	w = s.do(t, http.MethodGet, "/api/v1/users/"+id+"/links?active=true", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Links []response.LinkResponse `json:"links"`
	}
	decode(t, w, &list)
	require.Len(t, list.Links, 3)
	assert.NotEmpty(t, list.Links[0].ShareURL)

	w = s.do(t, http.MethodGet, "/api/v1/users/"+id+"/links?active=maybe", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/links/resolve/not-a-token", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTreeDepthValidation(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.register(t, "root", "")

	for _, depth := range []string{"abc", "-1"} {
		w := s.do(t, http.MethodGet, "/api/v1/users/"+id+"/tree?depth="+depth, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, depth)
	}
}

func TestMaintenanceExpire(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/admin/maintenance/expire", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/admin/maintenance/expire", nil, map[string]string{middleware.APIKeyHeader: adminKey})
	require.Equal(t, http.StatusOK, w.Code)
	var out response.MaintenanceResponse
	decode(t, w, &out)
	assert.Zero(t, out.ReferralsExpired)
	assert.Zero(t, out.LinksExpired)
}

type brokenStats struct{}

var errStoreDown = errors.New("connection refused")

func (brokenStats) Stats(ctx context.Context, userID string) (*domain.ReferralStats, error) {
	return nil, errStoreDown
}

func (brokenStats) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return nil, errStoreDown
}

func (brokenStats) Tiers(ctx context.Context) ([]domain.ReferralTier, error) {
	return nil, errStoreDown
}

func (brokenStats) Tree(ctx context.Context, userID string, depth int) (*domain.TreeNode, error) {
	return nil, errStoreDown
}

func TestReadViewsFailSoft(t *testing.T) {
	s := newTestServer(t, func(d *RouterDeps) { d.Stats = brokenStats{} })
	id := uuid.NewString()

	w := s.do(t, http.MethodGet, "/api/v1/users/"+id+"/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats response.StatsResponse
	decode(t, w, &stats)
	assert.True(t, stats.Degraded)
	assert.Equal(t, id, stats.UserID)
	assert.Zero(t, stats.TotalReferrals)
	assert.True(t, stats.Rewards.Total.IsZero())

	w = s.do(t, http.MethodGet, "/api/v1/users/"+id+"/tree", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tree response.TreeResponse
	decode(t, w, &tree)
	assert.True(t, tree.Degraded)
	assert.Nil(t, tree.Tree)

	w = s.do(t, http.MethodGet, "/api/v1/leaderboard", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board response.LeaderboardResponse
	decode(t, w, &board)
	assert.True(t, board.Degraded)
	assert.Empty(t, board.Entries)

	w = s.do(t, http.MethodGet, "/api/v1/tiers", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded":true`)
}

func TestStatsUnknownUserIsNotDegraded(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/stats", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrSelfReferral, http.StatusBadRequest},
		{domain.ErrAlreadyReferred, http.StatusConflict},
		{domain.ErrReferralCycle, http.StatusUnprocessableEntity},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{errStoreDown, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
