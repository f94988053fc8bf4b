//go:build integration

package repository

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/brickfoundation/referral-service/internal/domain"
	"github.com/brickfoundation/referral-service/internal/infrastructure/migrate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run with a disposable database:
//
//	REFERRAL_TEST_DB_DSN=postgres://... go test -tags integration ./internal/infrastructure/postgres/repository/
const dsnEnv = "REFERRAL_TEST_DB_DSN"

// testTx opens a migrated database and returns a transaction that is rolled
// back when the test ends.
func testTx(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, migrate.RunMigrations(db, "../../../../migrations", slog.New(slog.NewTextHandler(io.Discard, nil))))

	tx := db.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		tx.Rollback()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return tx
}

func createUser(t *testing.T, db *gorm.DB, name string) string {
	t.Helper()
	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        name + "-" + uuid.NewString()[:8] + "@example.org",
		FullName:     name,
		Role:         domain.RoleUser,
		Status:       domain.UserStatusActive,
		PaymentState: domain.PaymentStateUnpaid,
		TierLevel:    1,
		TotalRewards: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewDefaultUserRepository(db).CreateUser(context.Background(), user))
	return user.ID
}

func createEdge(t *testing.T, db *gorm.DB, referrerID, referredID string, status domain.ReferralStatus) {
	t.Helper()
	err := NewDefaultReferralRepository(db).CreateReferral(context.Background(), &domain.Referral{
		ID:            uuid.NewString(),
		ReferrerID:    referrerID,
		ReferredID:    referredID,
		ReferredEmail: referredID + "@example.org",
		Source:        domain.SourceLink,
		Status:        status,
		TotalRewards:  decimal.Zero,
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
}

func TestIsAncestorFollowsReferrerChain(t *testing.T) {
	db := testTx(t)
	repo := NewDefaultReferralRepository(db)
	ctx := context.Background()

	root := createUser(t, db, "root")
	mid := createUser(t, db, "mid")
	leaf := createUser(t, db, "leaf")
	other := createUser(t, db, "other")
	createEdge(t, db, root, mid, domain.ReferralActive)
	createEdge(t, db, mid, leaf, domain.ReferralPending)

	tests := []struct {
		name      string
		candidate string
		user      string
		want      bool
	}{
		{"direct referrer", mid, leaf, true},
		{"grandparent", root, leaf, true},
		{"descendant is not an ancestor", leaf, root, false},
		{"unrelated user", other, leaf, false},
		{"user without referrer", root, root, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.IsAncestor(ctx, tt.candidate, tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubtreeReturnsActiveEdgesUpToDepth(t *testing.T) {
	db := testTx(t)
	repo := NewDefaultReferralRepository(db)
	ctx := context.Background()

	root := createUser(t, db, "root")
	child := createUser(t, db, "child")
	pendingChild := createUser(t, db, "pending")
	grandchild := createUser(t, db, "grandchild")
	great := createUser(t, db, "great")
	createEdge(t, db, root, child, domain.ReferralActive)
	createEdge(t, db, root, pendingChild, domain.ReferralPending)
	createEdge(t, db, child, grandchild, domain.ReferralActive)
	createEdge(t, db, grandchild, great, domain.ReferralActive)

	edges, err := repo.Subtree(ctx, root, 2)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, root, edges[0].ReferrerID)
	assert.Equal(t, child, edges[0].Referred.ID)
	assert.Equal(t, 1, edges[0].Depth)
	assert.Equal(t, child, edges[1].ReferrerID)
	assert.Equal(t, grandchild, edges[1].Referred.ID)
	assert.Equal(t, 2, edges[1].Depth)

	edges, err = repo.Subtree(ctx, root, 5)
	require.NoError(t, err)
	assert.Len(t, edges, 3)
}

func TestSecondReferrerIsRejected(t *testing.T) {
	db := testTx(t)
	repo := NewDefaultReferralRepository(db)

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")
	createEdge(t, db, a, c, domain.ReferralPending)

	err := repo.CreateReferral(context.Background(), &domain.Referral{
		ID:            uuid.NewString(),
		ReferrerID:    b,
		ReferredID:    c,
		ReferredEmail: "c@example.org",
		Source:        domain.SourceLink,
		Status:        domain.ReferralPending,
		TotalRewards:  decimal.Zero,
		CreatedAt:     time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyReferred)
}

func TestCreateRewardIfAbsentIsIdempotent(t *testing.T) {
	db := testTx(t)
	repo := NewDefaultRewardRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "earner")

	reward := func() *domain.ReferralReward {
		return &domain.ReferralReward{
			ID:        uuid.NewString(),
			UserID:    user,
			EventKey:  "activity:" + user + ":lesson-1",
			Amount:    decimal.NewFromInt(25),
			Type:      domain.RewardActivity,
			Status:    domain.RewardPending,
			CreatedAt: time.Now(),
		}
	}

	created, err := repo.CreateRewardIfAbsent(ctx, reward())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateRewardIfAbsent(ctx, reward())
	require.NoError(t, err)
	assert.False(t, created)

	rewards, err := repo.ListRewardsByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, rewards, 1)

	sums, err := repo.SumRewardsByStatus(ctx, user)
	require.NoError(t, err)
	assert.True(t, sums[domain.RewardPending].Equal(decimal.NewFromInt(25)), sums[domain.RewardPending].String())
}

func TestCreatePaymentIfAbsentIsIdempotent(t *testing.T) {
	db := testTx(t)
	repo := NewDefaultPaymentRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "payer")

	payment := func() *domain.Payment {
		return &domain.Payment{
			ID:                    uuid.NewString(),
			UserID:                user,
			Provider:              "flutterwave",
			ProviderTransactionID: "tx-" + user,
			Amount:                decimal.NewFromInt(90000),
			Currency:              "UGX",
			Status:                domain.PaymentCompleted,
			CreatedAt:             time.Now(),
		}
	}

	created, err := repo.CreatePaymentIfAbsent(ctx, payment())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreatePaymentIfAbsent(ctx, payment())
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := repo.GetPaymentByProviderTxID(ctx, "tx-"+user)
	require.NoError(t, err)
	assert.Equal(t, user, stored.UserID)
}
