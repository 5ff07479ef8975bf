package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	testingutil "github.com/amirphl/Hotspot-Ledger/testing"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// withDB runs fn against a fresh database and skips when PostgreSQL is not reachable
func withDB(t *testing.T, fn func(t *testing.T, db *testingutil.TestDB)) {
	t.Helper()
	if testing.Short() {
		t.Skip("repository tests need PostgreSQL")
	}
	db, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("PostgreSQL unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := db.TeardownTestDB(); err != nil {
			t.Logf("teardown: %v", err)
		}
	})
	fn(t, db)
}

func TestTraderRepository(t *testing.T) {
	withDB(t, func(t *testing.T, db *testingutil.TestDB) {
		repo := repository.NewTraderRepository(db.DB)
		ctx := testingutil.CreateTestContext()

		trader := &models.Trader{Phone: "+254700000001", Name: "Kiosk", IsActive: utils.ToPtr(true)}
		require.NoError(t, repo.Save(ctx, trader))
		require.NotZero(t, trader.ID)

		t.Run("ByPhone", func(t *testing.T) {
			got, err := repo.ByPhone(ctx, "+254700000001")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, trader.ID, got.ID)
		})

		t.Run("ByPhoneMissing", func(t *testing.T) {
			got, err := repo.ByPhone(ctx, "+254799999999")
			require.NoError(t, err)
			assert.Nil(t, got)
		})

		t.Run("DuplicatePhone", func(t *testing.T) {
			err := repo.Save(ctx, &models.Trader{Phone: "+254700000001", Name: "Other", IsActive: utils.ToPtr(true)})
			require.Error(t, err)
			assert.True(t, repository.IsUniqueViolation(err))
		})

		t.Run("SetActive", func(t *testing.T) {
			require.NoError(t, repo.SetActive(ctx, trader.ID, false))
			got, err := repo.ByID(ctx, trader.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.False(t, utils.IsTrue(got.IsActive))
		})
	})
}

func TestTransactionRepository(t *testing.T) {
	withDB(t, func(t *testing.T, db *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(db)
		repo := repository.NewTransactionRepository(db.DB)
		ctx := testingutil.CreateTestContext()

		trader, err := fixtures.CreateTestTrader()
		require.NoError(t, err)

		base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		entries := []*models.Transaction{
			{TraderID: trader.ID, Kind: models.TransactionKindCreditAdd, AmountMinor: 10000, Currency: utils.DefaultCurrency, CreatedAt: base},
			{TraderID: trader.ID, Kind: models.TransactionKindVoucherPurchase, AmountMinor: 2500, Currency: utils.DefaultCurrency, CreatedAt: base.Add(time.Minute)},
			{TraderID: trader.ID, Kind: models.TransactionKindVoucherPurchase, AmountMinor: 1000, Currency: utils.DefaultCurrency, CreatedAt: base.Add(2 * time.Minute)},
		}
		for _, tx := range entries {
			require.NoError(t, repo.Save(ctx, tx))
		}

		t.Run("Ascending", func(t *testing.T) {
			txs, err := repo.ListByTraderAscending(ctx, trader.ID)
			require.NoError(t, err)
			require.Len(t, txs, 3)
			assert.Equal(t, entries[0].ID, txs[0].ID)
			assert.Equal(t, entries[2].ID, txs[2].ID)
		})

		t.Run("RecentWithLimit", func(t *testing.T) {
			txs, err := repo.ListByTraderRecent(ctx, trader.ID, 2)
			require.NoError(t, err)
			require.Len(t, txs, 2)
			assert.Equal(t, entries[2].ID, txs[0].ID)
			assert.Equal(t, entries[1].ID, txs[1].ID)
		})

		t.Run("RecentUnlimited", func(t *testing.T) {
			txs, err := repo.ListByTraderRecent(ctx, trader.ID, 0)
			require.NoError(t, err)
			assert.Len(t, txs, 3)
		})

		t.Run("SumMagnitudeByKind", func(t *testing.T) {
			sum, err := repo.SumMagnitudeByKind(ctx, trader.ID, models.TransactionKindVoucherPurchase)
			require.NoError(t, err)
			assert.Equal(t, int64(3500), sum)

			sum, err = repo.SumMagnitudeByKind(ctx, trader.ID+1000, models.TransactionKindCreditAdd)
			require.NoError(t, err)
			assert.Zero(t, sum)
		})

		t.Run("ByUUID", func(t *testing.T) {
			got, err := repo.ByUUID(ctx, entries[1].UUID.String())
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, entries[1].ID, got.ID)
		})
	})
}

func TestClientRepository(t *testing.T) {
	withDB(t, func(t *testing.T, db *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(db)
		repo := repository.NewClientRepository(db.DB)
		ctx := testingutil.CreateTestContext()

		trader, err := fixtures.CreateTestTrader()
		require.NoError(t, err)
		client, err := fixtures.CreateTestClient(trader.ID)
		require.NoError(t, err)

		got, err := repo.ByTraderAndMAC(ctx, trader.ID, client.MACAddress)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, client.ID, got.ID)

		got, err = repo.ByTraderAndPhone(ctx, trader.ID, client.Phone)
		require.NoError(t, err)
		require.NotNil(t, got)

		require.NoError(t, repo.SetRewarded(ctx, client.ID, true))
		list, err := repo.ListByTrader(ctx, trader.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, utils.IsTrue(list[0].Rewarded))
	})
}

func TestPricingTierRepositoryUpsert(t *testing.T) {
	withDB(t, func(t *testing.T, db *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(db)
		repo := repository.NewPricingTierRepository(db.DB)
		ctx := testingutil.CreateTestContext()

		trader, err := fixtures.CreateTestTrader()
		require.NoError(t, err)

		require.NoError(t, repo.Upsert(ctx, &models.PricingTier{
			TraderID:       trader.ID,
			Category:       models.PricingCategoryDay,
			BasePriceMinor: 1000,
			Discounts:      models.DiscountSchedule{{Threshold: 100, Percent: 10}},
		}))
		require.NoError(t, repo.Upsert(ctx, &models.PricingTier{
			TraderID:       trader.ID,
			Category:       models.PricingCategoryDay,
			BasePriceMinor: 1500,
			Discounts:      models.DiscountSchedule{},
		}))

		tiers, err := repo.ListByTrader(ctx, trader.ID)
		require.NoError(t, err)
		require.Len(t, tiers, 1)
		assert.Equal(t, int64(1500), tiers[0].BasePriceMinor)
		assert.Empty(t, tiers[0].Discounts)

		missing, err := repo.ByTraderAndCategory(ctx, trader.ID, models.PricingCategoryWeek)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestDeviceRepository(t *testing.T) {
	withDB(t, func(t *testing.T, db *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(db)
		repo := repository.NewDeviceRepository(db.DB)
		ctx := testingutil.CreateTestContext()

		active, err := fixtures.CreateTestDevice("gate", true)
		require.NoError(t, err)
		_, err = fixtures.CreateTestDevice("spare", false)
		require.NoError(t, err)

		list, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, active.ID, list[0].ID)

		seen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, repo.TouchLastSeen(ctx, active.ID, seen))
		got, err := repo.ByID(ctx, active.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.LastSeenAt)
		assert.True(t, got.LastSeenAt.Equal(seen))

		require.NoError(t, repo.Delete(ctx, active.ID))
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestWithTransaction(t *testing.T) {
	withDB(t, func(t *testing.T, db *testingutil.TestDB) {
		repo := repository.NewTraderRepository(db.DB)
		ctx := testingutil.CreateTestContext()

		err := repository.WithTransaction(ctx, db.DB, func(txCtx context.Context) error {
			if err := repo.Save(txCtx, &models.Trader{Phone: "+254711000001", Name: "Rolled back", IsActive: utils.ToPtr(true)}); err != nil {
				return err
			}
			return errors.New("abort")
		})
		require.EqualError(t, err, "abort")
		got, err := repo.ByPhone(ctx, "+254711000001")
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, repository.WithTransaction(ctx, db.DB, func(txCtx context.Context) error {
			return repo.Save(txCtx, &models.Trader{Phone: "+254711000002", Name: "Committed", IsActive: utils.ToPtr(true)})
		}))
		got, err = repo.ByPhone(ctx, "+254711000002")
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}
