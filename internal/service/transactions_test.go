package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/utils"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func mustAdd(t *testing.T, svc *TransactionService, userID string, in AddInput) *domain.Transaction {
	t.Helper()
	tx, err := svc.Add(context.Background(), userID, in)
	require.NoError(t, err)
	return tx
}

func TestAddOwnsRecordAndDefaultsDate(t *testing.T) {
	conn := newTestDB(t)
	svc := NewTransactionService(conn, nil, 0)

	before := time.Now().Add(-time.Second)
	tx := mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(12.5), Category: "food"})

	assert.Equal(t, "alice", tx.UserID)
	assert.NotEmpty(t, tx.ID)
	assert.True(t, tx.Date.After(before))

	var stored domain.Transaction
	require.NoError(t, conn.First(&stored, "id = ?", tx.ID).Error)
	assert.Equal(t, "alice", stored.UserID)
	assert.Equal(t, 12.5, stored.Amount)
}

func TestAddValidation(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()

	cases := map[string]AddInput{
		"missing type":     {Amount: amount(1), Category: "food"},
		"unknown type":     {Type: "transfer", Amount: amount(1), Category: "food"},
		"missing amount":   {Type: "income", Category: "salary"},
		"negative amount":  {Type: "income", Amount: amount(-3), Category: "salary"},
		"missing category": {Type: "income", Amount: amount(1), Category: "  "},
		"bad date":         {Type: "income", Amount: amount(1), Category: "salary", Date: "31/12/2024"},
	}
	for name, in := range cases {
		_, err := svc.Add(ctx, "alice", in)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestOperationsRequireCaller(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()

	_, err := svc.Add(ctx, "", AddInput{Type: "income", Amount: amount(1), Category: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = svc.ListAll(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.CategorySummary(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.ExportCSV(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestListAllTotalsAndOrder(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)

	mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(1000), Category: "salary", Date: "2024-01-01"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(250.5), Category: "rent", Date: "2024-03-01"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(49.5), Category: "food", Date: "2024-02-01"})
	mustAdd(t, svc, "bob", AddInput{Type: "income", Amount: amount(99), Category: "salary"})

	txs, totals, err := svc.ListAll(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "rent", txs[0].Category)
	assert.Equal(t, "food", txs[1].Category)
	assert.Equal(t, "salary", txs[2].Category)

	assert.Equal(t, 1000.0, totals.TotalIncome)
	assert.Equal(t, 300.0, totals.TotalExpense)
	assert.Equal(t, totals.TotalIncome-totals.TotalExpense, totals.Balance)
}

func TestListAllEmpty(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)

	txs, totals, err := svc.ListAll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, Totals{}, totals)
}

func TestSummarize(t *testing.T) {
	txs := []domain.Transaction{
		{Type: "income", Amount: 10},
		{Type: "income", Amount: 2.5},
		{Type: "expense", Amount: 7},
		{Type: "expense", Amount: 8},
	}
	got := Summarize(txs)
	assert.Equal(t, Totals{TotalIncome: 12.5, TotalExpense: 15, Balance: -2.5}, got)
	assert.Equal(t, Totals{}, Summarize(nil))
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	tx := mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(5), Category: "food", Description: "lunch", Date: "2024-01-01"})

	updated, err := svc.Update(context.Background(), "alice", tx.ID, UpdateInput{Amount: amount(7.25), Description: str("late lunch")})
	require.NoError(t, err)
	assert.Equal(t, 7.25, updated.Amount)
	assert.Equal(t, "late lunch", updated.Description)
	assert.Equal(t, "food", updated.Category)
	assert.Equal(t, "expense", updated.Type)
	assert.Equal(t, "alice", updated.UserID)
	assert.Equal(t, tx.ID, updated.ID)
}

func TestUpdateEmptyPatchReturnsRecord(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	tx := mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(5), Category: "gift"})

	got, err := svc.Update(context.Background(), "alice", tx.ID, UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
}

func TestUpdateValidation(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	tx := mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(5), Category: "gift"})
	ctx := context.Background()

	_, err := svc.Update(ctx, "alice", tx.ID, UpdateInput{Type: str("loan")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, "alice", tx.ID, UpdateInput{Category: str("")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, "alice", tx.ID, UpdateInput{Date: str("soon")})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateAndDeleteHideOtherOwners(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()
	tx := mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(5), Category: "gift"})

	_, foreignErr := svc.Update(ctx, "mallory", tx.ID, UpdateInput{Amount: amount(1)})
	_, missingErr := svc.Update(ctx, "mallory", "does-not-exist", UpdateInput{Amount: amount(1)})
	assert.ErrorIs(t, foreignErr, ErrNotFound)
	assert.ErrorIs(t, missingErr, ErrNotFound)
	assert.Equal(t, missingErr.Error(), foreignErr.Error())

	foreignErr = svc.Delete(ctx, "mallory", tx.ID)
	missingErr = svc.Delete(ctx, "mallory", "does-not-exist")
	assert.ErrorIs(t, foreignErr, ErrNotFound)
	assert.ErrorIs(t, missingErr, ErrNotFound)
	assert.Equal(t, missingErr.Error(), foreignErr.Error())

	// alice's record is untouched
	txs, _, err := svc.ListAll(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 5.0, txs[0].Amount)
}

func TestDeleteRemovesRecord(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()
	tx := mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(5), Category: "gift"})

	require.NoError(t, svc.Delete(ctx, "alice", tx.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "alice", tx.ID), ErrNotFound)
}

func TestFilterIncludesWholeEndDay(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()

	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(1), Category: "a", Date: "2023-12-31T23:59:59.999Z"})
	inside := mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(2), Category: "b", Date: "2024-01-01T23:59:59.999Z"})
	start := mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(3), Category: "c", Date: "2024-01-01"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(4), Category: "d", Date: "2024-01-02T00:00:00.000Z"})
	mustAdd(t, svc, "bob", AddInput{Type: "expense", Amount: amount(5), Category: "e", Date: "2024-01-01T12:00:00Z"})

	txs, err := svc.Filter(ctx, "alice", "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, inside.ID, txs[0].ID)
	assert.Equal(t, start.ID, txs[1].ID)
}

func TestFilterRequiresBothBounds(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()

	_, err := svc.Filter(ctx, "alice", "", "2024-01-01")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Filter(ctx, "alice", "2024-01-01", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Filter(ctx, "alice", "2024-01-01", "tomorrow")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearch(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()

	coffee := mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(3), Category: "food", Description: "Morning Coffee"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(3), Category: "food", Description: "Tea"})
	mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(3), Category: "bonus", Description: "100% bonus"})
	mustAdd(t, svc, "bob", AddInput{Type: "expense", Amount: amount(3), Category: "food", Description: "coffee beans"})

	for _, q := range []string{"", "   ", "\t\n"} {
		txs, err := svc.Search(ctx, "alice", q)
		require.NoError(t, err)
		assert.NotNil(t, txs)
		assert.Empty(t, txs)
	}

	txs, err := svc.Search(ctx, "alice", "  coffee ")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, coffee.ID, txs[0].ID)

	// wildcard characters are matched literally
	txs, err = svc.Search(ctx, "alice", "%")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "100% bonus", txs[0].Description)

	txs, err = svc.Search(ctx, "alice", "_")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestSearchFoldsNonASCII(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()

	cafe := mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(4), Category: "food", Description: "CAFÉ CRÈME"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(2), Category: "food", Description: "cafe latte"})

	for _, q := range []string{"café", "crème", "Café Crème"} {
		txs, err := svc.Search(ctx, "alice", q)
		require.NoError(t, err, q)
		require.Len(t, txs, 1, q)
		assert.Equal(t, cafe.ID, txs[0].ID, q)
	}

	// folding does not strip accents
	txs, err := svc.Search(ctx, "alice", "cafe")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "cafe latte", txs[0].Description)
}

func TestCategorySummary(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()

	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(10), Category: "food"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(5), Category: "food"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(20), Category: "travel"})
	mustAdd(t, svc, "bob", AddInput{Type: "expense", Amount: amount(99), Category: "food"})

	rows, err := svc.CategorySummary(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.CategoryTotal{{Category: "food", Total: 15}, {Category: "travel", Total: 20}}, rows)
}

func TestCategorySummaryDoesNotSeparateKinds(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)

	mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(30), Category: "refunds"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(10), Category: "refunds"})

	rows, err := svc.CategorySummary(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryTotal{{Category: "refunds", Total: 40}}, rows)
}

func TestCachedListingsAreInvalidatedOnWrite(t *testing.T) {
	cache := newMemCache()
	svc := NewTransactionService(newTestDB(t), cache, time.Minute)
	ctx := context.Background()

	tx := mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(10), Category: "gift"})

	_, _, err := svc.ListAll(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.CategorySummary(ctx, "alice")
	require.NoError(t, err)
	allKey, ok := svc.currentKey(ctx, "alice", listingAll)
	require.True(t, ok)
	categoriesKey, ok := svc.currentKey(ctx, "alice", listingCategories)
	require.True(t, ok)
	assert.True(t, cache.has(allKey))
	assert.True(t, cache.has(categoriesKey))

	// second read is served from the cache
	hits := cache.hits
	txs, totals, err := svc.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 10.0, totals.Balance)
	assert.Equal(t, hits+2, cache.hits) // generation + listing

	_, err = svc.Update(ctx, "alice", tx.ID, UpdateInput{Amount: amount(25)})
	require.NoError(t, err)
	assert.False(t, cache.has(allKey))
	assert.False(t, cache.has(categoriesKey))
	nextKey, ok := svc.currentKey(ctx, "alice", listingAll)
	require.True(t, ok)
	assert.NotEqual(t, allKey, nextKey)

	_, totals, err = svc.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 25.0, totals.TotalIncome)
	assert.True(t, cache.has(nextKey))

	require.NoError(t, svc.Delete(ctx, "alice", tx.ID))
	assert.False(t, cache.has(nextKey))

	txs, _, err = svc.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, txs)
}

// fillRacingCache runs before once, just ahead of the next listing fill,
// i.e. after the store was read but before the result is cached
type fillRacingCache struct {
	*memCache
	before func()
}

func (c *fillRacingCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if fn := c.before; fn != nil && !strings.HasSuffix(key, ":gen") {
		c.before = nil
		fn()
	}
	return c.memCache.Set(ctx, key, value, ttl)
}

func TestWriteDuringCacheFillIsVisibleAfterward(t *testing.T) {
	cache := &fillRacingCache{memCache: newMemCache()}
	svc := NewTransactionService(newTestDB(t), cache, time.Minute)
	ctx := context.Background()

	mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(10), Category: "gift"})

	cache.before = func() {
		mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(4), Category: "food"})
	}
	txs, _, err := svc.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, txs, 1) // snapshot from before the add

	txs, totals, err := svc.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, 4.0, totals.TotalExpense)
	assert.Equal(t, 6.0, totals.Balance)

	cache.before = func() {
		mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(1), Category: "travel"})
	}
	_, err = svc.CategorySummary(ctx, "alice")
	require.NoError(t, err)

	rows, err := svc.CategorySummary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryTotal{
		{Category: "food", Total: 4},
		{Category: "gift", Total: 10},
		{Category: "travel", Total: 1},
	}, rows)
}

func TestExportCSV(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()

	_, err := svc.ExportCSV(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "No transactions found")

	mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(1500), Category: "salary", Description: "January pay", Date: "2024-01-31"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(3.75), Category: "food", Description: "coffee, large", Date: "2024-02-01T08:30:00Z"})
	mustAdd(t, svc, "bob", AddInput{Type: "expense", Amount: amount(9), Category: "food"})

	out, err := svc.ExportCSV(ctx, "alice")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "type,amount,category,description,date", lines[0])
	assert.Equal(t, `expense,3.75,food,"coffee, large",2024-02-01T08:30:00.000Z`, lines[1])
	assert.Equal(t, "income,1500,salary,January pay,2024-01-31T00:00:00.000Z", lines[2])
}

func TestBrokenCacheFallsBackToStore(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := NewTransactionService(newTestDB(t), utils.NewRedisCache(rdb), time.Minute)
	ctx := context.Background()

	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(8), Category: "food"})

	txs, totals, err := svc.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
	assert.Equal(t, 8.0, totals.TotalExpense)

	rows, err := svc.CategorySummary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryTotal{{Category: "food", Total: 8}}, rows)
}

func TestExportXLSX(t *testing.T) {
	svc := NewTransactionService(newTestDB(t), nil, 0)
	ctx := context.Background()

	_, err := svc.ExportXLSX(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	mustAdd(t, svc, "alice", AddInput{Type: "income", Amount: amount(1500), Category: "salary", Description: "January pay", Date: "2024-01-31"})
	mustAdd(t, svc, "alice", AddInput{Type: "expense", Amount: amount(3.75), Category: "food", Date: "2024-02-01"})

	data, err := svc.ExportXLSX(ctx, "alice")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"type", "amount", "category", "description", "date"}, rows[0])
	assert.Equal(t, "expense", rows[1][0])
	assert.Equal(t, "salary", rows[2][2])
	assert.Equal(t, "January pay", rows[2][3])
}
