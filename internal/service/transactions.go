package service

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // Query normalisation
	"time"    // Dates and cache lifetimes

	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/utils"  // Date helpers

	"github.com/google/uuid"     // Opaque identifiers
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/text/cases"    // Unicode case folding
	"gorm.io/gorm"               // GORM ORM library
)

// Cache is the read cache used for per-user listings. Redis backs it in production.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// AddInput is the body of an add request. There is no owner field: the owner is always the caller.
type AddInput struct {
	Type        string   `json:"type"`
	Amount      *float64 `json:"amount"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
}

// UpdateInput is a partial update; nil fields are left untouched
type UpdateInput struct {
	Type        *string  `json:"type"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
}

// Totals summarises a listing
type Totals struct {
	TotalIncome  float64 `json:"totalIncome"`
	TotalExpense float64 `json:"totalExpense"`
	Balance      float64 `json:"balance"`
}

// Summarize sums amounts per kind. Balance is always TotalIncome - TotalExpense.
func Summarize(txs []domain.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeIncome:
			t.TotalIncome += tx.Amount
		case domain.TypeExpense:
			t.TotalExpense += tx.Amount
		}
	}
	t.Balance = t.TotalIncome - t.TotalExpense
	return t
}

// TransactionService runs every transaction operation scoped to the caller.
// A record whose user_id differs from the caller is treated exactly like a
// missing one: callers can never learn that someone else's id exists.
type TransactionService struct {
	db       *gorm.DB
	cache    Cache // Optional, nil disables caching
	cacheTTL time.Duration
}

// NewTransactionService wires the transaction store and an optional cache
func NewTransactionService(db *gorm.DB, cache Cache, cacheTTL time.Duration) *TransactionService {
	return &TransactionService{db: db, cache: cache, cacheTTL: cacheTTL}
}

// Cached listings of a user
const (
	listingAll        = "all"
	listingCategories = "categories"
)

// genKey holds the user's listing generation. Every write replaces it, so a
// listing filled from a read that raced the write lands under a dead key.
func genKey(userID string) string {
	return "txs:user:" + userID + ":gen"
}

// listingKey names a listing under a given generation
func listingKey(userID, gen, listing string) string {
	return "txs:user:" + userID + ":" + gen + ":" + listing
}

// owned starts a query scoped to the caller's records
func (s *TransactionService) owned(ctx context.Context, userID string) *gorm.DB {
	return s.db.WithContext(ctx).Model(&domain.Transaction{}).Where("user_id = ?", userID)
}

// Add stores a new record owned by userID
func (s *TransactionService) Add(ctx context.Context, userID string, in AddInput) (*domain.Transaction, error) {
	if userID == "" {
		return nil, fail(ErrUnauthenticated, "User not authenticated")
	}
	in.Category = strings.TrimSpace(in.Category) // Whitespace-only categories are empty
	if !domain.IsValidType(in.Type) {
		return nil, fail(ErrInvalidInput, "type must be income or expense")
	}
	if in.Amount == nil {
		return nil, fail(ErrInvalidInput, "amount is required")
	}
	if *in.Amount < 0 {
		return nil, fail(ErrInvalidInput, "amount must not be negative") // Direction comes from Type
	}
	if in.Category == "" {
		return nil, fail(ErrInvalidInput, "category is required")
	}

	date := time.Now().UTC() // Default to now when no date is supplied
	if in.Date != "" {
		d, err := utils.ParseDate(in.Date)
		if err != nil {
			return nil, fail(ErrInvalidInput, "invalid date")
		}
		date = d.UTC() // Stored dates are always UTC
	}

	// Owner comes from the caller, never from the body
	tx := domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        in.Type,
		Amount:      *in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        date,
	}
	if err := s.db.WithContext(ctx).Create(&tx).Error; err != nil {
		return nil, fmt.Errorf("create transaction: %w", err) // Return error if insert fails
	}
	s.invalidate(ctx, userID) // Drop cached listings
	return &tx, nil
}

// ListAll returns every record of the caller, newest event first, with totals
func (s *TransactionService) ListAll(ctx context.Context, userID string) ([]domain.Transaction, Totals, error) {
	if userID == "" {
		return nil, Totals{}, fail(ErrUnauthenticated, "User not authenticated")
	}
	// Try the cache first
	key, cacheable := s.currentKey(ctx, userID, listingAll)
	var txs []domain.Transaction
	if cacheable && s.readCache(ctx, key, &txs) {
		return txs, Summarize(txs), nil
	}
	txs, err := s.listOwned(ctx, userID)
	if err != nil {
		return nil, Totals{}, err
	}
	if cacheable {
		s.writeCache(ctx, key, txs) // Fill under the generation read before the query
	}
	return txs, Summarize(txs), nil
}

// listOwned reads the caller's records straight from the store
func (s *TransactionService) listOwned(ctx context.Context, userID string) ([]domain.Transaction, error) {
	txs := []domain.Transaction{} // Encodes as [] when empty
	if err := s.owned(ctx, userID).Order("date DESC").Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	return txs, nil
}

// Update applies a partial update to one of the caller's records
func (s *TransactionService) Update(ctx context.Context, userID, id string, in UpdateInput) (*domain.Transaction, error) {
	if userID == "" {
		return nil, fail(ErrUnauthenticated, "User not authenticated")
	}
	// Collect only the supplied fields; id, owner and timestamps are never patchable
	changes := map[string]any{}
	if in.Type != nil {
		if !domain.IsValidType(*in.Type) {
			return nil, fail(ErrInvalidInput, "type must be income or expense")
		}
		changes["type"] = *in.Type
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return nil, fail(ErrInvalidInput, "amount must not be negative")
		}
		changes["amount"] = *in.Amount
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			return nil, fail(ErrInvalidInput, "category is required")
		}
		changes["category"] = category
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Date != nil {
		d, err := utils.ParseDate(*in.Date)
		if err != nil {
			return nil, fail(ErrInvalidInput, "invalid date")
		}
		changes["date"] = d.UTC()
	}

	if len(changes) > 0 {
		res := s.owned(ctx, userID).Where("id = ?", id).Updates(changes) // Scoped to the caller
		if res.Error != nil {
			return nil, fmt.Errorf("update transaction: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			s.invalidate(ctx, userID) // Drop cached listings
		}
	}

	// MySQL reports zero affected rows for a no-op update, so existence is decided by the read
	var tx domain.Transaction
	if err := s.owned(ctx, userID).Where("id = ?", id).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrNotFound, "Transaction not found or not authorized")
		}
		return nil, fmt.Errorf("fetch transaction: %w", err)
	}
	return &tx, nil
}

// Delete removes one of the caller's records
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return fail(ErrUnauthenticated, "User not authenticated")
	}
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Transaction{})
	if res.Error != nil {
		return fmt.Errorf("delete transaction: %w", res.Error)
	}
	// Missing and foreign ids look the same
	if res.RowsAffected == 0 {
		return fail(ErrNotFound, "Transaction not found or not authorized")
	}
	s.invalidate(ctx, userID) // Drop cached listings
	return nil
}

// Filter returns the caller's records dated within [start, endOfDay(end)]
func (s *TransactionService) Filter(ctx context.Context, userID, start, end string) ([]domain.Transaction, error) {
	if userID == "" {
		return nil, fail(ErrUnauthenticated, "User not authenticated")
	}
	if start == "" || end == "" {
		return nil, fail(ErrInvalidInput, "Start and end dates required")
	}
	from, err := utils.ParseDate(start)
	if err != nil {
		return nil, fail(ErrInvalidInput, "invalid start date")
	}
	to, err := utils.ParseDate(end)
	if err != nil {
		return nil, fail(ErrInvalidInput, "invalid end date")
	}
	to = utils.EndOfDay(to) // include the full end day

	txs := []domain.Transaction{}
	if err := s.owned(ctx, userID).
		Where("date >= ? AND date <= ?", from.UTC(), to.UTC()).
		Order("date DESC").
		Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("filter transactions: %w", err)
	}
	return txs, nil
}

// Search matches q case-insensitively as a literal substring of the
// description. A blank query returns an empty list without touching the store.
func (s *TransactionService) Search(ctx context.Context, userID, q string) ([]domain.Transaction, error) {
	if userID == "" {
		return nil, fail(ErrUnauthenticated, "User not authenticated")
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.Transaction{}, nil
	}

	// SQL LOWER only folds ASCII on SQLite, so matching happens on full Unicode folds here
	fold := cases.Fold()
	needle := fold.String(q)

	mine, err := s.listOwned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	txs := []domain.Transaction{}
	for _, tx := range mine {
		if strings.Contains(fold.String(tx.Description), needle) {
			txs = append(txs, tx) // Keeps the newest-first order
		}
	}
	return txs, nil
}

// CategorySummary sums amounts per category. Income and expense amounts in the
// same category are added together, not netted.
func (s *TransactionService) CategorySummary(ctx context.Context, userID string) ([]domain.CategoryTotal, error) {
	if userID == "" {
		return nil, fail(ErrUnauthenticated, "User not authenticated")
	}
	// Try the cache first
	key, cacheable := s.currentKey(ctx, userID, listingCategories)
	rows := []domain.CategoryTotal{}
	if cacheable && s.readCache(ctx, key, &rows) {
		return rows, nil
	}
	if err := s.owned(ctx, userID).
		Select("category, SUM(amount) AS total").
		Group("category").
		Order("category").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("summarise categories: %w", err)
	}
	if cacheable {
		s.writeCache(ctx, key, rows)
	}
	return rows, nil
}

// currentKey resolves the key of a listing under the user's current generation.
// It reports false when caching is off or the generation cannot be read.
func (s *TransactionService) currentKey(ctx context.Context, userID, listing string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen := "0" // Users that never wrote share the initial generation
	if _, err := s.cache.Get(ctx, genKey(userID), &gen); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache generation read failed")
		return "", false
	}
	return listingKey(userID, gen, listing), true
}

// readCache reports whether key was found and decoded. Cache errors count as a miss.
func (s *TransactionService) readCache(ctx context.Context, key string, dest any) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
		return false
	}
	return found
}

// writeCache stores a listing, logging failures
func (s *TransactionService) writeCache(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
	}
}

// invalidate moves the caller to a fresh generation after a write and drops
// the listings of the previous one
func (s *TransactionService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	gen := "0"
	if _, err := s.cache.Get(ctx, genKey(userID), &gen); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache generation read failed")
	}
	// The generation key never expires
	if err := s.cache.Set(ctx, genKey(userID), uuid.NewString(), 0); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache generation bump failed")
	}
	stale := []string{listingKey(userID, gen, listingAll), listingKey(userID, gen, listingCategories)}
	if err := s.cache.Delete(ctx, stale...); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache invalidation failed")
	}
}
