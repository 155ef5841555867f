package domain

import "time" // Timestamps

// Transaction kinds
const (
	TypeIncome  = "income"  // Money coming in
	TypeExpense = "expense" // Money going out
)

// DisplayTimeLayout renders bookkeeping timestamps the way en-IN locales print them
const DisplayTimeLayout = "2/1/2006, 3:04:05 pm"

// Transaction Model. Every lookup must be scoped by UserID.
type Transaction struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`           // Opaque identifier, assigned at creation
	UserID      string    `gorm:"index;size:36;not null" json:"userId"`   // Owner, immutable
	Type        string    `gorm:"size:16;not null" json:"type"`           // income or expense
	Amount      float64   `gorm:"not null" json:"amount"`                 // Magnitude, direction comes from Type
	Category    string    `gorm:"size:64;index;not null" json:"category"` // Aggregation key
	Description string    `gorm:"size:255" json:"description"`            // Optional free text
	Date        time.Time `gorm:"index;not null" json:"date"`             // When the event happened
	CreatedAt   time.Time `json:"createdAt"`                              // Server bookkeeping
	UpdatedAt   time.Time `json:"updatedAt"`                              // Server bookkeeping
}

// TransactionView is the outward representation of a Transaction.
// Raw bookkeeping timestamps are replaced by their display form.
type TransactionView struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Type           string    `json:"type"`
	Amount         float64   `json:"amount"`
	Category       string    `json:"category"`
	Description    string    `json:"description"`
	Date           time.Time `json:"date"`
	CreatedAtLocal string    `json:"createdAtLocal"`
	UpdatedAtLocal string    `json:"updatedAtLocal"`
}

// CategoryTotal is one row of the per-category aggregation
type CategoryTotal struct {
	Category string  `json:"category"` // Grouping key
	Total    float64 `json:"total"`    // Sum of amounts, kinds not separated
}

// IsValidType reports whether t is one of the closed set of kinds
func IsValidType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// View converts the record into its outward representation in loc
func (t Transaction) View(loc *time.Location) TransactionView {
	if loc == nil {
		loc = time.UTC
	}
	return TransactionView{
		ID:             t.ID,
		UserID:         t.UserID,
		Type:           t.Type,
		Amount:         t.Amount,
		Category:       t.Category,
		Description:    t.Description,
		Date:           t.Date,
		CreatedAtLocal: t.CreatedAt.In(loc).Format(DisplayTimeLayout),
		UpdatedAtLocal: t.UpdatedAt.In(loc).Format(DisplayTimeLayout),
	}
}

// Views converts a list of records, never returning nil so it encodes as []
func Views(txs []Transaction, loc *time.Location) []TransactionView {
	out := make([]TransactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.View(loc))
	}
	return out
}
