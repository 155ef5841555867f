package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Display location

	"finance_tracker/internal/domain"     // Importing domain models
	"finance_tracker/internal/middleware" // Caller identity
	"finance_tracker/internal/service"    // Transaction query engine

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// AddTransactionHandler stores a transaction owned by the caller
func AddTransactionHandler(txs *service.TransactionService, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.CallerID(c)
		var req service.AddInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
			return
		}
		tx, err := txs.Add(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, "add_transaction", err)
			return
		}
		// Log successful insert
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,      // Owner
			"tx_id":    tx.ID,       // New record
			"type":     tx.Type,     // income or expense
			"amount":   tx.Amount,   // Amount
			"category": tx.Category, // Category
		}).Info("Transaction added")
		c.JSON(http.StatusOK, gin.H{"message": "Transaction added", "transaction": tx.View(loc)})
	}
}

// ListTransactionsHandler returns all of the caller's transactions with totals
func ListTransactionsHandler(txs *service.TransactionService, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, totals, err := txs.ListAll(c.Request.Context(), middleware.CallerID(c))
		if err != nil {
			respondError(c, "list_transactions", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactions": domain.Views(list, loc), // Newest first
			"totalIncome":  totals.TotalIncome,      // Sum of income
			"totalExpense": totals.TotalExpense,     // Sum of expenses
			"balance":      totals.Balance,          // income - expense
		})
	}
}

// UpdateTransactionHandler applies a partial update to one of the caller's transactions
func UpdateTransactionHandler(txs *service.TransactionService, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.CallerID(c)
		var req service.UpdateInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
			return
		}
		tx, err := txs.Update(c.Request.Context(), userID, c.Param("id"), req)
		if err != nil {
			respondError(c, "update_transaction", err)
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "tx_id": tx.ID}).Info("Transaction updated")
		c.JSON(http.StatusOK, gin.H{"message": "Transaction updated", "transaction": tx.View(loc)})
	}
}

// DeleteTransactionHandler removes one of the caller's transactions
func DeleteTransactionHandler(txs *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.CallerID(c)
		id := c.Param("id")
		if err := txs.Delete(c.Request.Context(), userID, id); err != nil {
			respondError(c, "delete_transaction", err)
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "tx_id": id}).Info("Transaction deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
	}
}

// FilterTransactionsHandler returns transactions between ?start= and ?end= inclusive of the whole end day
func FilterTransactionsHandler(txs *service.TransactionService, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := txs.Filter(c.Request.Context(), middleware.CallerID(c), c.Query("start"), c.Query("end"))
		if err != nil {
			respondError(c, "filter_transactions", err)
			return
		}
		c.JSON(http.StatusOK, domain.Views(list, loc))
	}
}

// SearchTransactionsHandler matches ?q= against descriptions
func SearchTransactionsHandler(txs *service.TransactionService, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := txs.Search(c.Request.Context(), middleware.CallerID(c), c.Query("q"))
		if err != nil {
			respondError(c, "search_transactions", err)
			return
		}
		c.JSON(http.StatusOK, domain.Views(list, loc))
	}
}

// CategorySummaryHandler returns [{category, total}] for the caller
func CategorySummaryHandler(txs *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := txs.CategorySummary(c.Request.Context(), middleware.CallerID(c))
		if err != nil {
			respondError(c, "category_summary", err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// ExportCSVHandler downloads the caller's transactions as transactions.csv.
// Its not-found response is plain text, like its success response, not a JSON envelope.
func ExportCSVHandler(txs *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := txs.ExportCSV(c.Request.Context(), middleware.CallerID(c))
		if errors.Is(err, service.ErrNotFound) {
			c.String(http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			respondError(c, "export_csv", err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+service.CSVFilename)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	}
}

// ExportXLSXHandler downloads the caller's transactions as transactions.xlsx.
// Not-found is plain text, matching ExportCSVHandler.
func ExportXLSXHandler(txs *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := txs.ExportXLSX(c.Request.Context(), middleware.CallerID(c))
		if errors.Is(err, service.ErrNotFound) {
			c.String(http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			respondError(c, "export_xlsx", err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+service.XLSXFilename)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}
