package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

// CSVTemplate is served to clients so exports from other tools can be
// reshaped to match.
const CSVTemplate = "Date,Description,Amount,Category,PaymentMethod,Notes\n" +
	"2025-01-15,Grocery shopping,1250.50,Groceries,UPI,Weekly groceries\n" +
	"2025-01-16,Movie tickets,600,Entertainment,CREDIT_CARD,\n"

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	TotalRows int      `json:"total_rows"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

type CSVImportService struct {
	categories   CategoryResolving
	transactions TransactionWriter
	notifier     Notifier
}

func NewCSVImportService(categories CategoryResolving, transactions TransactionWriter, notifier Notifier) *CSVImportService {
	return &CSVImportService{
		categories:   categories,
		transactions: transactions,
		notifier:     notifier,
	}
}

// Import reads rows of Date,Description,Amount,Category,PaymentMethod,Notes
// and persists each as a transaction. A malformed row is skipped with a
// recorded error; it never aborts the rest of the file.
func (s *CSVImportService) Import(ctx context.Context, user *models.User, filename string, r io.Reader) (ImportResult, error) {
	result := ImportResult{}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return result, err
	}

	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.TotalRows++
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.TotalRows++

		if err := s.importRow(ctx, user, filename, cols, record); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		result.Imported++
	}

	if err := s.notifier.Notify(ctx, user, models.NotificationSystem,
		"CSV Import Complete",
		fmt.Sprintf("Imported %d of %d transactions from %s", result.Imported, result.TotalRows, filename),
	); err != nil {
		utils.SafeLog("⚠️ CSV import notification failed: %v", err)
	}

	return result, nil
}

// columnIndex holds the header positions; Notes and PaymentMethod are
// optional columns.
type columnIndex struct {
	date, description, amount, category int
	paymentMethod, notes                int
}

func mapColumns(header []string) (columnIndex, error) {
	cols := columnIndex{date: -1, description: -1, amount: -1, category: -1, paymentMethod: -1, notes: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			cols.date = i
		case "description":
			cols.description = i
		case "amount":
			cols.amount = i
		case "category":
			cols.category = i
		case "paymentmethod", "payment_method":
			cols.paymentMethod = i
		case "notes":
			cols.notes = i
		}
	}
	if cols.date < 0 || cols.description < 0 || cols.amount < 0 || cols.category < 0 {
		return cols, errors.New("CSV header must contain Date, Description, Amount and Category columns")
	}
	return cols, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (s *CSVImportService) importRow(ctx context.Context, user *models.User, filename string, cols columnIndex, record []string) error {
	date, err := time.Parse("2006-01-02", field(record, cols.date))
	if err != nil {
		return fmt.Errorf("invalid date %q", field(record, cols.date))
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(field(record, cols.amount), ",", ""))
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("invalid amount %q", field(record, cols.amount))
	}

	description := field(record, cols.description)
	categoryName := field(record, cols.category)
	if description == "" || categoryName == "" {
		return errors.New("description and category are required")
	}

	category, err := s.categories.Resolve(ctx, user.ID, categoryName)
	if err != nil {
		return fmt.Errorf("failed to resolve category %q: %w", categoryName, err)
	}

	_, err = s.transactions.Save(ctx, &models.Transaction{
		UserID:          user.ID,
		Description:     description,
		Amount:          amount,
		Date:            date,
		PaymentMethod:   models.ParsePaymentMethod(field(record, cols.paymentMethod)),
		CategoryID:      category.ID,
		Source:          models.SourceCSVImport,
		SourceReference: filename,
		Notes:           field(record, cols.notes),
	})
	return err
}
