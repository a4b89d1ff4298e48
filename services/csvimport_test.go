package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Anmolmahajn/money-tracker-backend/models"
)

func TestImportPersistsRowsAndSkipsMalformed(t *testing.T) {
	csv := strings.Join([]string{
		"Date,Description,Amount,Category,PaymentMethod,Notes",
		"2025-01-15,Grocery shopping,1250.50,Groceries,UPI,Weekly groceries",
		"not-a-date,Broken row,100,Other,UPI,",
		"2025-01-16,Movie tickets,600,Entertainment,CREDIT_CARD,",
	}, "\n")

	writer := newCaptureWriter()
	notifier := &captureNotifier{}
	importer := NewCSVImportService(&stubResolver{}, writer, notifier)

	result, err := importer.Import(context.Background(), &models.User{ID: "user-1"}, "statement.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}

	if result.TotalRows != 3 || result.Imported != 2 || result.Skipped != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "row 3") {
		t.Errorf("errors = %v, want one error for row 3", result.Errors)
	}

	if len(writer.saved) != 2 {
		t.Fatalf("saved %d transactions, want 2", len(writer.saved))
	}
	first := writer.saved[0]
	if !first.Amount.Equal(decimal.RequireFromString("1250.50")) {
		t.Errorf("amount = %s", first.Amount)
	}
	if first.Source != models.SourceCSVImport {
		t.Errorf("source = %s, want CSV_IMPORT", first.Source)
	}
	if first.SourceReference != "statement.csv" {
		t.Errorf("source reference = %q", first.SourceReference)
	}
	if first.PaymentMethod != models.PaymentUPI {
		t.Errorf("payment method = %s", first.PaymentMethod)
	}

	if len(notifier.titles) != 1 || notifier.titles[0] != "CSV Import Complete" {
		t.Errorf("notifications = %v", notifier.titles)
	}
}

func TestImportUnknownPaymentMethodFallsBackToCash(t *testing.T) {
	csv := "Date,Description,Amount,Category,PaymentMethod,Notes\n" +
		"2025-02-01,Street food,150,Food & Dining,BARTER,\n"

	writer := newCaptureWriter()
	importer := NewCSVImportService(&stubResolver{}, writer, &captureNotifier{})

	result, err := importer.Import(context.Background(), &models.User{ID: "user-1"}, "export.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 {
		t.Fatalf("result = %+v", result)
	}
	if writer.saved[0].PaymentMethod != models.PaymentCash {
		t.Errorf("payment method = %s, want CASH", writer.saved[0].PaymentMethod)
	}
}

func TestImportReordersColumnsByHeader(t *testing.T) {
	csv := "Amount,Date,Category,Description\n" +
		"499,2025-02-03,Entertainment,Concert ticket\n"

	writer := newCaptureWriter()
	importer := NewCSVImportService(&stubResolver{}, writer, &captureNotifier{})

	result, err := importer.Import(context.Background(), &models.User{ID: "user-1"}, "export.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 1 {
		t.Fatalf("result = %+v", result)
	}
	tx := writer.saved[0]
	if tx.Description != "Concert ticket" || !tx.Amount.Equal(decimal.NewFromInt(499)) {
		t.Errorf("transaction = %+v", tx)
	}
}

func TestImportRejectsMissingRequiredColumns(t *testing.T) {
	csv := "Date,Amount\n2025-01-01,100\n"

	importer := NewCSVImportService(&stubResolver{}, newCaptureWriter(), &captureNotifier{})
	_, err := importer.Import(context.Background(), &models.User{ID: "user-1"}, "bad.csv", strings.NewReader(csv))
	if err == nil {
		t.Fatal("expected error for missing required columns")
	}
}

func TestImportRejectsNegativeAmounts(t *testing.T) {
	csv := "Date,Description,Amount,Category\n" +
		"2025-01-05,Refund,-250,Shopping\n"

	writer := newCaptureWriter()
	importer := NewCSVImportService(&stubResolver{}, writer, &captureNotifier{})

	result, err := importer.Import(context.Background(), &models.User{ID: "user-1"}, "export.csv", strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if result.Imported != 0 || result.Skipped != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(writer.saved) != 0 {
		t.Errorf("saved %d transactions, want 0", len(writer.saved))
	}
}
