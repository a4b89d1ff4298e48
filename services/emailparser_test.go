package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

// ============================================================================
// STUBS
// ============================================================================

type stubSession struct {
	messages []models.InboundMessage
	read     map[string]bool
	closed   bool
}

func newStubSession(messages ...models.InboundMessage) *stubSession {
	return &stubSession{messages: messages, read: make(map[string]bool)}
}

func (s *stubSession) ListUnread(ctx context.Context) ([]models.InboundMessage, error) {
	var unread []models.InboundMessage
	for _, m := range s.messages {
		if !s.read[m.MessageID] {
			unread = append(unread, m)
		}
	}
	return unread, nil
}

func (s *stubSession) MarkRead(ctx context.Context, messageID string) error {
	s.read[messageID] = true
	return nil
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

type stubDialer struct {
	session *stubSession
	openErr error
	opens   int
}

func (d *stubDialer) Open(ctx context.Context, account models.MailAccount) (MailSession, error) {
	d.opens++
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.session, nil
}

type stubResolver struct {
	failOn string
}

func (r *stubResolver) Resolve(ctx context.Context, userID, name string) (*models.Category, error) {
	if name == r.failOn {
		return nil, errors.New("store unavailable")
	}
	return &models.Category{ID: "cat-" + name, UserID: userID, Name: name}, nil
}

// captureWriter enforces the email dedup key the same way the store's
// unique index does.
type captureWriter struct {
	saved []*models.Transaction
	seen  map[string]bool
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{seen: make(map[string]bool)}
}

func (w *captureWriter) Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if tx.Source == models.SourceEmailParsed && w.seen[tx.SourceReference] {
		return nil, ErrDuplicateTransaction
	}
	if tx.Source == models.SourceEmailParsed {
		w.seen[tx.SourceReference] = true
	}
	w.saved = append(w.saved, tx)
	return tx, nil
}

type captureNotifier struct {
	titles []string
}

func (n *captureNotifier) Notify(ctx context.Context, user *models.User, typ models.NotificationType, title, message string) error {
	n.titles = append(n.titles, title)
	return nil
}

// ============================================================================
// CLASSIFIER
// ============================================================================

func mustClassifier(t *testing.T) *MessageClassifier {
	t.Helper()
	registry, err := NewPatternRegistry(DefaultPatterns())
	if err != nil {
		t.Fatal(err)
	}
	return NewMessageClassifier(registry)
}

func TestClassifyExtractsAmountWithThousandsSeparator(t *testing.T) {
	c := mustClassifier(t)
	sentAt := time.Date(2025, 3, 10, 18, 45, 12, 0, time.UTC)

	got := c.Classify(models.InboundMessage{
		Sender:    "info@netflix.com",
		Subject:   "Your Netflix bill",
		BodyText:  "We charged Rs. 1,234.50 for your plan.",
		SentAt:    sentAt,
		MessageID: "<m1@netflix.com>",
	})
	if got == nil {
		t.Fatal("expected a candidate transaction")
	}

	if !got.Amount.Equal(decimal.RequireFromString("1234.50")) {
		t.Errorf("amount = %s, want 1234.50", got.Amount)
	}
	if got.CategoryName != "Entertainment" {
		t.Errorf("category = %s, want Entertainment", got.CategoryName)
	}
	if got.Description != "Your Netflix bill" {
		t.Errorf("description = %q, want subject", got.Description)
	}
	if got.SourceReference != "<m1@netflix.com>" {
		t.Errorf("source reference = %q, want message ID", got.SourceReference)
	}
	if got.Notes != "Auto-parsed from email: info@netflix.com" {
		t.Errorf("notes = %q", got.Notes)
	}
	if h, m, s := got.Date.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("date should be truncated to midnight, got %v", got.Date)
	}
}

func TestClassifyReturnsNilForUnrecognizedSender(t *testing.T) {
	c := mustClassifier(t)
	got := c.Classify(models.InboundMessage{
		Sender:   "newsletter@blog.example.com",
		Subject:  "Weekly digest",
		BodyText: "Rs. 500 worth of content!",
	})
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestClassifyReturnsNilWhenAmountMissing(t *testing.T) {
	c := mustClassifier(t)
	got := c.Classify(models.InboundMessage{
		Sender:   "info@netflix.com",
		Subject:  "Your Netflix bill",
		BodyText: "Your payment method was updated.",
	})
	if got != nil {
		t.Fatalf("expected nil for body without amount, got %+v", got)
	}
}

func TestDetectPaymentMethodKeywordOrder(t *testing.T) {
	cases := []struct {
		content string
		sender  string
		want    models.PaymentMethod
	}{
		// UPI outranks every later keyword.
		{"paid via UPI from your credit card wallet", "alerts@bank.com", models.PaymentUPI},
		{"charged to your credit card", "alerts@bank.com", models.PaymentCreditCard},
		{"your debit card was used", "alerts@bank.com", models.PaymentDebitCard},
		{"paid from wallet balance", "alerts@bank.com", models.PaymentWallet},
		{"payment received", "noreply@paytm.com", models.PaymentWallet},
		{"your plan renewed", "info@netflix.com", models.PaymentSubscription},
		{"amount debited", "alerts@bank.com", models.PaymentNetBanking},
	}

	for _, tc := range cases {
		if got := detectPaymentMethod(tc.content, tc.sender); got != tc.want {
			t.Errorf("detectPaymentMethod(%q, %q) = %s, want %s", tc.content, tc.sender, got, tc.want)
		}
	}
}

// ============================================================================
// ORCHESTRATOR
// ============================================================================

func configuredUser(t *testing.T) *models.User {
	t.Helper()
	t.Setenv("DATA_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	encrypted, err := utils.EncryptSecret("imap-password")
	if err != nil {
		t.Fatal(err)
	}
	return &models.User{
		ID:                  "user-1",
		Username:            "tester",
		Email:               "tester@example.com",
		EmailParsingEnabled: true,
		EmailIMAPHost:       "imap.example.com",
		EmailIMAPPort:       993,
		EmailIMAPUsername:   "tester@example.com",
		EmailIMAPPassword:   encrypted,
	}
}

func newParser(dialer MailDialer, resolver CategoryResolving, writer TransactionWriter, notifier Notifier, t *testing.T) *EmailParsingService {
	t.Helper()
	registry, err := NewPatternRegistry(DefaultPatterns())
	if err != nil {
		t.Fatal(err)
	}
	return NewEmailParsingService(dialer, NewMessageClassifier(registry), resolver, writer, notifier)
}

func netflixMessage(id string) models.InboundMessage {
	return models.InboundMessage{
		Sender:    "info@netflix.com",
		Subject:   "Your Netflix bill",
		BodyText:  "We charged Rs. 649.00 for your plan.",
		SentAt:    time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		MessageID: id,
	}
}

func TestParseMailboxNotConfigured(t *testing.T) {
	dialer := &stubDialer{session: newStubSession()}
	parser := newParser(dialer, &stubResolver{}, newCaptureWriter(), &captureNotifier{}, t)

	result, err := parser.ParseMailbox(context.Background(), &models.User{ID: "user-1", Username: "tester"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
	if result.State != StateNotConfigured {
		t.Errorf("state = %s, want NOT_CONFIGURED", result.State)
	}
	if dialer.opens != 0 {
		t.Errorf("dialer opened %d times, want 0", dialer.opens)
	}
}

func TestParseMailboxPersistsNotifiesAndMarksRead(t *testing.T) {
	user := configuredUser(t)
	session := newStubSession(netflixMessage("<m1@netflix.com>"))
	dialer := &stubDialer{session: session}
	writer := newCaptureWriter()
	notifier := &captureNotifier{}
	parser := newParser(dialer, &stubResolver{}, writer, notifier, t)

	result, err := parser.ParseMailbox(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	if result.Scanned != 1 || result.Extracted != 1 || result.Persisted != 1 || result.Skipped != 0 {
		t.Fatalf("result = %+v", result)
	}
	if result.State != StateCompleted {
		t.Errorf("state = %s, want COMPLETED", result.State)
	}

	if len(writer.saved) != 1 {
		t.Fatalf("saved %d transactions, want 1", len(writer.saved))
	}
	tx := writer.saved[0]
	if tx.Source != models.SourceEmailParsed {
		t.Errorf("source = %s, want EMAIL_PARSED", tx.Source)
	}
	if tx.SourceReference != "<m1@netflix.com>" {
		t.Errorf("source reference = %q", tx.SourceReference)
	}
	if tx.CategoryID != "cat-Entertainment" {
		t.Errorf("category id = %q", tx.CategoryID)
	}

	if len(notifier.titles) != 1 || notifier.titles[0] != "Transaction Auto-Added" {
		t.Errorf("notifications = %v", notifier.titles)
	}
	if !session.read["<m1@netflix.com>"] {
		t.Error("processed message should be marked read")
	}
	if !session.closed {
		t.Error("session should be closed after the run")
	}
}

func TestParseMailboxLeavesUnrecognizedMessagesUnread(t *testing.T) {
	user := configuredUser(t)
	session := newStubSession(models.InboundMessage{
		Sender:    "newsletter@blog.example.com",
		Subject:   "Weekly digest",
		BodyText:  "hello",
		MessageID: "<news@blog>",
	})
	parser := newParser(&stubDialer{session: session}, &stubResolver{}, newCaptureWriter(), &captureNotifier{}, t)

	result, err := parser.ParseMailbox(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}
	if result.Scanned != 1 || result.Extracted != 0 || result.Persisted != 0 {
		t.Fatalf("result = %+v", result)
	}
	if session.read["<news@blog>"] {
		t.Error("unrecognized message must stay unread")
	}
}

func TestParseMailboxIsolatesPerMessageFailures(t *testing.T) {
	user := configuredUser(t)
	session := newStubSession(
		netflixMessage("<m1@netflix.com>"),
		models.InboundMessage{
			Sender:    "order-update@amazon.in",
			Subject:   "Your Amazon order shipped",
			BodyText:  "Order Total: Rs. 2,100.00",
			SentAt:    time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
			MessageID: "<m2@amazon.in>",
		},
		netflixMessage("<m3@netflix.com>"),
	)
	writer := newCaptureWriter()
	notifier := &captureNotifier{}
	// Category store fails only for the Amazon rule's category.
	parser := newParser(&stubDialer{session: session}, &stubResolver{failOn: "Shopping"}, writer, notifier, t)

	result, err := parser.ParseMailbox(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	if result.Persisted != 2 || result.Skipped != 1 {
		t.Fatalf("result = %+v, want 2 persisted 1 skipped", result)
	}
	if session.read["<m2@amazon.in>"] {
		t.Error("failed message must stay unread for the next run")
	}
	if !session.read["<m1@netflix.com>"] || !session.read["<m3@netflix.com>"] {
		t.Error("successful messages should be marked read")
	}
}

func TestParseMailboxReplayPersistsAtMostOnce(t *testing.T) {
	user := configuredUser(t)
	msg := netflixMessage("<m1@netflix.com>")

	writer := newCaptureWriter()
	notifier := &captureNotifier{}

	// Two runs see the same message, as happens when a MarkRead failed.
	for i := 0; i < 2; i++ {
		session := newStubSession(msg)
		parser := newParser(&stubDialer{session: session}, &stubResolver{}, writer, notifier, t)
		if _, err := parser.ParseMailbox(context.Background(), user); err != nil {
			t.Fatal(err)
		}
	}

	if len(writer.saved) != 1 {
		t.Fatalf("saved %d transactions across replays, want 1", len(writer.saved))
	}
	if len(notifier.titles) != 1 {
		t.Fatalf("sent %d notifications across replays, want 1", len(notifier.titles))
	}
}

func TestParseMailboxConnectFailure(t *testing.T) {
	user := configuredUser(t)
	dialer := &stubDialer{openErr: ErrMailAuth}
	parser := newParser(dialer, &stubResolver{}, newCaptureWriter(), &captureNotifier{}, t)

	result, err := parser.ParseMailbox(context.Background(), user)
	if !errors.Is(err, ErrMailAuth) {
		t.Fatalf("err = %v, want ErrMailAuth", err)
	}
	if result.State != StateConnectFailed {
		t.Errorf("state = %s, want CONNECT_FAILED", result.State)
	}
}
