package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

// ============================================================================
// CLASSIFIER
// ============================================================================

// ExtractedTransaction is a candidate transaction produced by classifying one
// inbound message. It has not touched any store yet.
type ExtractedTransaction struct {
	Amount          decimal.Decimal
	Description     string
	Date            time.Time
	PaymentMethod   models.PaymentMethod
	CategoryName    string
	SourceReference string
	Notes           string
}

// MessageClassifier matches inbound messages against an injected pattern
// registry and extracts amount and payment method. It performs no store
// access, so it can be tested with nothing but messages.
type MessageClassifier struct {
	registry *PatternRegistry
	loc      *time.Location
}

func NewMessageClassifier(registry *PatternRegistry) *MessageClassifier {
	return &MessageClassifier{registry: registry, loc: time.Local}
}

// Classify returns a candidate transaction for a recognized financial
// notification, or nil when the message matches no rule or carries no
// parsable amount. Failures here are silent; the orchestrator logs them.
func (c *MessageClassifier) Classify(msg models.InboundMessage) *ExtractedTransaction {
	rule := c.registry.find(msg.Sender, msg.Subject)
	if rule == nil {
		return nil
	}

	m := rule.amountRe.FindStringSubmatch(msg.BodyText)
	if m == nil {
		return nil
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || !amount.IsPositive() {
		return nil
	}

	return &ExtractedTransaction{
		Amount:          amount,
		Description:     msg.Subject,
		Date:            dateOnly(msg.SentAt.In(c.loc)),
		PaymentMethod:   detectPaymentMethod(msg.BodyText, msg.Sender),
		CategoryName:    rule.rule.DefaultCategory,
		SourceReference: msg.MessageID,
		Notes:           "Auto-parsed from email: " + msg.Sender,
	}
}

// detectPaymentMethod checks keywords in order; some senders embed several of
// them, so the first hit wins.
func detectPaymentMethod(content, sender string) models.PaymentMethod {
	lowerContent := strings.ToLower(content)
	lowerSender := strings.ToLower(sender)

	switch {
	case strings.Contains(lowerContent, "upi") || strings.Contains(lowerSender, "upi"):
		return models.PaymentUPI
	case strings.Contains(lowerContent, "credit card") || strings.Contains(lowerSender, "credit"):
		return models.PaymentCreditCard
	case strings.Contains(lowerContent, "debit card") || strings.Contains(lowerSender, "debit"):
		return models.PaymentDebitCard
	case strings.Contains(lowerContent, "wallet") || strings.Contains(lowerSender, "paytm") ||
		strings.Contains(lowerSender, "amazonpay"):
		return models.PaymentWallet
	case strings.Contains(lowerSender, "netflix") || strings.Contains(lowerSender, "spotify") ||
		strings.Contains(lowerSender, "subscription"):
		return models.PaymentSubscription
	}
	return models.PaymentNetBanking
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ============================================================================
// ORCHESTRATOR
// ============================================================================

type RunState string

const (
	StateNotConfigured RunState = "NOT_CONFIGURED"
	StateConnectFailed RunState = "CONNECT_FAILED"
	StateScanFailed    RunState = "SCAN_FAILED"
	StateCompleted     RunState = "COMPLETED"
)

// ParseResult summarizes one mailbox run.
type ParseResult struct {
	Scanned   int      `json:"scanned"`
	Extracted int      `json:"extracted"`
	Persisted int      `json:"persisted"`
	Skipped   int      `json:"skipped"`
	State     RunState `json:"state"`
}

// Narrow collaborator contracts so the orchestrator can run against stubs.

type CategoryResolving interface {
	Resolve(ctx context.Context, userID, name string) (*models.Category, error)
}

type TransactionWriter interface {
	Save(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
}

type Notifier interface {
	Notify(ctx context.Context, user *models.User, typ models.NotificationType, title, message string) error
}

type EmailParsingService struct {
	dialer       MailDialer
	classifier   *MessageClassifier
	categories   CategoryResolving
	transactions TransactionWriter
	notifier     Notifier
}

func NewEmailParsingService(
	dialer MailDialer,
	classifier *MessageClassifier,
	categories CategoryResolving,
	transactions TransactionWriter,
	notifier Notifier,
) *EmailParsingService {
	return &EmailParsingService{
		dialer:       dialer,
		classifier:   classifier,
		categories:   categories,
		transactions: transactions,
		notifier:     notifier,
	}
}

// MailAccountFor builds the connection profile from the user's stored
// settings, decrypting the IMAP secret. Returns ErrNotConfigured when
// parsing is disabled or credentials are incomplete.
func MailAccountFor(user *models.User) (models.MailAccount, error) {
	account := models.MailAccount{
		Host:     user.EmailIMAPHost,
		Port:     user.EmailIMAPPort,
		Username: user.EmailIMAPUsername,
		Enabled:  user.EmailParsingEnabled,
	}

	if user.EmailIMAPPassword != "" {
		secret, err := utils.DecryptSecret(user.EmailIMAPPassword)
		if err != nil {
			return models.MailAccount{}, fmt.Errorf("%w: cannot decrypt mailbox secret", ErrNotConfigured)
		}
		account.Secret = secret
	}

	if !account.Configured() {
		return models.MailAccount{}, ErrNotConfigured
	}
	return account, nil
}

// ParseMailbox runs one full ingestion pass for a user: open the mailbox,
// classify every unread message, resolve categories, persist transactions,
// notify, and mark processed messages read. One bad message never aborts the
// run; connection-level failures do.
func (s *EmailParsingService) ParseMailbox(ctx context.Context, user *models.User) (ParseResult, error) {
	result := ParseResult{State: StateNotConfigured}

	account, err := MailAccountFor(user)
	if err != nil {
		utils.SafeLog("📭 Email parsing not configured for user %s", user.Username)
		return result, err
	}

	session, err := s.dialer.Open(ctx, account)
	if err != nil {
		result.State = StateConnectFailed
		utils.SafeLog("❌ Mailbox connection failed for %s: %v", account.Username, err)
		return result, err
	}
	defer session.Close()

	messages, err := session.ListUnread(ctx)
	if err != nil {
		result.State = StateScanFailed
		utils.SafeLog("❌ Unread scan failed for %s: %v", account.Username, err)
		return result, err
	}
	utils.SafeLog("📬 Found %d unread messages for user %s", len(messages), user.Username)

	for _, msg := range messages {
		result.Scanned++

		extracted := s.classifier.Classify(msg)
		if extracted == nil {
			continue // not a recognized financial notification, leave unread
		}
		result.Extracted++

		if s.processMessage(ctx, user, session, msg, extracted) {
			result.Persisted++
		} else {
			result.Skipped++
		}
	}

	result.State = StateCompleted
	log.Printf("✅ Parsed %d transactions from %d unread messages for user %s",
		result.Persisted, result.Scanned, user.Username)
	return result, nil
}

// processMessage handles one extracted candidate end to end. Returns true
// only when a new transaction was persisted. All failures are contained.
func (s *EmailParsingService) processMessage(
	ctx context.Context,
	user *models.User,
	session MailSession,
	msg models.InboundMessage,
	extracted *ExtractedTransaction,
) bool {
	category, err := s.categories.Resolve(ctx, user.ID, extracted.CategoryName)
	if err != nil {
		utils.SafeLog("⚠️ Category resolution failed for message %s: %v", msg.MessageID, err)
		return false
	}

	tx := &models.Transaction{
		UserID:          user.ID,
		Description:     extracted.Description,
		Amount:          extracted.Amount,
		Date:            extracted.Date,
		PaymentMethod:   extracted.PaymentMethod,
		CategoryID:      category.ID,
		Source:          models.SourceEmailParsed,
		SourceReference: extracted.SourceReference,
		Notes:           extracted.Notes,
	}

	saved, err := s.transactions.Save(ctx, tx)
	if errors.Is(err, ErrDuplicateTransaction) {
		// Already ingested on an earlier run; just clear the unread flag.
		if err := session.MarkRead(ctx, msg.MessageID); err != nil {
			utils.SafeLog("⚠️ Failed to mark duplicate %s read: %v", msg.MessageID, err)
		}
		return false
	}
	if err != nil {
		utils.SafeLog("⚠️ Failed to persist transaction for message %s: %v", msg.MessageID, err)
		return false
	}

	if err := s.notifier.Notify(ctx, user, models.NotificationEmailParsed,
		"Transaction Auto-Added",
		fmt.Sprintf("₹%s transaction added from email: %s", saved.Amount.StringFixed(2), saved.Description),
	); err != nil {
		utils.SafeLog("⚠️ Notification failed for message %s: %v", msg.MessageID, err)
	}

	// Marking read is best-effort; the store-level dedup index protects
	// against reprocessing if this fails.
	if err := session.MarkRead(ctx, msg.MessageID); err != nil {
		utils.SafeLog("⚠️ Failed to mark message %s read: %v", msg.MessageID, err)
	}

	return true
}

// ParseMailboxAsync runs ParseMailbox in the background under a bounded
// timeout, for the manual "run now" trigger that must return immediately.
func (s *EmailParsingService) ParseMailboxAsync(user *models.User) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := s.ParseMailbox(ctx, user); err != nil {
			utils.SafeLog("❌ Background email parsing failed for user %s: %v", user.Username, err)
		}
	}()
}
