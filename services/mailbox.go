package services

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/Anmolmahajn/money-tracker-backend/models"
)

// MailSession is one authenticated, INBOX-selected mailbox connection.
type MailSession interface {
	// ListUnread returns every unread message in the inbox. Bodies are
	// fetched without clearing the unread flag.
	ListUnread(ctx context.Context) ([]models.InboundMessage, error)
	// MarkRead clears the unread flag for a message returned by ListUnread.
	MarkRead(ctx context.Context, messageID string) error
	Close() error
}

// MailDialer opens sessions from a connection profile.
type MailDialer interface {
	Open(ctx context.Context, account models.MailAccount) (MailSession, error)
}

// IMAPDialer connects over IMAPS.
type IMAPDialer struct {
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

func NewIMAPDialer() *IMAPDialer {
	return &IMAPDialer{
		DialTimeout: 30 * time.Second,
		ReadTimeout: 60 * time.Second,
	}
}

func (d *IMAPDialer) Open(ctx context.Context, account models.MailAccount) (MailSession, error) {
	addr := fmt.Sprintf("%s:%d", account.Host, account.Port)

	c, err := client.DialWithDialerTLS(&net.Dialer{Timeout: d.DialTimeout}, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrMailConnect, addr, err)
	}
	c.Timeout = d.ReadTimeout

	if err := c.Login(account.Username, account.Secret); err != nil {
		c.Logout()
		return nil, fmt.Errorf("%w: login as %s: %v", ErrMailAuth, account.Username, err)
	}

	if _, err := c.Select("INBOX", false); err != nil {
		c.Logout()
		return nil, fmt.Errorf("%w: select INBOX: %v", ErrMailConnect, err)
	}

	return &imapSession{client: c, uidByID: make(map[string]uint32)}, nil
}

type imapSession struct {
	client *client.Client
	// uidByID maps message IDs back to UIDs for MarkRead. UIDs stay valid
	// when another client expunges messages mid-session; sequence numbers
	// do not.
	uidByID map[string]uint32
}

var fetchItems = []imap.FetchItem{
	imap.FetchEnvelope,
	imap.FetchInternalDate,
	imap.FetchUid,
	imap.FetchItem("BODY.PEEK[TEXT]"),
}

func (s *imapSession) ListUnread(ctx context.Context) ([]models.InboundMessage, error) {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}

	seqNums, err := s.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unread: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums...)

	ch := make(chan *imap.Message, len(seqNums))
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqSet, fetchItems, ch)
	}()

	var messages []models.InboundMessage
	for msg := range ch {
		inbound, ok := s.toInbound(msg)
		if !ok {
			continue
		}
		s.uidByID[inbound.MessageID] = msg.Uid
		messages = append(messages, inbound)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("fetch unread: %w", err)
		}
	}

	return messages, nil
}

func (s *imapSession) toInbound(msg *imap.Message) (models.InboundMessage, bool) {
	if msg.Envelope == nil {
		return models.InboundMessage{}, false
	}

	sender := ""
	if len(msg.Envelope.From) > 0 {
		sender = msg.Envelope.From[0].Address()
	}

	messageID := strings.TrimSpace(msg.Envelope.MessageId)
	if messageID == "" {
		// A few senders omit Message-ID; synthesize a stable one so the
		// dedup index still works across runs.
		messageID = fmt.Sprintf("<synthetic-%s-%d@local>", sender, msg.Envelope.Date.Unix())
	}

	body := ""
	for section, literal := range msg.Body {
		if section == nil || literal == nil {
			continue
		}
		raw, err := io.ReadAll(literal)
		if err != nil {
			continue
		}
		body = string(raw)
		break
	}

	sentAt := msg.Envelope.Date
	if sentAt.IsZero() {
		sentAt = msg.InternalDate
	}

	return models.InboundMessage{
		Sender:    sender,
		Subject:   msg.Envelope.Subject,
		BodyText:  body,
		SentAt:    sentAt,
		MessageID: messageID,
	}, true
}

func (s *imapSession) MarkRead(ctx context.Context, messageID string) error {
	uid, ok := s.uidByID[messageID]
	if !ok {
		return fmt.Errorf("unknown message %s", messageID)
	}

	uidSet := new(imap.SeqSet)
	uidSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	return s.client.UidStore(uidSet, item, []interface{}{imap.SeenFlag}, nil)
}

func (s *imapSession) Close() error {
	return s.client.Logout()
}
