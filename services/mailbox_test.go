package services

import (
	"context"
	"testing"
	"time"

	"github.com/emersion/go-imap"
)

// Flag updates must address messages by UID, never by sequence number:
// sequence numbers shift when another client expunges mid-session.
func TestFetchRequestsUIDs(t *testing.T) {
	found := false
	for _, item := range fetchItems {
		if item == imap.FetchUid {
			found = true
		}
	}
	if !found {
		t.Fatal("fetch must request UIDs so MarkRead can address messages by UID")
	}
}

func TestMarkReadRejectsUnknownMessage(t *testing.T) {
	s := &imapSession{uidByID: map[string]uint32{"<known@mail>": 42}}

	// Unknown IDs fail before any server round trip.
	if err := s.MarkRead(context.Background(), "<never-fetched@mail>"); err == nil {
		t.Fatal("expected error for a message ID the session never fetched")
	}
}

func TestToInboundSynthesizesMissingMessageID(t *testing.T) {
	s := &imapSession{uidByID: make(map[string]uint32)}
	sent := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	msg := &imap.Message{
		Envelope: &imap.Envelope{
			Subject: "Debit Alert",
			Date:    sent,
			From: []*imap.Address{{
				MailboxName: "alerts",
				HostName:    "hdfcbank.net",
			}},
		},
	}

	first, ok := s.toInbound(msg)
	if !ok {
		t.Fatal("expected a message")
	}
	if first.MessageID == "" {
		t.Fatal("missing Message-ID must be synthesized for dedup")
	}

	// The synthetic ID must be stable across scans of the same message.
	second, _ := s.toInbound(msg)
	if first.MessageID != second.MessageID {
		t.Errorf("synthetic ID not stable: %q vs %q", first.MessageID, second.MessageID)
	}
	if first.Sender != "alerts@hdfcbank.net" {
		t.Errorf("sender = %q", first.Sender)
	}
}
