package models

import "time"

// MailAccount is the connection profile for one user's mailbox. Secret is the
// already-decrypted IMAP password; it only ever lives in memory for the
// duration of a parsing run.
type MailAccount struct {
	Host     string
	Port     int
	Username string
	Secret   string
	Enabled  bool
}

// Configured reports whether the account has enough detail to attempt a
// connection.
func (a MailAccount) Configured() bool {
	return a.Enabled && a.Host != "" && a.Username != "" && a.Secret != ""
}

// InboundMessage is one unread message as reported by a mailbox session. It is
// transient: never persisted, consumed within a single scan. MessageID is the
// dedup key for everything downstream.
type InboundMessage struct {
	Sender    string
	Subject   string
	BodyText  string
	SentAt    time.Time
	MessageID string
}
