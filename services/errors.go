package services

import "errors"

var (
	// ErrNotConfigured means email parsing is disabled or the mailbox
	// credentials are incomplete. Terminal, never retried.
	ErrNotConfigured = errors.New("email parsing not configured")

	// ErrMailAuth is an authentication failure against the mail server.
	ErrMailAuth = errors.New("mailbox authentication failed")

	// ErrMailConnect is a network-level failure reaching the mail server.
	ErrMailConnect = errors.New("mailbox connection failed")

	// ErrDuplicateTransaction signals the (user, source_reference) dedup
	// constraint fired: the message was already ingested.
	ErrDuplicateTransaction = errors.New("transaction already ingested")

	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrUserNotFound        = errors.New("user not found")
)
