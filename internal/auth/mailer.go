// Copyright (c) 2026 Kritika. All rights reserved.

package auth

import (
	"context"
	"log/slog"
)

// LogMailer writes confirmation codes to the structured log instead of
// sending mail. It is the delivery backend for development and staging;
// production swaps in a real provider behind the same [Mailer] interface.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer constructs a [LogMailer].
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendConfirmationCode implements [Mailer].
func (mailer *LogMailer) SendConfirmationCode(ctx context.Context, email, username, code string) error {
	mailer.logger.InfoContext(ctx, "confirmation_code_issued",
		slog.String("email", email),
		slog.String("username", username),
		slog.String("code", code),
	)
	return nil
}
