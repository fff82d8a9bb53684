package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

const (
	inviteSendAttempts = 3
	maxInviteRetryWait = 30 * time.Second
)

// InviteEmail письмо владельцу сайта с кодом для подтверждения нового администратора
type InviteEmail struct {
	To        string
	Code      string
	Username  string
	FirstName string
	LastName  string
}

func (e InviteEmail) requester() string {
	name := strings.TrimSpace(e.FirstName + " " + e.LastName)
	if name == "" {
		return e.Username
	}
	return name
}

func (e InviteEmail) subject() string {
	return fmt.Sprintf("Science or Fiction stats: admin request from %s", e.Username)
}

func (e InviteEmail) text() string {
	return fmt.Sprintf("%s (%s) asked for admin access.\nConfirmation code: %s\nThe request expires in %d minutes.",
		e.requester(), e.Username, e.Code, int(pendingAdminTTL.Minutes()))
}

func (e InviteEmail) html() string {
	return fmt.Sprintf("<p>%s (<code>%s</code>) asked for admin access.</p><p>Confirmation code: <strong>%s</strong></p><p>The request expires in %d minutes.</p>",
		html.EscapeString(e.requester()), html.EscapeString(e.Username), html.EscapeString(e.Code), int(pendingAdminTTL.Minutes()))
}

// EmailService отправляет код приглашения. idempotencyKey защищает от двойной отправки при повторе.
type EmailService interface {
	SendInviteCode(ctx context.Context, email InviteEmail, idempotencyKey string) error
}

// NoopEmailService пишет код в лог вместо отправки (ключ Resend не задан)
type NoopEmailService struct{}

func (s *NoopEmailService) SendInviteCode(ctx context.Context, email InviteEmail, idempotencyKey string) error {
	log.Printf("[EmailService] Код приглашения для %s: %s", email.Username, email.Code)
	return nil
}

// ResendEmailService отправляет письма через Resend
type ResendEmailService struct {
	from   string
	client *resend.Client
}

// NewResendEmailService создает отправителя Resend
func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{from: from, client: resend.NewClient(apiKey)}, nil
}

func (s *ResendEmailService) inviteRequest(email InviteEmail) *resend.SendEmailRequest {
	return &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{email.To},
		Subject: email.subject(),
		Text:    email.text(),
		Html:    email.html(),
	}
}

// SendInviteCode отправляет письмо, повторяя попытку при rate limit и сетевых таймаутах
func (s *ResendEmailService) SendInviteCode(ctx context.Context, email InviteEmail, idempotencyKey string) error {
	if email.To == "" || email.Code == "" {
		return fmt.Errorf("%w: recipient and code are required", ErrEmailMisconfigured)
	}

	request := s.inviteRequest(email)
	options := &resend.SendEmailOptions{}
	if key := strings.TrimSpace(idempotencyKey); key != "" {
		options.IdempotencyKey = key
	}

	var err error
	for attempt := 0; attempt < inviteSendAttempts; attempt++ {
		if _, err = s.client.Emails.SendWithOptions(ctx, request, options); err == nil {
			log.Printf("[EmailService] Код приглашения для %s отправлен", email.Username)
			return nil
		}

		wait, retry := retryDelay(err, attempt)
		if !retry {
			return fmt.Errorf("resend send failed: %w", err)
		}
		log.Printf("[EmailService] Попытка %d не удалась: %v. Повтор через %s", attempt+1, err, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("resend send failed after %d attempts: %w", inviteSendAttempts, err)
}

// retryDelay решает, стоит ли повторять отправку, и сколько ждать
func retryDelay(err error, attempt int) (time.Duration, bool) {
	backoff := time.Duration(attempt+1) * 500 * time.Millisecond

	var rateLimited *resend.RateLimitError
	if errors.As(err, &rateLimited) {
		seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimited.RetryAfter))
		if convErr != nil || seconds <= 0 {
			return 2 * backoff, true
		}
		return min(time.Duration(seconds)*time.Second, maxInviteRetryWait), true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return backoff, true
	}
	return 0, false
}
