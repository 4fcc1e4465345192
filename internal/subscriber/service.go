package subscriber

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/newsletter/internal/email"
)

// Status values stored on a subscription row.
const (
	StatusPending   = "pending_confirmation"
	StatusConfirmed = "confirmed"
)

// Subscriber is a stored subscription.
type Subscriber struct {
	ID           uuid.UUID
	Email        string
	Name         string
	SubscribedAt time.Time
	Status       string
}

// Repository persists subscriptions and confirmation tokens.
type Repository interface {
	// CreateSubscriber stores the subscriber and its confirmation token atomically.
	CreateSubscriber(ctx context.Context, sub Subscriber, token string) error

	// SubscriberIDByToken resolves a confirmation token; ErrUnknownToken if absent.
	SubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, error)

	// MarkConfirmed flips the subscriber's status to confirmed.
	MarkConfirmed(ctx context.Context, subscriberID uuid.UUID) error
}

// Service drives the subscribe / confirm flow.
type Service struct {
	repo    Repository
	sender  email.Sender
	baseURL string
	log     *slog.Logger
}

func NewService(repo Repository, sender email.Sender, baseURL string, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		sender:  sender,
		baseURL: baseURL,
		log:     log,
	}
}

// Subscribe stores a pending subscription and sends the confirmation email.
// Validation failures are reported to the caller; nothing is stored.
func (s *Service) Subscribe(ctx context.Context, name, emailAddr string) error {
	parsedName, err := ParseName(name)
	if err != nil {
		return err
	}
	parsedEmail, err := ParseEmail(emailAddr)
	if err != nil {
		return err
	}

	sub := Subscriber{
		ID:           uuid.New(),
		Email:        parsedEmail.String(),
		Name:         parsedName,
		SubscribedAt: time.Now(),
		Status:       StatusPending,
	}
	token := newSubscriptionToken()

	if err := s.repo.CreateSubscriber(ctx, sub, token); err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}

	if err := s.sendConfirmationEmail(ctx, sub, token); err != nil {
		// The subscription is stored; the visitor can retry the form to get
		// a fresh token if this email never arrives.
		s.log.ErrorContext(ctx, "failed to send confirmation email",
			slog.String("subscriber_id", sub.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("send confirmation email: %w", err)
	}

	s.log.InfoContext(ctx, "new subscriber stored",
		slog.String("subscriber_id", sub.ID.String()))
	return nil
}

// Confirm marks the subscriber behind token as confirmed.
func (s *Service) Confirm(ctx context.Context, token string) error {
	subscriberID, err := s.repo.SubscriberIDByToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.MarkConfirmed(ctx, subscriberID); err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}

	s.log.InfoContext(ctx, "subscription confirmed",
		slog.String("subscriber_id", subscriberID.String()))
	return nil
}

func (s *Service) sendConfirmationEmail(ctx context.Context, sub Subscriber, token string) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", s.baseURL, token)
	htmlBody := fmt.Sprintf(
		"Welcome to our newsletter!<br />Click <a href=\"%s\">here</a> to confirm your subscription.",
		link,
	)
	textBody := fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.",
		link,
	)
	return s.sender.Send(ctx, sub.Email, "Welcome!", htmlBody, textBody)
}
