// Package accounts records connected platform accounts.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pysugar/post-scheduler/internal/db/models"
	"github.com/pysugar/post-scheduler/internal/platforms"
	"github.com/pysugar/post-scheduler/internal/validation"
	"golang.org/x/oauth2"
)

// ErrExchangeFailed wraps failures to trade an authorization code for tokens.
var ErrExchangeFailed = errors.New("token exchange failed")

// Store is the part of the record store the account service needs.
type Store interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// Exchanger trades an authorization code for platform tokens.
type Exchanger interface {
	Exchange(ctx context.Context, platform, code string) (*oauth2.Token, error)
}

// PlaceholderExchanger returns fixed demo credentials and never contacts a platform.
type PlaceholderExchanger struct{}

func (PlaceholderExchanger) Exchange(_ context.Context, _, _ string) (*oauth2.Token, error) {
	return &oauth2.Token{
		AccessToken:  "demo_access_token",
		RefreshToken: "demo_refresh",
		TokenType:    "Bearer",
	}, nil
}

type Service struct {
	store     Store
	exchanger Exchanger
	now       func() time.Time
}

// NewService creates the account service. A nil exchanger uses PlaceholderExchanger.
func NewService(store Store, exchanger Exchanger) *Service {
	if exchanger == nil {
		exchanger = PlaceholderExchanger{}
	}
	return &Service{store: store, exchanger: exchanger, now: time.Now}
}

// WithClock replaces the clock used for connected_at.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecordConnection exchanges code for tokens and stores a new account for platform.
func (s *Service) RecordConnection(ctx context.Context, platform, code string) (string, error) {
	platform = platforms.Normalize(platform)
	if platform == "" {
		return "", validation.Errorf("platform", "platform is required")
	}
	if strings.TrimSpace(code) == "" {
		return "", validation.Errorf("code", "authorization code is required")
	}

	token, err := s.exchanger.Exchange(ctx, platform, code)
	if err != nil {
		return "", fmt.Errorf("%w for %s: %v", ErrExchangeFailed, platform, err)
	}

	account := &models.Account{
		ID:           uuid.New().String(),
		Platform:     platform,
		AccountName:  platforms.AccountName(platform),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
		Meta: map[string]string{
			"connected_at": s.now().UTC().Format(time.RFC3339Nano),
			"demo_code":    code,
		},
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return "", err
	}
	return account.ID, nil
}

// List returns all accounts in store order.
func (s *Service) List(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}
