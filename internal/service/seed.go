package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"content-tracker/internal/model"
	"content-tracker/internal/repository"
)

type AccountWriter interface {
	Upsert(ctx context.Context, ext repository.RepoExtension, username, platform string) (*model.TrackedAccount, error)
}

type SubscriptionWriter interface {
	UpsertSubscriber(ctx context.Context, ext repository.RepoExtension, address string) (*model.Subscriber, error)
	Insert(ctx context.Context, ext repository.RepoExtension, subscriberID, accountID uuid.UUID) error
}

// SubscribeService registers subscribers and the accounts they follow.
type SubscribeService struct {
	log           *zap.Logger
	accounts      AccountWriter
	subscriptions SubscriptionWriter
	tx            Transactor
}

func NewSubscribeService(log *zap.Logger, accounts AccountWriter, subscriptions SubscriptionWriter, tx Transactor) *SubscribeService {
	return &SubscribeService{
		log:           log.Named("subscribe"),
		accounts:      accounts,
		subscriptions: subscriptions,
		tx:            tx,
	}
}

// Subscribe makes address follow every username in one transaction. Repeating it is harmless.
func (s *SubscribeService) Subscribe(ctx context.Context, address, platform string, usernames ...string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("subscriber address is empty")
	}

	return s.tx.WithinTx(ctx, func(ext repository.RepoExtension) error {
		subscriber, err := s.subscriptions.UpsertSubscriber(ctx, ext, address)
		if err != nil {
			return err
		}

		for _, username := range usernames {
			username = strings.TrimPrefix(strings.TrimSpace(username), "@")
			if username == "" {
				continue
			}

			account, err := s.accounts.Upsert(ctx, ext, username, platform)
			if err != nil {
				return err
			}

			if err := s.subscriptions.Insert(ctx, ext, subscriber.ID, account.ID); err != nil {
				return err
			}

			s.log.Info("Subscribed",
				zap.String("subscriber", subscriber.Address),
				zap.String("account", account.Username),
			)
		}

		return nil
	})
}
