package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cv-navigator/internal/models"
	"cv-navigator/internal/storage"
)

// Subscriptions keeps saved searches as one JSON document, keyed by chat.
type Subscriptions struct {
	store storage.Store
	mu    sync.Mutex
}

func NewSubscriptions(store storage.Store) *Subscriptions {
	return &Subscriptions{store: store}
}

func (s *Subscriptions) List(ctx context.Context) ([]models.AlertSubscription, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	subs := make([]models.AlertSubscription, 0, len(all))
	for _, sub := range all {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].ChatID < subs[j].ChatID
	})
	return subs, nil
}

func (s *Subscriptions) Get(ctx context.Context, chatID int64) (models.AlertSubscription, bool, error) {
	all, err := s.load(ctx)
	if err != nil {
		return models.AlertSubscription{}, false, err
	}
	sub, ok := all[chatID]
	return sub, ok, nil
}

// Put adds or replaces the chat's saved search.
func (s *Subscriptions) Put(ctx context.Context, sub models.AlertSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	all[sub.ChatID] = sub
	return s.save(ctx, all)
}

// Touch stores sub's run time unless the chat unsubscribed meanwhile.
func (s *Subscriptions) Touch(ctx context.Context, sub models.AlertSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	current, ok := all[sub.ChatID]
	if !ok {
		return nil
	}
	current.LastRunAt = sub.LastRunAt
	all[sub.ChatID] = current
	return s.save(ctx, all)
}

// Remove reports whether the chat had a subscription.
func (s *Subscriptions) Remove(ctx context.Context, chatID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := all[chatID]; !ok {
		return false, nil
	}
	delete(all, chatID)

	if err := s.store.Delete(ctx, storage.AlertSeenKey(chatID)); err != nil {
		return false, fmt.Errorf("forget seen jobs: %w", err)
	}
	return true, s.save(ctx, all)
}

func (s *Subscriptions) load(ctx context.Context) (map[int64]models.AlertSubscription, error) {
	all := make(map[int64]models.AlertSubscription)
	err := storage.GetJSON(ctx, s.store, storage.AlertSubscriptionsKey, &all)
	if errors.Is(err, storage.ErrNotFound) {
		return make(map[int64]models.AlertSubscription), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	return all, nil
}

func (s *Subscriptions) save(ctx context.Context, all map[int64]models.AlertSubscription) error {
	if err := storage.SetJSON(ctx, s.store, storage.AlertSubscriptionsKey, all, 0); err != nil {
		return fmt.Errorf("save subscriptions: %w", err)
	}
	return nil
}
