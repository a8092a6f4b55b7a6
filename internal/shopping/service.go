package shopping

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service applies shopping list writes to the stores and keeps the live list
// in step with them.
type Service struct {
	planned PlannedSource
	manual  ManualStore
	checked CheckedStore
	live    *LiveList
}

func NewService(planned PlannedSource, manual ManualStore, checked CheckedStore, live *LiveList) *Service {
	return &Service{planned: planned, manual: manual, checked: checked, live: live}
}

// Live exposes the list the service keeps current.
func (s *Service) Live() *LiveList {
	return s.live
}

// Items returns the current shopping list.
func (s *Service) Items() []ShopItem {
	return s.live.Items()
}

// Export renders what is still to buy.
func (s *Service) Export() string {
	return Format(s.live.Items())
}

// Sync reloads all three sources and rebuilds the list once. Other processes
// sharing the stores (the bot and the API server) become visible here.
func (s *Service) Sync(ctx context.Context) error {
	meals, err := s.planned.ListUnshopped(ctx)
	if err != nil {
		return fmt.Errorf("failed to load planned meals: %w", err)
	}
	manual, err := s.manual.ListManual(ctx)
	if err != nil {
		return fmt.Errorf("failed to load manual items: %w", err)
	}
	checked, err := s.checked.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checked state: %w", err)
	}
	s.live.Replace(meals, manual, checked)
	return nil
}

// Current syncs with the stores and returns the up-to-date list.
func (s *Service) Current(ctx context.Context) ([]ShopItem, error) {
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	return s.live.Items(), nil
}

// SyncEvery keeps the list in step with the stores until ctx is done.
func (s *Service) SyncEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Warning: periodic shopping sync failed: %v", err)
			}
		}
	}
}

func (s *Service) RefreshPlanned(ctx context.Context) error {
	meals, err := s.planned.ListUnshopped(ctx)
	if err != nil {
		return fmt.Errorf("failed to load planned meals: %w", err)
	}
	s.live.SetPlanned(meals)
	return nil
}

func (s *Service) RefreshManual(ctx context.Context) error {
	items, err := s.manual.ListManual(ctx)
	if err != nil {
		return fmt.Errorf("failed to load manual items: %w", err)
	}
	s.live.SetManual(items)
	return nil
}

func (s *Service) RefreshChecked(ctx context.Context) error {
	checked, err := s.checked.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checked state: %w", err)
	}
	s.live.SetChecked(checked)
	return nil
}

// AddManualItem stores a new unchecked item. Duplicate names are allowed.
func (s *Service) AddManualItem(ctx context.Context, name string) (*ManualItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	item := ManualItem{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.manual.AddManual(ctx, item); err != nil {
		s.resync(ctx, s.RefreshManual)
		return nil, err
	}

	if err := s.RefreshManual(ctx); err != nil {
		log.Printf("Warning: %v", err)
	}
	return &item, nil
}

func (s *Service) DeleteManualItem(ctx context.Context, id string) error {
	ok, err := s.manual.DeleteManual(ctx, id)
	if err != nil {
		s.resync(ctx, s.RefreshManual)
		return err
	}
	if !ok {
		return ErrItemNotFound
	}

	if err := s.RefreshManual(ctx); err != nil {
		log.Printf("Warning: %v", err)
	}
	return nil
}

// ToggleItem sets the checked flag of a list line. Manual items are updated by
// ID; planned items store the flag under their aggregation key.
func (s *Service) ToggleItem(ctx context.Context, id string, checked bool, source Source) error {
	switch source {
	case SourceManual:
		ok, err := s.manual.SetManualChecked(ctx, id, checked)
		if err != nil {
			s.resync(ctx, s.RefreshManual)
			return err
		}
		if !ok {
			return ErrItemNotFound
		}
		return s.RefreshManual(ctx)

	case SourcePlanned:
		if err := s.checked.Set(ctx, id, checked); err != nil {
			s.resync(ctx, s.RefreshChecked)
			return err
		}
		return s.RefreshChecked(ctx)

	default:
		return ErrUnknownSource
	}
}

// ClearChecked deletes the manual items that have been ticked off.
func (s *Service) ClearChecked(ctx context.Context) (int, error) {
	n, err := s.manual.DeleteCheckedManual(ctx)
	if err != nil {
		s.resync(ctx, s.RefreshManual)
		return 0, err
	}
	if n > 0 {
		if err := s.RefreshManual(ctx); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	return n, nil
}

// resync reloads a source after a failed write so the live list never shows
// a change the store did not accept.
func (s *Service) resync(ctx context.Context, refresh func(context.Context) error) {
	if err := refresh(ctx); err != nil {
		log.Printf("Warning: failed to resync shopping list after write error: %v", err)
	}
}
