package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heymemory/server/internal/model"
	"github.com/heymemory/server/internal/repository"
)

var (
	ErrRememberItemNotFound = errors.New("remember item not found")
	ErrTitleRequired        = errors.New("title is required")
)

// RememberService manages "remember this" notes, owner-scoped like faces.
type RememberService struct {
	itemRepo repository.RememberItemRepository
}

func NewRememberService(itemRepo repository.RememberItemRepository) *RememberService {
	return &RememberService{itemRepo: itemRepo}
}

func (s *RememberService) Items(userID string) ([]*model.RememberItem, error) {
	items, err := s.itemRepo.ByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get remember items: %w", err)
	}

	return items, nil
}

func (s *RememberService) Item(userID, itemID string) (*model.RememberItem, error) {
	item, err := s.itemRepo.ByID(itemID)
	if err != nil {
		return nil, ErrRememberItemNotFound
	}

	if item.UserID != userID {
		return nil, ErrRememberItemNotFound
	}

	return item, nil
}

func (s *RememberService) Create(userID, title, content string, pinned bool) (*model.RememberItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	now := time.Now()
	item := &model.RememberItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		Pinned:    pinned,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.itemRepo.Create(item)
	if err != nil {
		return nil, fmt.Errorf("failed to create remember item: %w", err)
	}

	return item, nil
}

func (s *RememberService) Update(userID, itemID, title, content string, pinned bool) (*model.RememberItem, error) {
	item, err := s.Item(userID, itemID)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	item.Title = title
	item.Content = content
	item.Pinned = pinned
	item.UpdatedAt = time.Now()

	err = s.itemRepo.Update(item)
	if err != nil {
		return nil, fmt.Errorf("failed to update remember item: %w", err)
	}

	return item, nil
}

func (s *RememberService) Delete(userID, itemID string) error {
	item, err := s.Item(userID, itemID)
	if err != nil {
		return err
	}

	err = s.itemRepo.Delete(item.ID)
	if err != nil {
		return fmt.Errorf("failed to delete remember item: %w", err)
	}

	return nil
}
