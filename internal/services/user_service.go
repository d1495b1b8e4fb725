package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// UserService looks up other users
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Search matches term against email and name, ignoring case. An empty term
// matches nobody.
func (s *UserService) Search(ctx context.Context, term string, params utils.PaginationParams) ([]models.User, error) {
	if strings.TrimSpace(term) == "" {
		return []models.User{}, nil
	}

	users, err := s.userRepo.Search(ctx, term, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
