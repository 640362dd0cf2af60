package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperror"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/repository"
)

// DirectoryService registers the users and categories events refer to.
type DirectoryService struct {
	store repository.Store
	log   zerolog.Logger
}

func NewDirectoryService(store repository.Store, opts Options) *DirectoryService {
	opts = opts.withDefaults()
	return &DirectoryService{
		store: store,
		log:   opts.Logger.With().Str("component", "directory_service").Logger(),
	}
}

// CreateUser registers a user. Emails are unique.
func (s *DirectoryService) CreateUser(ctx context.Context, req model.NewUserRequest) (model.UserDto, error) {
	u := model.User{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	}
	if u.Name == "" || u.Email == "" {
		return model.UserDto{}, apperror.Validation("name and email are required")
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.UserDto{}, apperror.Wrap(apperror.ErrConflict, err, "Email %s is already registered", u.Email)
		}
		return model.UserDto{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Int64("user_id", u.ID).Msg("user created")
	return model.ToUserDto(u), nil
}

// CreateCategory registers a category. Names are unique.
func (s *DirectoryService) CreateCategory(ctx context.Context, req model.NewCategoryDto) (model.CategoryDto, error) {
	c := model.Category{Name: strings.TrimSpace(req.Name)}
	if c.Name == "" {
		return model.CategoryDto{}, apperror.Validation("name is required")
	}
	if err := s.store.CreateCategory(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.CategoryDto{}, apperror.Wrap(apperror.ErrConflict, err, "Category %q already exists", c.Name)
		}
		return model.CategoryDto{}, fmt.Errorf("create category: %w", err)
	}
	s.log.Info().Int64("category_id", c.ID).Str("name", c.Name).Msg("category created")
	return model.ToCategoryDto(c), nil
}
