package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
)

// Service exposes the user directory operations available to admins.
type Service interface {
	List(ctx context.Context) (*UserList, error)
	Search(ctx context.Context, query string) (*UserList, error)
	Delete(ctx context.Context, id uuid.UUID) (*DeleteUserResult, error)
}

type service struct {
	repo Repository
}

// NewService builds the user directory service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) (*UserList, error) {
	records, err := s.repo.ListNonAdmin(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return toList(records), nil
}

func (s *service) Search(ctx context.Context, query string) (*UserList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	records, err := s.repo.SearchNonAdmin(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search users")
	}
	return toList(records), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) (*DeleteUserResult, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return &DeleteUserResult{UserID: id}, nil
}

func toList(records []models.User) *UserList {
	out := make([]UserResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toResponse(record))
	}
	return &UserList{Users: out}
}
