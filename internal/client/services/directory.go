package services

import (
	"context"

	"github.com/dmitrijs2005/toolshare/internal/client/models"
)

// UserSource is the part of the session manager the directory reads through.
type UserSource interface {
	FetchUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, page models.Page) ([]*models.User, error)
}

// DirectoryService looks up other members of the neighborhood.
type DirectoryService interface {
	FetchUserProfile(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, page models.Page) ([]*models.User, error)
}

type directoryService struct {
	users UserSource
}

func NewDirectoryService(users UserSource) DirectoryService {
	return &directoryService{users: users}
}

func (d *directoryService) FetchUserProfile(ctx context.Context, id string) (*models.User, error) {
	return d.users.FetchUser(ctx, id)
}

// ListUsers fills unset paging fields from models.DefaultPage.
func (d *directoryService) ListUsers(ctx context.Context, page models.Page) ([]*models.User, error) {
	def := models.DefaultPage()
	if page.Order == "" {
		page.Order = def.Order
	}
	if page.Asc == "" {
		page.Asc = def.Asc
	}
	if page.Page < 1 {
		page.Page = def.Page
	}
	if page.PageSize < 1 {
		page.PageSize = def.PageSize
	}
	return d.users.ListUsers(ctx, page)
}
