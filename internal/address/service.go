package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/pkg/db"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
)

// Input carries the full address payload. Create and update take the same
// shape; addresses are replaced wholesale, not patched field by field.
type Input struct {
	FullName    string `validate:"required"`
	Phone       string `validate:"required"`
	AddressLine string `validate:"required"`
	City        string `validate:"required"`
	State       string
	PostalCode  string `validate:"required"`
	Country     string `validate:"required"`
	IsDefault   bool
}

// Service exposes the user's address book.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs an address service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// List returns the user's address book, default first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list addresses")
	}
	return rows, nil
}

// Get loads one address the user owns.
func (s *service) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	return s.findOwned(ctx, userID, addressID)
}

// Create adds an address. The first address a user saves becomes the default
// whether or not they asked for it.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error) {
	count, err := s.repo.CountForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count addresses")
	}

	address := &models.Address{
		UserID:      userID,
		FullName:    input.FullName,
		Phone:       input.Phone,
		AddressLine: input.AddressLine,
		City:        input.City,
		State:       input.State,
		PostalCode:  input.PostalCode,
		Country:     input.Country,
		IsDefault:   input.IsDefault || count == 0,
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return txRepo.Create(ctx, address)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert address")
	}
	return address, nil
}

// Update replaces an address the user owns.
func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error) {
	address, err := s.findOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	address.FullName = input.FullName
	address.Phone = input.Phone
	address.AddressLine = input.AddressLine
	address.City = input.City
	address.State = input.State
	address.PostalCode = input.PostalCode
	address.Country = input.Country

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if input.IsDefault && !address.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return err
			}
			address.IsDefault = true
		}
		return txRepo.Save(ctx, address)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update address")
	}
	return address, nil
}

// Delete removes an address the user owns. Deleting the default promotes the
// most recent remaining address so checkout always has a preselection.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	address, err := s.findOwned(ctx, userID, addressID)
	if err != nil {
		return err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Delete(ctx, address.ID); err != nil {
			return err
		}
		if !address.IsDefault {
			return nil
		}
		remaining, err := txRepo.ListForUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return nil
		}
		remaining[0].IsDefault = true
		return txRepo.Save(ctx, &remaining[0])
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete address")
	}
	return nil
}

// SetDefault marks one address as the default, displacing the previous one.
func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.findOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if address.IsDefault {
		return address, nil
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearDefault(ctx, userID); err != nil {
			return err
		}
		address.IsDefault = true
		return txRepo.Save(ctx, address)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set default address")
	}
	return address, nil
}

func (s *service) findOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindForUser(ctx, addressID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load address")
	}
	return address, nil
}
