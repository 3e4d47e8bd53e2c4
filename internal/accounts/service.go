// Package accounts registers the people who use the app: clients, lawyers
// and law firms. Each registration creates a login account in users plus a
// profile document under the same id in the role's collection.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/models"
	"github.com/legalease/backend/pkg/apperr"
	"github.com/legalease/backend/pkg/logger"
)

const UsernameTakenMessage = "Username taken"

type Service struct {
	store storage.Store
	cost  int
}

type Option func(*Service)

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{store: store, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registration carries the fields of every role; only those of Role are
// used.
type Registration struct {
	Role     string `json:"-"`
	Username string `json:"username"`
	Password string `json:"password"`

	FullName string `json:"fullName"`
	Phone    string `json:"phone"`

	BarNumber      string `json:"barNumber"`
	Specialization string `json:"specialization"`

	FirmName       string `json:"firmName"`
	RegistrationNo string `json:"registrationNo"`
	Address        string `json:"address"`
}

type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Register creates the account and its profile in one transaction.
// Usernames are unique case-insensitively.
func (s *Service) Register(ctx context.Context, reg Registration) (*Account, error) {
	reg.Role = strings.ToLower(strings.TrimSpace(reg.Role))
	reg.Username = strings.TrimSpace(reg.Username)

	collection, profile, err := profileFor(reg)
	if err != nil {
		return nil, err
	}
	if reg.Username == "" || reg.Password == "" {
		return nil, apperr.InvalidArgument("username and password are required.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.InvalidArgument("Password is too long.")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to hash password.", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     reg.Username,
		Role:         reg.Role,
		PasswordHash: string(hash),
		DisplayName:  displayName(reg),
	}

	err = s.store.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
		err := tx.Create(ctx, storage.CollectionUsernames, strings.ToLower(user.Username), storage.Fields{"userId": user.ID})
		if errors.Is(err, storage.ErrAlreadyExists) {
			return apperr.InvalidArgument(UsernameTakenMessage)
		}
		if err != nil {
			return apperr.Internal("Failed to reserve username.", err)
		}

		if err := tx.Create(ctx, storage.CollectionUsers, user.ID, user.Fields()); err != nil {
			return apperr.Internal("Failed to create user.", err)
		}
		if err := tx.Create(ctx, collection, user.ID, profile); err != nil {
			return apperr.Internal("Failed to create profile.", err)
		}
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.Internal("Failed to register account.", err)
		}
		return nil, err
	}

	logger.Info("Account registered",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role),
	)

	return &Account{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// Authenticate checks a username and password and returns the account.
// Unknown usernames and wrong passwords give the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	denied := apperr.Unauthenticated("Invalid username or password.")

	ref, found, err := s.store.Get(ctx, storage.CollectionUsernames, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, apperr.Internal("Failed to read account.", err)
	}
	if !found {
		return nil, denied
	}

	doc, found, err := s.store.Get(ctx, storage.CollectionUsers, ref.Fields.String("userId"))
	if err != nil {
		return nil, apperr.Internal("Failed to read account.", err)
	}
	if !found {
		return nil, denied
	}
	user := models.UserFromDocument(doc)

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, denied
	}

	return &Account{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func profileFor(reg Registration) (string, storage.Fields, error) {
	switch reg.Role {
	case models.RoleClient:
		if strings.TrimSpace(reg.FullName) == "" {
			return "", nil, apperr.InvalidArgument("fullName is required.")
		}
		return storage.CollectionClients, models.Client{
			FullName: strings.TrimSpace(reg.FullName),
			Phone:    strings.TrimSpace(reg.Phone),
		}.Fields(), nil

	case models.RoleLawyer:
		if strings.TrimSpace(reg.FullName) == "" {
			return "", nil, apperr.InvalidArgument("fullName is required.")
		}
		return storage.CollectionLawyers, models.Lawyer{
			FullName:       strings.TrimSpace(reg.FullName),
			BarNumber:      strings.TrimSpace(reg.BarNumber),
			Specialization: strings.TrimSpace(reg.Specialization),
		}.Fields(), nil

	case models.RoleLawFirm:
		if strings.TrimSpace(reg.FirmName) == "" {
			return "", nil, apperr.InvalidArgument("firmName is required.")
		}
		return storage.CollectionLawFirms, models.LawFirm{
			FirmName:       strings.TrimSpace(reg.FirmName),
			RegistrationNo: strings.TrimSpace(reg.RegistrationNo),
			Address:        strings.TrimSpace(reg.Address),
		}.Fields(), nil

	default:
		return "", nil, apperr.InvalidArgument("role must be client, lawyer or lawfirm.")
	}
}

func displayName(reg Registration) string {
	if reg.Role == models.RoleLawFirm {
		return strings.TrimSpace(reg.FirmName)
	}
	return strings.TrimSpace(reg.FullName)
}
