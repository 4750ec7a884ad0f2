package service

import (
	"context"
	"errors"
	"strings"

	"gamestore-api/internal/metrics"
	"gamestore-api/internal/model"
	"gamestore-api/internal/repository"
	"gamestore-api/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields of a registration form.
type RegisterInput struct {
	Username   string     `json:"username"`
	Password   string     `json:"password"`
	Email      string     `json:"email"`
	Role       model.Role `json:"role"`
	StudioName string     `json:"studio_name"`
}

// AccountService handles registration and credential checks.
type AccountService struct {
	repo       repository.AccountRepository
	bcryptCost int
	log        *logger.Logger
}

// NewAccountService creates a new account service.
// A bcryptCost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewAccountService(repo repository.AccountRepository, bcryptCost int, log *logger.Logger) *AccountService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{repo: repo, bcryptCost: bcryptCost, log: log}
}

// Register creates a buyer or developer account with a hashed password.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (model.Identity, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.StudioName = strings.TrimSpace(in.StudioName)

	if err := validateRegistration(in); err != nil {
		metrics.RecordRegistration(string(in.Role), "rejected")
		return model.Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return model.Identity{}, validationError("password cannot be hashed")
	}

	account := &model.Account{
		Username:     in.Username,
		PasswordHash: string(hash),
		Email:        in.Email,
		Role:         in.Role,
	}
	if in.Role == model.RoleDeveloper {
		account.StudioName = in.StudioName
	}

	if _, err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			metrics.RecordRegistration(string(in.Role), "conflict")
			return model.Identity{}, ErrUsernameTaken
		}
		s.log.Error("registration failed", "username", in.Username, "error", err)
		metrics.RecordRegistration(string(in.Role), "error")
		return model.Identity{}, storageError("register", err)
	}

	s.log.Info("account registered", "id", account.ID, "username", account.Username, "role", account.Role)
	metrics.RecordRegistration(string(in.Role), "success")
	return account.Identity(), nil
}

func validateRegistration(in RegisterInput) error {
	if in.Username == "" || in.Password == "" || in.Email == "" || in.Role == "" {
		return validationError("all fields are required")
	}
	if !in.Role.Valid() {
		return validationError("role must be buyer or developer")
	}
	if !strings.Contains(in.Email, "@") {
		return validationError("email is malformed")
	}
	// bcrypt only looks at the first 72 bytes.
	if len(in.Password) > 72 {
		return validationError("password must be at most 72 bytes")
	}
	if in.Role == model.RoleDeveloper && in.StudioName == "" {
		return ErrMissingStudioName
	}
	return nil
}

// Authenticate resolves a username/password pair to an identity.
// Buyers are looked up before developers; the first match wins.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (model.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.Identity{}, validationError("all fields are required")
	}

	lookups := []func(context.Context, string) (*model.Account, error){
		s.repo.FindBuyer,
		s.repo.FindDeveloper,
	}
	for _, find := range lookups {
		account, err := find(ctx, username)
		if err != nil {
			metrics.RecordLogin("error")
			return model.Identity{}, storageError("authenticate", err)
		}
		if account == nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil {
			metrics.RecordLogin("success")
			return account.Identity(), nil
		}
	}

	metrics.RecordLogin("invalid")
	return model.Identity{}, ErrInvalidCredentials
}
