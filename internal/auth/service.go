package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
)

// Caller is the verified identity attached to every request. The core
// trusts it as given and applies its own role checks on top.
type Caller struct {
	Email string
	Name  string
	Role  string
}

// UserRepo is the subset of the user repository the auth service needs.
type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service interface {
	Register(ctx context.Context, name, email, password, photoURL, role string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	ValidateToken(token string) (Caller, error)
}

type service struct {
	repo     UserRepo
	secret   []byte
	tokenTTL time.Duration
}

func NewService(repo UserRepo, secret string) Service {
	return &service{repo: repo, secret: []byte(secret), tokenTTL: 24 * time.Hour}
}

type claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// Register creates a user with the role's starting coin balance. Duplicate
// emails surface as ErrAlreadyExists from the repo's unique key.
func (s *service) Register(ctx context.Context, name, email, password, photoURL, role string) (*models.User, error) {
	switch role {
	case models.RoleWorker, models.RoleBuyer, models.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: role must be worker, buyer or admin", ledger.ErrMissingField)
	}
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ledger.ErrMissingField)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PhotoURL:     photoURL,
		Role:         role,
		Coin:         models.StartingCoin(role),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return "", nil, ledger.ErrForbidden
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ledger.ErrForbidden
	}
	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *service) issueToken(u *models.User) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Name: u.Name,
		Role: u.Role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(token string) (Caller, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return Caller{}, ledger.ErrForbidden
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return Caller{}, ledger.ErrForbidden
	}
	return Caller{Email: c.Subject, Name: c.Name, Role: c.Role}, nil
}

// Authorize is the single capability check composed in front of every
// role-scoped operation.
func Authorize(caller Caller, requiredRole string) bool {
	return caller.Role == requiredRole
}
