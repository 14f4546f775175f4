package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/auth"
	"attendance-portal/internal/model"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)

// Store is the credential store. Emails arrive normalized. Create and Update
// return apperr.ErrConflict when the email belongs to another user; lookups
// return apperr.ErrNotFound.
type Store interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	ByEmail(ctx context.Context, email string) (model.User, error)
	ByID(ctx context.Context, id string) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

// Hasher is the password hashing capability.
type Hasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) (bool, error)
}

// Registration holds the fields of a new account.
type Registration struct {
	Name           string
	Email          string
	Password       string
	ProfilePicture string
}

// ProfileUpdate is a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	Name           *string
	Email          *string
	Password       *string
	ProfilePicture *string
}

// Service registers users, checks credentials and manages profiles.
type Service struct {
	store   Store
	hasher  Hasher
	tokens  *auth.TokenService
	revoked auth.RevocationList
	now     func() time.Time
}

// NewService wires the identity service. revoked may be nil, in which case
// Logout is a no-op on the server side.
func NewService(store Store, hasher Hasher, tokens *auth.TokenService, revoked auth.RevocationList) *Service {
	return &Service{store: store, hasher: hasher, tokens: tokens, revoked: revoked, now: time.Now}
}

// Register creates a standard account and issues its first token.
func (s *Service) Register(ctx context.Context, in Registration) (model.User, auth.IssuedToken, error) {
	const op = "identity.Register"

	user, err := s.create(ctx, in, model.RoleStandard)
	if err != nil {
		return model.User{}, auth.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}
	tok, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return model.User{}, auth.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, tok, nil
}

// CreateAdmin creates an administrator account.
func (s *Service) CreateAdmin(ctx context.Context, in Registration) (model.User, error) {
	user, err := s.create(ctx, in, model.RoleAdmin)
	if err != nil {
		return model.User{}, fmt.Errorf("identity.CreateAdmin: %w", err)
	}
	return user, nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (model.User, auth.IssuedToken, error) {
	const op = "identity.Login"

	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return model.User{}, auth.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}
	tok, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return model.User{}, auth.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, tok, nil
}

// AdminLogin is Login restricted to administrators.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (model.User, auth.IssuedToken, error) {
	const op = "identity.AdminLogin"

	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return model.User{}, auth.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsAdmin() {
		return model.User{}, auth.IssuedToken{}, fmt.Errorf("%s: %w: not an admin", op, apperr.ErrForbidden)
	}
	tok, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return model.User{}, auth.IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, tok, nil
}

// Logout revokes the principal's token until it expires.
func (s *Service) Logout(ctx context.Context, p auth.Principal) error {
	if s.revoked == nil || p.TokenID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return fmt.Errorf("identity.Logout: %w", apperr.Store("revocation", err))
	}
	return nil
}

// Profile returns the user with the given id.
func (s *Service) Profile(ctx context.Context, id string) (model.User, error) {
	user, err := s.store.ByID(ctx, id)
	if err != nil {
		return model.User{}, fmt.Errorf("identity.Profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies a partial update to user id.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (model.User, error) {
	const op = "identity.UpdateProfile"

	user, err := s.store.ByID(ctx, id)
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return model.User{}, fmt.Errorf("%s: %w: name cannot be empty", op, apperr.ErrInvalidInput)
		}
		user.Name = name
	}
	if upd.Email != nil {
		email, err := normalizeAddress(*upd.Email)
		if err != nil {
			return model.User{}, fmt.Errorf("%s: %w", op, err)
		}
		user.Email = email
	}
	if upd.Password != nil {
		hash, err := s.hashPassword(*upd.Password)
		if err != nil {
			return model.User{}, fmt.Errorf("%s: %w", op, err)
		}
		user.PasswordHash = hash
	}
	if upd.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*upd.ProfilePicture)
	}
	user.UpdatedAt = s.now().UTC()

	saved, err := s.store.Update(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// List returns every registered user.
func (s *Service) List(ctx context.Context) ([]model.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity.List: %w", err)
	}
	return users, nil
}

// Exists reports whether an account matches email and, when given, name.
func (s *Service) Exists(ctx context.Context, email, name string) (bool, error) {
	const op = "identity.Exists"

	email = model.NormalizeEmail(email)
	if email == "" {
		return false, fmt.Errorf("%s: %w: email required", op, apperr.ErrInvalidInput)
	}
	user, err := s.store.ByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	name = strings.TrimSpace(name)
	return name == "" || name == user.Name, nil
}

func (s *Service) create(ctx context.Context, in Registration, role model.Role) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.User{}, fmt.Errorf("%w: name required", apperr.ErrInvalidInput)
	}
	email, err := normalizeAddress(in.Email)
	if err != nil {
		return model.User{}, err
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return model.User{}, err
	}

	now := s.now().UTC()
	return s.store.Create(ctx, model.User{
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		ProfilePicture: strings.TrimSpace(in.ProfilePicture),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (s *Service) authenticate(ctx context.Context, email, password string) (model.User, error) {
	user, err := s.store.ByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, errInvalidCredentials
		}
		return model.User{}, err
	}
	ok, err := s.hasher.Check(user.PasswordHash, password)
	if err != nil {
		return model.User{}, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return model.User{}, errInvalidCredentials
	}
	return user, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", apperr.ErrInvalidInput, MinPasswordLength)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func normalizeAddress(email string) (string, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return "", fmt.Errorf("%w: email required", apperr.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email %q is not valid", apperr.ErrInvalidInput, email)
	}
	return email, nil
}
