package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sarbojanin/clubsite/internal/model"
	"github.com/sarbojanin/clubsite/internal/repository"
	"github.com/sarbojanin/clubsite/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// AuthService manages sign-in, account creation and the admin role check.
// Sign-in doubles as sign-up: an unknown email creates the account with the
// given credentials. A wrong password for a known account fails outright and
// never falls through to account creation.
type AuthService struct {
	userRepository repository.UserRepository
	roleRepository repository.RoleRepository
	adminEmails    []string
	jwtSecret      string
	isProduction   bool
	jwtExpiry      time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	roleRepository repository.RoleRepository,
	adminEmails []string,
	jwtSecret string,
	isProduction bool,
	jwtExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		roleRepository: roleRepository,
		adminEmails:    adminEmails,
		jwtSecret:      jwtSecret,
		isProduction:   isProduction,
		jwtExpiry:      jwtExpiry,
	}
}

// SignIn authenticates the credentials, creating the account when the email
// is unknown. After either path, the admin role is granted server-side iff
// the email is on the configured allowlist; the returned user carries the
// resolved IsAdmin flag.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		// Unknown email: sign-up path
		user, err = s.signUp(ctx, email, password)
		if err != nil {
			return nil, err
		}
	} else {
		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", ErrInvalidCredentials)
		}
	}

	err = s.ensureAdminRole(ctx, user)
	if err != nil {
		return nil, err
	}

	user.IsAdmin, err = s.IsAdmin(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles: %w", err)
	}

	return user, nil
}

func (s *AuthService) signUp(ctx context.Context, email, password string) (*model.User, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedBytes),
		CreatedAt:    time.Now(),
	}

	err = s.userRepository.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created", "email", email, "user_id", user.ID)
	return user, nil
}

// ensureAdminRole grants the admin role when the email is allowlisted.
// Role assignment is a server-side policy decision, never client-initiated.
func (s *AuthService) ensureAdminRole(ctx context.Context, user *model.User) error {
	if !s.isAdminEmail(user.Email) {
		return nil
	}

	err := s.roleRepository.Assign(ctx, user.ID, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to assign admin role: %w", err)
	}

	return nil
}

func (s *AuthService) isAdminEmail(email string) bool {
	for _, allowed := range s.adminEmails {
		if email == allowed {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user holds the admin role. An empty identity
// is never admin, regardless of role rows.
func (s *AuthService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.roleRepository.HasRole(ctx, userID, model.RoleAdmin)
}

// UserByID loads a user and resolves their admin flag.
func (s *AuthService) UserByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsAdmin, err = s.IsAdmin(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles: %w", err)
	}

	return user, nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// JWTExpiry returns the configured session lifetime.
func (s *AuthService) JWTExpiry() time.Duration {
	return s.jwtExpiry
}
