package services

import (
	"fmt"
	"log"
	"time"

	"bizdir/internal/models"
	"bizdir/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and token validation. The signing
// secret is injected at construction and never read from process globals.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour, // Token valid for 24 hours
	}
}

// Register creates a new non-admin user and returns a session token for it.
func (s *AuthService) Register(user *models.User) (string, error) {
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return "", fmt.Errorf("email '%s': %w", user.Email, models.ErrEmailRegistered)
	}

	user.IsAdmin = false
	if err := s.createWithHashedPassword(user); err != nil {
		return "", err
	}
	return s.issueToken(user, false)
}

// CreateAdmin creates a user with the administrator capability. No token is
// issued; the admin logs in through AdminLogin afterwards.
func (s *AuthService) CreateAdmin(user *models.User) error {
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s': %w", user.Email, models.ErrEmailRegistered)
	}

	user.IsAdmin = true
	return s.createWithHashedPassword(user)
}

// Login authenticates any user by email and password and returns a standard
// session token. The token carries only the user id; the role is re-derived
// from the user record at validation time.
func (s *AuthService) Login(email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		// Do not reveal whether the email exists.
		return "", models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return s.issueToken(user, false)
}

// AdminLogin authenticates an administrator. Unknown email, wrong password and
// a non-admin account all fail with the same generic error so the response
// never reveals which accounts are privileged.
func (s *AuthService) AdminLogin(email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil || !user.IsAdmin {
		return "", models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return s.issueToken(user, true)
}

// Authenticate parses and validates a session token and resolves the acting
// identity. Admin-session tokens embed the capability captured at login;
// standard tokens re-derive it from the stored user record.
func (s *AuthService) Authenticate(tokenString string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return models.Identity{}, fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, fmt.Errorf("%w: invalid token", models.ErrUnauthenticated)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return models.Identity{}, fmt.Errorf("%w: token has no subject", models.ErrUnauthenticated)
	}

	if isAdmin, ok := claims["is_admin"].(bool); ok && isAdmin {
		return models.Identity{UserID: userID, Role: models.RoleAdmin}, nil
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: unknown user", models.ErrUnauthenticated)
	}
	role := models.RoleOwner
	if user.IsAdmin {
		role = models.RoleAdmin
	}
	return models.Identity{UserID: userID, Role: role}, nil
}

// ListUsers returns all users. Debug-route use only.
func (s *AuthService) ListUsers() ([]models.User, error) {
	return s.userRepo.GetAll()
}

// DeleteAllUsers removes every user. Debug-route use only.
func (s *AuthService) DeleteAllUsers() error {
	return s.userRepo.DeleteAll()
}

func (s *AuthService) createWithHashedPassword(user *models.User) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

func (s *AuthService) issueToken(user *models.User, adminSession bool) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":     time.Now().Unix(),                   // Issued at time
	}
	if adminSession {
		claims["is_admin"] = true
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}
