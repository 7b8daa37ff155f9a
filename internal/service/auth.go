package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Bigbrotherx/foodgram/backend/internal/database"
	"github.com/Bigbrotherx/foodgram/backend/internal/errs"
	"github.com/Bigbrotherx/foodgram/backend/internal/models"
	"github.com/Bigbrotherx/foodgram/backend/internal/types"
)

const (
	reservedUsername  = "me"
	minPasswordLength = 8
	tokenIssuer       = "foodgram"
)

var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	revoked   TokenStore
	now       func() time.Time
}

func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration, revoked TokenStore) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		revoked:   revoked,
		now:       time.Now,
	}
}

// ValidateUsername rejects the reserved name and characters outside letters, digits and @.+-_
func ValidateUsername(username string) error {
	switch {
	case username == reservedUsername:
		return errs.Validation("username", fmt.Sprintf("username %q is not allowed", username))
	case len([]rune(username)) > 150:
		return errs.Validation("username", "must be at most 150 characters")
	case !usernameRe.MatchString(username):
		return errs.Validation("username", "may contain only letters, digits and @/./+/-/_")
	}
	return nil
}

func validatePassword(field, password string) error {
	if len([]rune(password)) < minPasswordLength {
		return errs.Validation(field, fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return nil
}

// Register creates a user; the email and the username must both be unused
func (s *AuthService) Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email || len(email) > 254 {
		return nil, errs.Validation("email", "enter a valid email address")
	}
	if err := ValidateUsername(req.Username); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FirstName) == "" || len([]rune(req.FirstName)) > 150 {
		return nil, errs.Validation("first_name", "must be between 1 and 150 characters")
	}
	if strings.TrimSpace(req.LastName) == "" || len([]rune(req.LastName)) > 150 {
		return nil, errs.Validation("last_name", "must be between 1 and 150 characters")
	}
	if err := validatePassword("password", req.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hashedPassword),
	}
	err = database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).
			Where("email = ? OR username = ?", user.Email, user.Username).
			Count(&taken).Error; err != nil {
			return errs.FromDB(err, "user")
		}
		if taken > 0 {
			return errs.Validation("username", "email and username must be unique")
		}
		if err := tx.Create(&user).Error; err != nil {
			if errs.IsUniqueViolation(err) {
				return errs.Validation("username", "email and username must be unique")
			}
			return errs.FromDB(err, "user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return &user, nil
}

// Login checks the credentials and issues a token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.Validation("email", "unable to log in with provided credentials")
		}
		return "", errs.FromDB(err, "user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", errs.Validation("email", "unable to log in with provided credentials")
	}

	return s.GenerateToken(&user)
}

// Logout revokes the token until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return errs.Unauthorized("token cannot be revoked")
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// SetPassword replaces the password after checking the current one
func (s *AuthService) SetPassword(ctx context.Context, userID uint, current, next string) error {
	return database.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return errs.FromDB(err, "user")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
			return errs.Validation("current_password", "current password is incorrect")
		}
		if err := validatePassword("new_password", next); err != nil {
			return err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := tx.Model(&user).Update("password_hash", string(hashed)).Error; err != nil {
			return errs.FromDB(err, "user")
		}
		return nil
	})
}

// GenerateToken issues an HS256 token with a unique id
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID:   user.ID,
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses the token and rejects revoked ones
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errs.Unauthorized("invalid token")
	}
	if claims.UserID == 0 {
		return nil, errs.Unauthorized("invalid token claims")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errs.Unauthorized("token has been revoked")
	}
	return claims, nil
}
