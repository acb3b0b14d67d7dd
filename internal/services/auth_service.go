package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/mail"
	"tourbook/internal/obs"
	"tourbook/internal/repositories"
)

const resetTokenTTL = 10 * time.Minute

// AuthService issues and verifies session tokens and runs every
// credential flow. Tokens are stateless; the server keeps no session
// record, so a still-valid token cannot be revoked before expiry.
type AuthService struct {
	Users  repositories.UserRepo
	Mailer mail.Mailer
	Secret []byte
	TTL    time.Duration
}

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	UserID   int64
	IssuedAt time.Time
}

// IssueToken signs a session token for one subject. Pure given the
// configured secret and TTL.
func (s AuthService) IssueToken(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", domain.NewInternal(fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

// IssueLogoutToken mints the short-lived dummy credential that overwrites
// the client cookie on logout.
func (s AuthService) IssueLogoutToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "logged-out",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Second)),
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", domain.NewInternal(fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

// VerifyToken checks signature and expiry and extracts the claims.
func (s AuthService) VerifyToken(tokenStr string) (TokenClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, domain.NewTokenExpired()
		}
		return TokenClaims{}, domain.NewTokenInvalid()
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.IssuedAt == nil {
		return TokenClaims{}, domain.NewTokenInvalid()
	}
	return TokenClaims{UserID: userID, IssuedAt: claims.IssuedAt.Time}, nil
}

// ResolveUser turns a raw token into the authenticated subject: verify,
// load, and reject tokens older than the subject's last password change.
func (s AuthService) ResolveUser(ctx context.Context, tokenStr string) (models.User, error) {
	claims, err := s.VerifyToken(tokenStr)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.Users.FindAuthByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, domain.NewUnauthorized("The user belonging to this token no longer exists.")
		}
		return models.User{}, err
	}
	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return models.User{}, domain.NewUnauthorized("User recently changed password. Please log in again.")
	}
	return user, nil
}

// HashPassword is the explicit password derivation; callers invoke it
// directly instead of relying on save-time hooks.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.NewInternal(fmt.Errorf("hash password: %w", err))
	}
	return string(hash), nil
}

type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

func (s AuthService) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	if in.Password != in.PasswordConfirm {
		return models.User{}, domain.NewValidation("Passwords do not match")
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         models.RoleUser,
		PasswordHash: hash,
	}
	if err := s.Users.Create(ctx, &user); err != nil {
		if domain.IsDuplicate(err) {
			return models.User{}, domain.NewDuplicate("An account with this email already exists")
		}
		return models.User{}, err
	}
	// Welcome mail is best effort; signing up never fails on delivery.
	if err := s.Mailer.Send(ctx, mail.Message{
		To:      user.Email,
		Subject: "Welcome to Tourbook!",
		Body:    "Hi " + user.Name + ",\n\nWelcome aboard. Your next adventure starts here.",
	}); err != nil {
		obs.LogEvent("", "auth", "welcome_mail_failed", err.Error())
	}
	return user, nil
}

func (s AuthService) Login(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.Users.FindAuthByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, domain.NewUnauthorized("Incorrect email or password")
		}
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, domain.NewUnauthorized("Incorrect email or password")
	}
	return user, nil
}

// UpdatePassword changes a logged-in user's password after checking the
// current one. The change stamp invalidates all previously issued tokens.
func (s AuthService) UpdatePassword(ctx context.Context, userID int64, current, password, confirm string) (models.User, error) {
	user, err := s.Users.FindAuthByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return models.User{}, domain.NewUnauthorized("Your current password is wrong")
	}
	if password != confirm {
		return models.User{}, domain.NewValidation("Passwords do not match")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	if err := s.Users.UpdatePassword(ctx, userID, hash, time.Now()); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ForgotPassword issues a reset token: only its one-way hash and expiry
// are stored; the plain token travels by mail. A delivery failure rolls
// the stored token back.
func (s AuthService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.Users.FindAuthByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return &domain.AppError{
				Kind: domain.KindNotFound, Status: http.StatusNotFound,
				Message: "There is no user with that email address", Operational: true,
			}
		}
		return err
	}

	plain, hashed, err := newResetToken()
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetTokenTTL)
	if err := s.Users.SetResetToken(ctx, user.ID, hashed, expires); err != nil {
		return err
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "Your password reset token (valid for 10 minutes)",
		Body: "Forgot your password? Submit a PATCH request with your new password to:\n\n" +
			resetURLBase + "/" + plain +
			"\n\nIf you didn't forget your password, please ignore this email.",
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		if clearErr := s.Users.ClearResetToken(ctx, user.ID); clearErr != nil {
			obs.LogEvent("", "auth", "reset_rollback_failed", clearErr.Error())
		}
		return &domain.AppError{
			Kind: domain.KindInternal, Status: http.StatusInternalServerError,
			Message: "There was an error sending the email. Try again later.",
			Err:     err, Operational: true,
		}
	}
	return nil
}

// ResetPassword accepts the plain token back, re-hashes it, and compares
// against the stored hash with the expiry check.
func (s AuthService) ResetPassword(ctx context.Context, token, password, confirm string) (models.User, error) {
	if password != confirm {
		return models.User{}, domain.NewValidation("Passwords do not match")
	}
	hashed := hashResetToken(token)
	user, err := s.Users.FindByResetHash(ctx, hashed, time.Now())
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, domain.NewValidation("Token is invalid or has expired")
		}
		return models.User{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	if err := s.Users.UpdatePassword(ctx, user.ID, hash, time.Now()); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func newResetToken() (plain, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", domain.NewInternal(fmt.Errorf("reset token: %w", err))
	}
	plain = hex.EncodeToString(buf)
	return plain, hashResetToken(plain), nil
}

func hashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
