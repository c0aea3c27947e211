package api

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"taskboard/domain"
)

// TokenTTL is the fixed validity window of issued tokens. Expiry is the only
// invalidation mechanism; there is no revocation list.
const TokenTTL = time.Hour

const bcryptCost = 10

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so a caller cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned by SignUp for an already registered name.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidToken covers malformed, tampered and expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Auth verifies credentials against the user store and issues and validates
// HS256 session tokens. A validated token's username is trusted for the rest
// of the request; the user's continued existence is not re-checked, so a
// deleted user's token keeps working until it expires.
type Auth struct {
	users  UserStore
	secret []byte

	parser *jwt.Parser
	now    func() time.Time
}

// NewAuth creates an Auth signing and verifying tokens with the given secret.
func NewAuth(users UserStore, secret []byte) *Auth {
	if len(secret) == 0 {
		panic("api.NewAuth: empty signing secret")
	}
	return &Auth{
		users:  users,
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		now:    time.Now,
	}
}

// SignUp registers a new user with a salted bcrypt hash of the password.
func (a *Auth) SignUp(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	existing, err := a.users.FindUser(ctx, creds.Username)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcryptCost)
	if err != nil {
		return domain.User{}, err
	}

	user, err := a.users.InsertUser(ctx, creds.Username, string(hash))
	if err != nil {
		// The lookup above raced with a concurrent signup; the store's insert
		// is the authoritative uniqueness check.
		var dup DuplicateUserError
		if errors.As(err, &dup) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

// LogIn exchanges valid credentials for a signed token expiring in TokenTTL.
func (a *Auth) LogIn(ctx context.Context, creds domain.Credentials) (string, error) {
	user, err := a.users.FindUser(ctx, creds.Username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	issued := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// UserFromAuthHeader extracts the authenticated username from the
// Authorization header value.
func (a *Auth) UserFromAuthHeader(header string) (string, error) {
	tokenStr, err := bearerToken(header)
	if err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{}
	if _, err := a.parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}); err != nil {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
