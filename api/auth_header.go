package api

import (
	"errors"
	"strings"
)

// ErrMissingToken is returned when no Authorization value is present.
var ErrMissingToken = errors.New("missing authorization header")

const bearerPrefix = "Bearer "

// bearerToken extracts the token from an Authorization header value. Both
// "Bearer <token>" and a bare "<token>" are accepted; older clients sent the
// raw token without the scheme and that variance is preserved on purpose.
func bearerToken(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", ErrMissingToken
	}
	if rest, ok := strings.CutPrefix(token, bearerPrefix); ok {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return "", ErrMissingToken
	}
	if strings.Count(token, ".") != 2 {
		return "", ErrInvalidToken
	}
	return token, nil
}
