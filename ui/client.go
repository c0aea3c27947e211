package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maxence-charriere/go-app/v9/pkg/app"
)

// tokenKey is the localStorage key holding the session token.
const tokenKey = "token"

func apiBase() string {
	if v := app.Getenv("API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8080"
}

func readToken(ctx app.Context) string {
	var token string
	ctx.LocalStorage().Get(tokenKey, &token)
	return token
}

func storeToken(ctx app.Context, token string) {
	ctx.LocalStorage().Set(tokenKey, token)
}

func clearToken(ctx app.Context) {
	ctx.LocalStorage().Del(tokenKey)
}

// apiDo performs a JSON request against the backend. A non-2xx response is
// surfaced as an error carrying the server's message so views can show it
// inline.
func apiDo(method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase()+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.New("connection failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&msg) == nil && msg.Message != "" {
			return errors.New(msg.Message)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
