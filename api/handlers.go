package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// Requests larger than this are cut off; task titles and credentials are tiny.
const maxRequestBody = 64 << 10

type messageResponse struct {
	Message string `json:"message"`
}

type signupResponse struct {
	Success bool `json:"success"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type protectedResponse struct {
	Message string `json:"message"`
	User    string `json:"user"`
}

// Register wires up all API routes on the provided Echo instance. The bare
// /api aliases mirror the task routes because early clients addressed the
// collection without the /tasks segment.
func Register(e *echo.Echo, store TaskStore, auth AuthService, logger *log.Logger, debug bool) {
	e.POST("/api/signup", postSignup(auth, logger, debug))
	e.POST("/api/login", postLogin(auth, logger, debug))

	list := getTasks(store, auth, logger, debug)
	create := postTask(store, auth, logger, debug)
	update := putTask(store, auth, logger, debug)
	remove := deleteTask(store, auth, logger, debug)

	e.GET("/api/tasks", list)
	e.POST("/api/tasks", create)
	e.PUT("/api/tasks/:id", update)
	e.DELETE("/api/tasks/:id", remove)

	e.GET("/api", list)
	e.POST("/api", create)
	e.PUT("/api/:id", update)
	e.DELETE("/api/:id", remove)

	e.GET("/api/protected", getProtected(auth))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func postSignup(auth AuthService, logger *log.Logger, debug bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		var creds domain.Credentials
		if err := decodeBody(c, &creds); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "username and password are required"})
		}

		if _, err := auth.SignUp(c.Request().Context(), creds); err != nil {
			if errors.Is(err, ErrUsernameTaken) {
				return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
			}
			return serverError(c, logger, debug, err)
		}
		return c.JSON(http.StatusOK, signupResponse{Success: true})
	}
}

func postLogin(auth AuthService, logger *log.Logger, debug bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		var creds domain.Credentials
		if err := decodeBody(c, &creds); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "username and password are required"})
		}

		token, err := auth.LogIn(c.Request().Context(), creds)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				return c.JSON(http.StatusUnauthorized, messageResponse{Message: err.Error()})
			}
			return serverError(c, logger, debug, err)
		}
		return c.JSON(http.StatusOK, tokenResponse{Token: token})
	}
}

func getTasks(store TaskStore, auth AuthService, logger *log.Logger, debug bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, err := auth.UserFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: err.Error()})
		}
		tasks, err := store.ListTasks(c.Request().Context(), owner)
		if err != nil {
			return serverError(c, logger, debug, err)
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func postTask(store TaskStore, auth AuthService, logger *log.Logger, debug bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, err := auth.UserFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: err.Error()})
		}

		var body struct {
			Title string `json:"title"`
		}
		if err := decodeBody(c, &body); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		title := strings.TrimSpace(body.Title)
		if title == "" {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "title is required"})
		}

		task, err := store.CreateTask(c.Request().Context(), owner, title)
		if err != nil {
			return serverError(c, logger, debug, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func putTask(store TaskStore, auth AuthService, logger *log.Logger, debug bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, err := auth.UserFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: err.Error()})
		}

		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid body"})
		}
		if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
			return c.JSON(http.StatusBadRequest, messageResponse{Message: "title must not be empty"})
		}

		task, err := store.UpdateTask(c.Request().Context(), owner, c.Param("id"), patch)
		if err != nil {
			return serverError(c, logger, debug, err)
		}
		if task == nil {
			return c.JSON(http.StatusNotFound, messageResponse{Message: "task not found"})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store TaskStore, auth AuthService, logger *log.Logger, debug bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		owner, err := auth.UserFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: err.Error()})
		}

		removed, err := store.DeleteTask(c.Request().Context(), owner, c.Param("id"))
		if err != nil {
			return serverError(c, logger, debug, err)
		}
		if !removed {
			return c.JSON(http.StatusNotFound, messageResponse{Message: "task not found"})
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "task deleted"})
	}
}

func getProtected(auth AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := auth.UserFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, messageResponse{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, protectedResponse{Message: "authenticated", User: user})
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxRequestBody)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// serverError hides storage details behind a generic message unless the server
// runs in debug mode.
func serverError(c echo.Context, logger *log.Logger, debug bool, err error) error {
	logger.WithError(err).Error("request failed")
	msg := "internal server error"
	if debug {
		msg = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, messageResponse{Message: msg})
}
