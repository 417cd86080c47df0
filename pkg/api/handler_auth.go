package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// registerHandler creates a new user account and returns a signed token.
func (s *Server) registerHandler(c *echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.users.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return mapServiceError(err)
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		Message: "User created successfully",
		Token:   token,
		User:    AuthUser{ID: user.ID, Username: user.Username},
	})
}

// loginHandler authenticates a username/password pair and returns a token.
func (s *Server) loginHandler(c *echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.users.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return mapServiceError(err)
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  AuthUser{ID: user.ID, Username: user.Username},
	})
}

// currentUserHandler returns the account behind the presented token.
func (s *Server) currentUserHandler(c *echo.Context) error {
	userID, err := s.authenticate(c)
	if err != nil {
		return mapServiceError(err)
	}

	user, err := s.users.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, CurrentUserResponse{
		ID:       user.ID,
		Username: user.Username,
		IsActive: user.IsActive,
	})
}
