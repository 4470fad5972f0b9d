package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taekwondodev/go-account-service/internal/api/dto"
	"github.com/taekwondodev/go-account-service/internal/auth/service"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (ac *AuthController) Register(c *gin.Context) error {
	var req dto.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := ac.authService.Register(c.Request.Context(), req.NewUser())
	if err != nil {
		return err
	}

	c.JSON(http.StatusCreated, user)
	return nil
}

// CreateUser lets an authenticated caller create another account; the body
// and responses match Register.
func (ac *AuthController) CreateUser(c *gin.Context) error {
	return ac.Register(c)
}

func (ac *AuthController) Login(c *gin.Context) error {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	pair, err := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, dto.NewTokenResponse(pair))
	return nil
}

func (ac *AuthController) Refresh(c *gin.Context) error {
	var req dto.RefreshTokenRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	access, err := ac.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, dto.AccessResponse{Access: access})
	return nil
}

func (ac *AuthController) ListUsers(c *gin.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}

	users, err := ac.authService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, users)
	return nil
}

func (ac *AuthController) Me(c *gin.Context) error {
	identity, ok := service.IdentityFrom(c.Request.Context())
	if !ok {
		return customerrors.ErrNotAuthenticated
	}

	c.JSON(http.StatusOK, identity.User)
	return nil
}

func (ac *AuthController) HealthCheck(c *gin.Context) error {
	if err := ac.authService.HealthCheck(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Database: "unreachable"})
		return nil
	}

	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: "connected"})
	return nil
}

// bindJSON decodes the body; an empty body decodes to the zero value so the
// service can report which fields are missing.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return customerrors.ErrBadRequest
	}
	return nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, customerrors.NewValidationError(name, "A valid non-negative integer is required.")
	}
	return n, nil
}
