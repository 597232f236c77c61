package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/peermart/peermart/internal/ledger"
	"github.com/peermart/peermart/internal/market"
)

// Handler owns signup/login and token issuance. Identity resolution is the
// only thing the marketplace core consumes from here: every downstream
// operation receives the user id as an explicit caller parameter.
type Handler struct {
	Store    ledger.Store
	Secret   []byte
	TokenTTL time.Duration
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Signup registers a user. The wallet is created in the same store
// transaction as the account.
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and a password of at least 6 characters are required"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	u := &market.User{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      "user",
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.CreateUser(c.Request().Context(), u); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	signed, err := h.issueToken(u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: signed})
}

func (h *Handler) issueToken(u *market.User) (string, error) {
	ttl := h.TokenTTL
	if ttl == 0 {
		ttl = 72 * time.Hour
	}
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    u.Role,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.Secret)
}
