package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/wodoame/smecs/internal/domain/user"
)

type userDTO struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Token      string `json:"token"`
	CartID     *int64 `json:"cartId"`
	AuthExpiry *int64 `json:"authExpiry"`
}

// AuthResult is what login and register hand back.
type AuthResult struct {
	Account user.Account
	Token   string
	CartID  *int64
	// Expiry is nil when the backend sent no authExpiry.
	Expiry *time.Time
}

func (d userDTO) account() user.Account {
	return user.Account{ID: d.ID, Username: d.Username, Email: d.Email, Role: d.Role}
}

func (d userDTO) result() AuthResult {
	res := AuthResult{Account: d.account(), Token: d.Token, CartID: d.CartID}
	if d.AuthExpiry != nil {
		exp := time.UnixMilli(*d.AuthExpiry)
		res.Expiry = &exp
	}
	return res
}

func (c *Client) Login(ctx context.Context, username, password string) (AuthResult, error) {
	const op = "auth.login"
	raw, err := c.call(ctx, op, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return AuthResult{}, err
	}
	dto, err := decodeData[userDTO](op, raw)
	if err != nil {
		return AuthResult{}, err
	}
	return dto.result(), nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	const op = "auth.register"
	raw, err := c.call(ctx, op, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return AuthResult{}, err
	}
	dto, err := decodeData[userDTO](op, raw)
	if err != nil {
		return AuthResult{}, err
	}
	return dto.result(), nil
}

// Verify asks the backend whether token is still accepted.
func (c *Client) Verify(ctx context.Context, token string) (user.Account, error) {
	const op = "auth.verify"
	raw, err := c.call(ctx, op, http.MethodGet, "/api/auth/verify", token, nil)
	if err != nil {
		return user.Account{}, err
	}
	dto, err := decodeData[userDTO](op, raw)
	if err != nil {
		return user.Account{}, err
	}
	return dto.account(), nil
}
