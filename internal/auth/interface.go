package auth

import (
	"context"

	"github.com/maskapp/mask/internal/models"
)

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ChangePassword(ctx context.Context, userID, current, next string) error

	IssueToken(user *models.User) (*AuthResponse, error)
	ParseToken(tokenString string) (*Claims, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
