package serverutils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"realtime-chat-be/internal/repository/memory"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is what the chat server encodes into every access token.
type TokenClaims struct {
	UserId   string
	Username string
	TokenId  string
	Expires  time.Time
}

func IssueToken(secret string, userId uuid.UUID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  userId.String(),
		"username": username,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userId, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	tokenId, _ := claims["jti"].(string)
	if userId == "" {
		return nil, ErrInvalidToken
	}

	parsed := &TokenClaims{
		UserId:   userId,
		Username: username,
		TokenId:  tokenId,
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		parsed.Expires = exp.Time
	}
	return parsed, nil
}

func JwtMiddleware(secret string, denylist *memory.TokenDenylist) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token"})
		}

		claims, err := ParseToken(secret, authHeader[7:])
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid token"})
		}
		if claims.TokenId != "" && denylist.IsRevoked(claims.TokenId) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token revoked"})
		}

		ctx.Locals("user_id", claims.UserId)
		ctx.Locals("username", claims.Username)
		ctx.Locals("token_id", claims.TokenId)
		ctx.Locals("token_exp", claims.Expires)
		return ctx.Next()
	}
}
