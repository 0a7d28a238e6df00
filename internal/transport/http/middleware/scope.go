package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"stockpit/internal/core/apperror"
	"stockpit/internal/core/id"
	"stockpit/internal/core/scope"
)

const (
	headerCompany   = "X-Company-Id"
	headerWarehouse = "X-Warehouse-Id"
)

// CompanyScope resolves the tenant for the request: the company_id claim
// of the bearer token when present, the X-Company-Id header otherwise.
// Requests without a resolvable company are rejected before any handler
// runs. The warehouse header is optional; operations that need one check
// for it themselves.
func CompanyScope(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, err := resolveCompany(c, jwtSecret)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := scope.WithCompany(c.Request.Context(), companyID)
		c.Set("company_id", companyID.String())

		if raw := c.GetHeader(headerWarehouse); raw != "" {
			warehouseID, err := id.Parse(raw)
			if err != nil {
				_ = c.Error(apperror.NewInvalidInput("invalid warehouse id").WithDetail("header", headerWarehouse))
				c.Abort()
				return
			}
			ctx = scope.WithWarehouse(ctx, warehouseID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func resolveCompany(c *gin.Context, jwtSecret string) (id.ID, error) {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") && jwtSecret != "" {
		return companyFromToken(strings.TrimPrefix(auth, "Bearer "), jwtSecret)
	}

	raw := c.GetHeader(headerCompany)
	if raw == "" {
		return id.Nil(), apperror.NewMissingCompany()
	}
	companyID, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewInvalidInput("invalid company id").WithDetail("header", headerCompany)
	}
	return companyID, nil
}

func companyFromToken(tokenString, secret string) (id.ID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return id.Nil(), apperror.NewInvalidInput("invalid bearer token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return id.Nil(), apperror.NewMissingCompany()
	}
	raw, _ := claims["company_id"].(string)
	if raw == "" {
		return id.Nil(), apperror.NewMissingCompany()
	}
	companyID, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewInvalidInput("invalid company id in token")
	}
	return companyID, nil
}
