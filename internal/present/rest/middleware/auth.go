package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gatherd/gatherd/internal/domain"
	"github.com/gatherd/gatherd/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	directory *service.DirectoryService
}

func NewAuthMiddleware(directory *service.DirectoryService) *AuthMiddleware {
	return &AuthMiddleware{
		directory: directory,
	}
}

// IdentifyRequester resolves the Authorization bearer token into a
// requester identity on the request context. Resolution failures leave the
// request anonymous; handlers that need an identity reject it themselves.
func (s *AuthMiddleware) IdentifyRequester(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyRequester")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			authType, token := split[0], split[1]
			if authType != "Bearer" {
				span.RecordError(fmt.Errorf("only Bearer is acceptable"))
				goto skipCheckAuthorization
			}

			user, err := s.directory.ResolveToken(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyRequester: token resolution failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.RequesterIDCtxKey, user.ID)
			ctx = context.WithValue(ctx, domain.RequesterHandleCtxKey, user.Handle)
			span.SetAttributes(attribute.String("RequesterId", user.ID))
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
