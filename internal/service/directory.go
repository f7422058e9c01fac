package service

import (
	"context"
	"encoding/json"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gatherd/gatherd/internal/domain"
	"github.com/gatherd/gatherd/internal/infra/repository"
)

var tracer = otel.Tracer("service")

// DirectoryService resolves bearer tokens to directory users. Tokens are
// minted by the external identity provider and verified here with a shared
// HS256 secret; resolved identities are upserted into the directory and
// cached in memcached.
type DirectoryService struct {
	users    *repository.UserRepository
	mc       *memcache.Client
	secret   []byte
	cacheTTL int32
}

type directoryClaims struct {
	Handle      string `json:"hnd"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

func NewDirectoryService(users *repository.UserRepository, mc *memcache.Client, secret string, cacheSeconds int) *DirectoryService {
	return &DirectoryService{
		users:    users,
		mc:       mc,
		secret:   []byte(secret),
		cacheTTL: int32(cacheSeconds),
	}
}

// ResolveToken returns the user behind the token, or
// domain.ErrUnauthenticated when the token does not verify.
func (s *DirectoryService) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Directory.Service.ResolveToken")
	defer span.End()

	var claims directoryClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		span.RecordError(err)
		return nil, domain.ErrUnauthenticated
	}
	span.SetAttributes(attribute.String("userID", claims.Subject))

	if cached := s.fromCache(claims.Subject); cached != nil {
		return cached, nil
	}

	user := domain.User{
		ID:          claims.Subject,
		Handle:      claims.Handle,
		DisplayName: claims.DisplayName,
	}
	if err := s.users.Ensure(ctx, user); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "DirectoryService.ResolveToken: ensure failed")
	}

	s.toCache(&user)
	return &user, nil
}

// Get looks up a directory entry without touching the identity provider.
func (s *DirectoryService) Get(ctx context.Context, userID string) (*domain.User, error) {
	if cached := s.fromCache(userID); cached != nil {
		return cached, nil
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.toCache(user)
	return user, nil
}

func cacheKey(userID string) string {
	return "user:" + userID
}

func (s *DirectoryService) fromCache(userID string) *domain.User {
	if s.mc == nil {
		return nil
	}
	item, err := s.mc.Get(cacheKey(userID))
	if err != nil {
		return nil
	}
	var user domain.User
	if err := json.Unmarshal(item.Value, &user); err != nil {
		return nil
	}
	return &user
}

func (s *DirectoryService) toCache(user *domain.User) {
	if s.mc == nil {
		return
	}
	value, err := json.Marshal(user)
	if err != nil {
		return
	}
	// cache is best-effort
	_ = s.mc.Set(&memcache.Item{
		Key:        cacheKey(user.ID),
		Value:      value,
		Expiration: s.cacheTTL,
	})
}
