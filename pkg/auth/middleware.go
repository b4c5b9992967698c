package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type claimsKey struct{}

// TokenValidator is implemented by *JWTService.
type TokenValidator interface {
	ValidateToken(token string) (*Claims, error)
}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// BearerToken strips an optional, case-insensitive "Bearer " prefix.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, rest, found := strings.Cut(header, " ")
	switch {
	case found && strings.EqualFold(scheme, "bearer"):
		return strings.TrimSpace(rest)
	case strings.EqualFold(header, "bearer"):
		return ""
	}
	return header
}

// Authenticate validates the token in the incoming "authorization" metadata.
// Every failure is reported as codes.Unauthenticated without the parser's
// detail, which would tell a caller why a forged token was rejected.
func Authenticate(ctx context.Context, v TokenValidator) (*Claims, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 || BearerToken(values[0]) == "" {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	claims, err := v.ValidateToken(BearerToken(values[0]))
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid bearer token")
	}
	if claims.UserID == "" {
		return nil, status.Error(codes.Unauthenticated, "token has no subject")
	}
	return claims, nil
}

// SkipServices matches full method names that belong to one of services,
// e.g. "grpc.health.v1.Health".
func SkipServices(services ...string) func(fullMethod string) bool {
	return func(fullMethod string) bool {
		for _, svc := range services {
			if strings.HasPrefix(fullMethod, "/"+svc+"/") {
				return true
			}
		}
		return false
	}
}

// UnaryAuthInterceptor authenticates every call for which skip returns false
// and stores the claims in the handler's context. A nil skip authenticates
// everything.
func UnaryAuthInterceptor(v TokenValidator, skip func(fullMethod string) bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if skip != nil && skip(info.FullMethod) {
			return handler(ctx, req)
		}
		claims, err := Authenticate(ctx, v)
		if err != nil {
			return nil, err
		}
		return handler(ContextWithClaims(ctx, claims), req)
	}
}
