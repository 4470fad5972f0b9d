package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/taekwondodev/go-account-service/internal/auth/service"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
)

// AuthInterceptor requires a valid access token in the "authorization"
// metadata for the listed full method names and stores the caller's
// identity in the context. Other methods pass through.
func AuthInterceptor(authService service.AuthService, protected ...string) grpc.UnaryServerInterceptor {
	methods := make(map[string]struct{}, len(protected))
	for _, m := range protected {
		methods[m] = struct{}{}
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := methods[info.FullMethod]; !ok {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, customerrors.ErrNotAuthenticated
		}

		bearer, err := service.BearerToken(values[0])
		if err != nil {
			return nil, err
		}

		identity, err := authService.Authorize(ctx, bearer)
		if err != nil {
			return nil, err
		}

		return handler(service.WithIdentity(ctx, identity), req)
	}
}
