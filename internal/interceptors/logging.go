package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/taekwondodev/go-account-service/internal/logging"
)

func LoggingInterceptor(log logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		log.Debug(ctx, "grpc call started", "method", info.FullMethod)

		resp, err := handler(ctx, req)

		log.Info(ctx, "grpc call completed",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)

		return resp, err
	}
}
