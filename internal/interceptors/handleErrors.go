package interceptors

import (
	"context"
	"sort"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
)

func ErrorInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		return nil, handleGrpcError(err)
	}
	return resp, nil
}

func handleGrpcError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	st := status.New(customerrors.GRPCCode(err), customerrors.GetMessage(err))

	fields := customerrors.GetFields(err)
	if len(fields) == 0 {
		return st.Err()
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	badRequest := &errdetails.BadRequest{}
	for _, name := range names {
		for _, msg := range fields[name] {
			badRequest.FieldViolations = append(badRequest.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       name,
				Description: msg,
			})
		}
	}

	if detailed, derr := st.WithDetails(badRequest); derr == nil {
		return detailed.Err()
	}
	return st.Err()
}
