package grpc

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/taekwondodev/go-account-service/internal/auth/credentials"
	"github.com/taekwondodev/go-account-service/internal/auth/service"
	customerrors "github.com/taekwondodev/go-account-service/internal/customErrors"
	"github.com/taekwondodev/go-account-service/internal/models"
)

type Server struct {
	authService service.AuthService
}

func NewServer(authService service.AuthService) *Server {
	return &Server{authService: authService}
}

func (s *Server) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := s.authService.Register(ctx, credentials.NewUser{
		Email:     stringField(req, "email"),
		FirstName: stringField(req, "first_name"),
		LastName:  stringField(req, "last_name"),
		Password:  stringField(req, "password"),
	})
	if err != nil {
		return nil, err
	}
	return userStruct(user)
}

func (s *Server) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pair, err := s.authService.Login(ctx, stringField(req, "email"), stringField(req, "password"))
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"access":  pair.Access,
		"refresh": pair.Refresh,
	})
}

func (s *Server) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	access, err := s.authService.Refresh(ctx, stringField(req, "refresh"))
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{"access": access})
}

func (s *Server) Me(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	identity, ok := service.IdentityFrom(ctx)
	if !ok {
		return nil, customerrors.ErrNotAuthenticated
	}
	return userStruct(identity.User)
}

func stringField(req *structpb.Struct, name string) string {
	if v, ok := req.GetFields()[name]; ok {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}

func userStruct(u *models.User) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":           u.ID.String(),
		"email":        u.Email,
		"first_name":   u.FirstName,
		"last_name":    u.LastName,
		"is_active":    u.IsActive,
		"is_staff":     u.IsStaff,
		"is_superuser": u.IsSuperuser,
		"is_verified":  u.IsVerified,
		"date_joined":  u.DateJoined.UTC().Format(time.RFC3339Nano),
	})
}
