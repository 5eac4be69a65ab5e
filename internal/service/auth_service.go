package service

import (
	"context"
	"fmt"
	"time"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/pkg/mailer"
	"realtime-chat-be/internal/pkg/serverutils"
	"realtime-chat-be/internal/repository/memory"
	"realtime-chat-be/pkg/events"
	pkgNats "realtime-chat-be/pkg/nats"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, tokenId string, expires time.Time) error
}

type authService struct {
	store          gateway.Gateway
	emailService   mailer.IEmailService
	eventPublisher *pkgNats.Publisher
	denylist       *memory.TokenDenylist
	jwtSecret      string
	tokenTTL       time.Duration
	log            logger.ILogger
}

func NewAuthService(
	store gateway.Gateway,
	emailService mailer.IEmailService,
	eventPublisher *pkgNats.Publisher,
	denylist *memory.TokenDenylist,
	jwtSecret string,
	tokenTTL time.Duration,
	log logger.ILogger,
) IAuthService {
	return &authService{
		store:          store,
		emailService:   emailService,
		eventPublisher: eventPublisher,
		denylist:       denylist,
		jwtSecret:      jwtSecret,
		tokenTTL:       tokenTTL,
		log:            log,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	user, err := s.store.CreateUser(ctx, req.Username, req.Password, req.Email, req.FullName)
	if err != nil {
		return nil, err
	}

	if s.emailService != nil {
		go func() {
			if emailErr := s.emailService.SendWelcome(user.Email, user.Username); emailErr != nil {
				fmt.Printf("Error sending welcome email: %v\n", emailErr)
			}
		}()
	}

	s.publishEvent(events.NewUserRegistered(user.Id, user.Username))

	s.log.Info("auth", "user registered", map[string]interface{}{
		"user_id":  user.Id.String(),
		"username": user.Username,
	})

	return &dto.RegisterResponse{
		Id:       user.Id,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.store.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := serverutils.IssueToken(s.jwtSecret, user.Id, user.Username, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.NewUserLogin(user.Id, user.Username))

	return &dto.LoginResponse{
		AccessToken: token,
		User:        dto.ToUserDTO(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, tokenId string, expires time.Time) error {
	if tokenId == "" {
		return nil
	}
	s.denylist.Revoke(tokenId, expires)
	return nil
}

// publishEvent is best effort. A dead bus must never fail the request.
func (s *authService) publishEvent(event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.log.Warn("auth", "failed to publish event", map[string]interface{}{
				"event": event.EventType(),
				"error": err.Error(),
			})
		}
	}()
}
