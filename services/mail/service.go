package mail

import (
	"fmt"

	"github.com/tuanngo/shopcms/config"
	"github.com/tuanngo/shopcms/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender is the narrow interface the auth flows depend on. Delivery is always
// best-effort from the caller's point of view.
type Sender interface {
	SendVerificationCode(to, name, code string) error
}

type Service struct {
	config *config.MailConfig
	client *mail.Client
	logger *logging.Service
}

func NewService(cfg *config.MailConfig, logger *logging.Service) (*Service, error) {
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("MAIL_FROM_ADDRESS is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Port),
	}

	switch cfg.Encryption {
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username))
	}
	if cfg.Password != "" {
		clientOpts = append(clientOpts, mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		if logger != nil {
			logger.Error("failed to create mail client",
				zap.Error(err),
				zap.String("host", cfg.Host))
		}
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	if logger != nil {
		logger.Info("mail service initialized",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port))
	}

	return &Service{
		config: cfg,
		client: client,
		logger: logger,
	}, nil
}

func (s *Service) SendVerificationCode(to, name, code string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.config.FromName, s.config.FromAddress); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	greeting := name
	if greeting == "" {
		greeting = to
	}

	msg.Subject("Verify your account")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Hi %s,\n\nYour verification code is: %s\n\nThe code expires in 10 minutes.\n", greeting, code))

	if err := s.client.DialAndSend(msg); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to send verification mail", zap.Error(err))
		}
		return fmt.Errorf("failed to send verification mail: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("verification mail sent")
	}

	return nil
}
