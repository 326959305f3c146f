package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/repository"
)

// ConnectionService manages web-session provider connections: the
// interactive login flow, connection status and disconnect.
type ConnectionService struct {
	creds    repository.CredentialRepository
	sessions map[models.Provider]SessionManager
	log      *logrus.Entry
}

func NewConnectionService(creds repository.CredentialRepository, sessions map[models.Provider]SessionManager) *ConnectionService {
	return &ConnectionService{
		creds:    creds,
		sessions: sessions,
		log:      logrus.WithField("service", "connection"),
	}
}

// Connect opens a visible login tab for the provider and waits for the
// session credential to appear.
func (s *ConnectionService) Connect(ctx context.Context, provider models.Provider) (models.AuthStatus, error) {
	mgr, err := s.manager(provider)
	if err != nil {
		return models.AuthStatus{}, err
	}
	status, err := mgr.ConnectInteractive(ctx)
	if err != nil {
		return models.AuthStatus{}, err
	}
	s.log.WithField("provider", provider).Info("provider connected")
	return status, nil
}

// Status reports whether a credential is stored for the provider.
func (s *ConnectionService) Status(ctx context.Context, provider models.Provider) (models.AuthStatus, error) {
	if _, err := s.manager(provider); err != nil {
		return models.AuthStatus{}, err
	}
	return s.creds.Status(ctx, provider)
}

// Disconnect drops the provider's stored credential.
func (s *ConnectionService) Disconnect(ctx context.Context, provider models.Provider) error {
	mgr, err := s.manager(provider)
	if err != nil {
		return err
	}
	if err := mgr.Invalidate(ctx); err != nil {
		return err
	}
	s.log.WithField("provider", provider).Info("provider disconnected")
	return nil
}

func (s *ConnectionService) manager(provider models.Provider) (SessionManager, error) {
	if !provider.IsWebSession() {
		return nil, apperr.New(apperr.KindInvalidInput, "该服务不使用网页登录")
	}
	mgr, ok := s.sessions[provider]
	if !ok {
		return nil, apperr.New(apperr.KindInternalFault, "服务未初始化")
	}
	return mgr, nil
}
