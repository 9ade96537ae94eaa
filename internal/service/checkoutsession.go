package service

import (
	"context"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/checkoutsession"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

// CheckoutSessionService opens checkout sessions and settles their status
// from provider intent callbacks.
type CheckoutSessionService interface {
	CreateCheckoutSession(ctx context.Context, req dto.CreateCheckoutSessionRequest) (*dto.CheckoutSessionResponse, error)
	GetCheckoutSession(ctx context.Context, id string) (*dto.CheckoutSessionResponse, error)

	// UpdateStatusFromIntent maps a provider intent status onto the session.
	// Terminal sessions are immutable; updating one fails with
	// ErrInvalidOperation.
	UpdateStatusFromIntent(ctx context.Context, sessionID string, intentStatus types.SetupIntentStatus) (*dto.CheckoutSessionResponse, error)
}

type checkoutSessionService struct {
	ServiceParams
}

func NewCheckoutSessionService(params ServiceParams) CheckoutSessionService {
	return &checkoutSessionService{
		ServiceParams: params,
	}
}

func (s *checkoutSessionService) CreateCheckoutSession(ctx context.Context, req dto.CreateCheckoutSessionRequest) (*dto.CheckoutSessionResponse, error) {
	if _, err := s.CustomerRepo.GetByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	session := req.ToCheckoutSession(ctx)
	if err := session.Validate(); err != nil {
		return nil, err
	}

	if err := s.validateReferences(ctx, session); err != nil {
		return nil, err
	}

	if err := s.CheckoutSessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.Logger.Infow("opened checkout session",
		"checkout_session_id", session.ID,
		"session_type", session.SessionType,
		"customer_id", session.CustomerID,
	)

	return &dto.CheckoutSessionResponse{CheckoutSession: session}, nil
}

func (s *checkoutSessionService) GetCheckoutSession(ctx context.Context, id string) (*dto.CheckoutSessionResponse, error) {
	session, err := s.CheckoutSessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.CheckoutSessionResponse{CheckoutSession: session}, nil
}

func (s *checkoutSessionService) UpdateStatusFromIntent(ctx context.Context, sessionID string, intentStatus types.SetupIntentStatus) (*dto.CheckoutSessionResponse, error) {
	session, err := s.CheckoutSessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsTerminal() {
		return nil, ierr.NewError("checkout session is already settled").
			WithHint("Terminal checkout sessions cannot change status").
			WithReportableDetails(map[string]any{
				"checkout_session_id": sessionID,
				"session_status":      session.SessionStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	session.SessionStatus = types.CheckoutSessionStatusFromIntentStatus(intentStatus)
	if err := s.CheckoutSessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}

	return &dto.CheckoutSessionResponse{CheckoutSession: session}, nil
}

// validateReferences checks that the entities a session payload points at
// exist before the session opens.
func (s *checkoutSessionService) validateReferences(ctx context.Context, session *checkoutsession.CheckoutSession) error {
	if session.PriceID != nil {
		if _, err := s.PriceRepo.GetByID(ctx, *session.PriceID); err != nil {
			return err
		}
	}
	if session.PurchaseID != nil {
		if _, err := s.PurchaseRepo.GetByID(ctx, *session.PurchaseID); err != nil {
			return err
		}
	}
	if session.TargetSubscriptionID != nil {
		if _, err := s.SubRepo.GetByID(ctx, *session.TargetSubscriptionID); err != nil {
			return err
		}
	}
	return nil
}
