package service

import (
	"context"

	"github.com/meterline/meterline/internal/domain/paymentmethod"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
)

// PaymentMethodService mirrors provider payment instruments into the local
// store.
type PaymentMethodService interface {
	// UpsertFromProvider records a payment method seen on a provider intent.
	// Redelivered webhooks resolve to the existing record by provider method
	// id instead of duplicating it.
	UpsertFromProvider(ctx context.Context, customerID, providerMethodID string) (*paymentmethod.PaymentMethod, error)

	GetPaymentMethod(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error)

	// PropagateToCustomerSubscriptions sets the payment method as the default
	// on every billable subscription of its customer.
	PropagateToCustomerSubscriptions(ctx context.Context, methodID string) error
}

type paymentMethodService struct {
	ServiceParams
}

func NewPaymentMethodService(params ServiceParams) PaymentMethodService {
	return &paymentMethodService{
		ServiceParams: params,
	}
}

func (s *paymentMethodService) UpsertFromProvider(ctx context.Context, customerID, providerMethodID string) (*paymentmethod.PaymentMethod, error) {
	if providerMethodID == "" {
		return nil, ierr.NewError("provider_method_id is required").
			WithHint("The provider intent did not carry a payment method").
			Mark(ierr.ErrValidation)
	}

	existing, err := s.PaymentMethodRepo.GetByProviderMethodID(ctx, providerMethodID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	method := &paymentmethod.PaymentMethod{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_METHOD),
		CustomerID:       customerID,
		ProviderMethodID: providerMethodID,
		MethodType:       "card",
		Livemode:         types.GetLivemode(ctx),
		EnvironmentID:    types.GetEnvironmentID(ctx),
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	if err := method.Validate(); err != nil {
		return nil, err
	}
	if err := s.PaymentMethodRepo.Create(ctx, method); err != nil {
		return nil, err
	}

	s.Logger.Infow("attached payment method",
		"payment_method_id", method.ID,
		"customer_id", customerID,
	)

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventPaymentMethodAttached,
		webhookDto.InternalPaymentMethodEvent{PaymentMethodID: method.ID},
	)

	return method, nil
}

func (s *paymentMethodService) GetPaymentMethod(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	return s.PaymentMethodRepo.GetByID(ctx, id)
}

func (s *paymentMethodService) PropagateToCustomerSubscriptions(ctx context.Context, methodID string) error {
	method, err := s.PaymentMethodRepo.GetByID(ctx, methodID)
	if err != nil {
		return err
	}

	subs, err := s.SubRepo.ListByCustomerID(ctx, method.CustomerID)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		if !sub.SubscriptionStatus.IsActive() {
			continue
		}
		// Credit trial subscriptions never bill a payment method.
		if sub.SubscriptionStatus == types.SubscriptionStatusCreditTrial {
			continue
		}
		sub.DefaultPaymentMethodID = &method.ID
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}
