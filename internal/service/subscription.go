package service

import (
	"context"
	"fmt"
	"time"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/subscription"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
)

// SubscriptionService provisions subscriptions and drives their lifecycle
// transitions: activation, upgrade cancel/link, payment method updates.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)

	// ActivateSubscription flips an incomplete subscription to active. The
	// setup intent id is stamped before the status transition so a replayed
	// webhook finds the subscription by intent id even if activation is
	// interrupted mid-flight.
	ActivateSubscription(ctx context.Context, subscriptionID, setupIntentID, paymentMethodID string) (*dto.SubscriptionResponse, error)

	// HasEverTrialed reports whether any of the customer's subscriptions,
	// live or cancelled, ever carried a trial.
	HasEverTrialed(ctx context.Context, customerID string) (bool, error)

	// CancelFreeSubscriptionForUpgrade cancels the customer's active free
	// plan subscription ahead of a paid upgrade. Returns nil when the
	// customer has no active free subscription.
	CancelFreeSubscriptionForUpgrade(ctx context.Context, customerID string) (*subscription.Subscription, error)

	// LinkUpgradedSubscriptions forward-links a cancelled subscription to its
	// replacement. Re-linking to the same target is a no-op; re-linking to a
	// different target fails with ErrAlreadyExists.
	LinkUpgradedSubscriptions(ctx context.Context, oldSubscriptionID, newSubscriptionID string) error

	// ResolveCurrentSubscription follows replaced_by links to the live end of
	// an upgrade chain.
	ResolveCurrentSubscription(ctx context.Context, subscriptionID string) (*dto.SubscriptionResponse, error)

	UpdateDefaultPaymentMethod(ctx context.Context, subscriptionID, paymentMethodID string) (*dto.SubscriptionResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.CustomerRepo.GetByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}
	price, err := s.PriceRepo.GetByID(ctx, req.PriceID)
	if err != nil {
		return nil, err
	}
	org, err := s.OrganizationRepo.GetByID(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}

	isFreePlan := req.IsFreePlan || price.IsFreePlan
	if !isFreePlan && !org.AllowMultipleSubscriptionsPerCustomer {
		if err := s.ensureNoActivePaid(ctx, req.CustomerID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	trialEnd, err := s.computeTrialEnd(ctx, req, price.TrialPeriodDays, now)
	if err != nil {
		return nil, err
	}

	anchor := req.BillingAnchor
	if anchor.IsZero() {
		anchor = now
	}

	status := types.SubscriptionStatusActive
	if trialEnd != nil && trialEnd.After(now) {
		status = types.SubscriptionStatusTrialing
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID:         req.CustomerID,
		PriceID:            price.ID,
		Quantity:           quantity,
		Name:               req.Name,
		SubscriptionStatus: status,
		IsFreePlan:         isFreePlan,
		SetupIntentID:      req.SetupIntentID,
		TrialEnd:           trialEnd,
		BillingAnchor:      anchor,
		StartDate:          now,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		Livemode:           types.GetLivemode(ctx),
		Metadata:           req.Metadata,
		EnvironmentID:      types.GetEnvironmentID(ctx),
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.SubRepo.Create(ctx, sub); err != nil {
			return err
		}
		if price.IsMetered() {
			account := &ledger.Account{
				ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ACCOUNT),
				SubscriptionID: sub.ID,
				UsageMeterID:   *price.UsageMeterID,
				CustomerID:     sub.CustomerID,
				Currency:       price.Currency,
				Livemode:       sub.Livemode,
				EnvironmentID:  sub.EnvironmentID,
				BaseModel:      types.GetDefaultBaseModel(ctx),
			}
			return s.LedgerRepo.CreateAccount(ctx, account)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"customer_id", sub.CustomerID,
		"price_id", sub.PriceID,
		"subscription_status", sub.SubscriptionStatus,
	)

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventSubscriptionCreated,
		webhookDto.InternalSubscriptionEvent{SubscriptionID: sub.ID},
	)

	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) ActivateSubscription(ctx context.Context, subscriptionID, setupIntentID, paymentMethodID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.SubscriptionStatus != types.SubscriptionStatusIncomplete {
		return nil, ierr.NewError("subscription is not awaiting activation").
			WithHint("Only incomplete subscriptions can be activated").
			WithReportableDetails(map[string]any{
				"subscription_id":     sub.ID,
				"subscription_status": sub.SubscriptionStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	method, err := s.PaymentMethodRepo.GetByID(ctx, paymentMethodID)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		// Stamp the intent id first so the reconciliation replay lookup
		// succeeds even if the status flip below never commits.
		sub.SetupIntentID = &setupIntentID
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			return err
		}

		sub.SubscriptionStatus = types.SubscriptionStatusActive
		sub.DefaultPaymentMethodID = &method.ID
		return s.SubRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	if err := s.runFirstBilling(ctx, sub.ID); err != nil {
		return nil, err
	}

	s.Logger.Infow("activated subscription",
		"subscription_id", sub.ID,
		"setup_intent_id", setupIntentID,
	)

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventSubscriptionActivated,
		webhookDto.InternalSubscriptionEvent{SubscriptionID: sub.ID},
	)

	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// runFirstBilling applies outstanding credit on every ledger account of a
// freshly activated subscription.
func (s *subscriptionService) runFirstBilling(ctx context.Context, subscriptionID string) error {
	accounts, err := s.LedgerRepo.ListAccountsBySubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}

	applicationService := NewCreditApplicationService(s.ServiceParams)
	for _, account := range accounts {
		run, err := applicationService.RunBillingRecalculation(ctx, dto.BillingRecalculationRequest{
			LedgerAccountID: account.ID,
			IdempotencyKey:  activationIdempotencyKey(subscriptionID, account.ID),
		})
		if err != nil {
			return err
		}
		if _, err := applicationService.FinalizeBillingRecalculation(ctx, run.Transaction.ID); err != nil {
			return err
		}
	}
	return nil
}

// activationIdempotencyKey keys the first billing run of an account so a
// replayed activation reuses the original transaction.
func activationIdempotencyKey(subscriptionID, accountID string) string {
	return fmt.Sprintf("activation:%s:%s", subscriptionID, accountID)
}

func (s *subscriptionService) HasEverTrialed(ctx context.Context, customerID string) (bool, error) {
	subs, err := s.SubRepo.ListByCustomerID(ctx, customerID)
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		if sub.TrialEnd != nil {
			return true, nil
		}
	}
	return false, nil
}

func (s *subscriptionService) CancelFreeSubscriptionForUpgrade(ctx context.Context, customerID string) (*subscription.Subscription, error) {
	subs, err := s.SubRepo.ListByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var free *subscription.Subscription
	for _, sub := range subs {
		if !sub.IsActiveFree() {
			continue
		}
		if free != nil {
			return nil, ierr.NewError("customer has multiple active free subscriptions").
				WithHint("Customers may hold at most one active free plan subscription").
				WithReportableDetails(map[string]any{
					"customer_id": customerID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		free = sub
	}
	if free == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	free.SubscriptionStatus = types.SubscriptionStatusCancelled
	free.CancellationReason = types.CancellationReasonUpgradedToPaid
	free.CancelledAt = &now
	if err := s.SubRepo.Update(ctx, free); err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled free subscription for upgrade",
		"subscription_id", free.ID,
		"customer_id", customerID,
	)

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventSubscriptionCancelled,
		webhookDto.InternalSubscriptionEvent{SubscriptionID: free.ID},
	)

	return free, nil
}

func (s *subscriptionService) LinkUpgradedSubscriptions(ctx context.Context, oldSubscriptionID, newSubscriptionID string) error {
	old, err := s.SubRepo.GetByID(ctx, oldSubscriptionID)
	if err != nil {
		return err
	}

	if old.ReplacedBySubscriptionID != nil {
		if *old.ReplacedBySubscriptionID == newSubscriptionID {
			return nil
		}
		return ierr.NewError("subscription is already linked to a different replacement").
			WithHint("An upgraded subscription can only be linked to one replacement").
			WithReportableDetails(map[string]any{
				"subscription_id":             oldSubscriptionID,
				"replaced_by_subscription_id": *old.ReplacedBySubscriptionID,
				"requested_subscription_id":   newSubscriptionID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	old.ReplacedBySubscriptionID = &newSubscriptionID
	if err := s.SubRepo.Update(ctx, old); err != nil {
		return err
	}

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventSubscriptionUpgraded,
		webhookDto.InternalSubscriptionEvent{SubscriptionID: oldSubscriptionID},
	)

	return nil
}

func (s *subscriptionService) ResolveCurrentSubscription(ctx context.Context, subscriptionID string) (*dto.SubscriptionResponse, error) {
	visited := map[string]bool{}
	currentID := subscriptionID

	for {
		if visited[currentID] {
			return nil, ierr.NewError("subscription replacement chain contains a cycle").
				WithHint("Subscription upgrade links must form an acyclic chain").
				WithReportableDetails(map[string]any{
					"subscription_id": subscriptionID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		visited[currentID] = true

		sub, err := s.SubRepo.GetByID(ctx, currentID)
		if err != nil {
			return nil, err
		}
		if sub.ReplacedBySubscriptionID == nil {
			return &dto.SubscriptionResponse{Subscription: sub}, nil
		}
		currentID = *sub.ReplacedBySubscriptionID
	}
}

func (s *subscriptionService) UpdateDefaultPaymentMethod(ctx context.Context, subscriptionID, paymentMethodID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if sub.SubscriptionStatus == types.SubscriptionStatusCreditTrial {
		return nil, ierr.NewError("cannot set a payment method on a credit trial subscription").
			WithHint("Credit trial subscriptions do not bill a payment method").
			WithReportableDetails(map[string]any{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	method, err := s.PaymentMethodRepo.GetByID(ctx, paymentMethodID)
	if err != nil {
		return nil, err
	}

	sub.DefaultPaymentMethodID = &method.ID
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// ensureNoActivePaid enforces the one-active-paid-subscription-per-customer
// invariant.
func (s *subscriptionService) ensureNoActivePaid(ctx context.Context, customerID string) error {
	subs, err := s.SubRepo.ListByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if sub.IsActivePaid() {
			return ierr.NewError("customer already has an active paid subscription").
				WithHint("Only one active paid subscription is allowed per customer").
				WithReportableDetails(map[string]any{
					"customer_id":     customerID,
					"subscription_id": sub.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return nil
}

func (s *subscriptionService) computeTrialEnd(ctx context.Context, req dto.CreateSubscriptionRequest, trialPeriodDays *int, now time.Time) (*time.Time, error) {
	if req.TrialEnd != nil {
		return req.TrialEnd, nil
	}
	if trialPeriodDays == nil || *trialPeriodDays <= 0 {
		return nil, nil
	}

	trialed, err := s.HasEverTrialed(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if trialed {
		return nil, nil
	}

	end := now.AddDate(0, 0, *trialPeriodDays)
	return &end, nil
}
