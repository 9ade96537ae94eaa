package service

import (
	"context"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/checkoutsession"
	"github.com/meterline/meterline/internal/domain/customer"
	"github.com/meterline/meterline/internal/domain/ledger"
	"github.com/meterline/meterline/internal/domain/organization"
	ierr "github.com/meterline/meterline/internal/errors"
	"github.com/meterline/meterline/internal/types"
)

// ReconciliationService consumes succeeded provider setup intents and settles
// the checkout session they belong to: payment method attachment,
// subscription activation, or the full purchase-to-subscription flow.
type ReconciliationService interface {
	ProcessSetupIntentSucceeded(ctx context.Context, intent *types.SetupIntent) (*dto.ReconciliationResult, error)
}

type reconciliationService struct {
	ServiceParams

	subscriptions  SubscriptionService
	purchases      PurchaseService
	paymentMethods PaymentMethodService
	sessions       CheckoutSessionService
}

func NewReconciliationService(params ServiceParams) ReconciliationService {
	return &reconciliationService{
		ServiceParams:  params,
		subscriptions:  NewSubscriptionService(params),
		purchases:      NewPurchaseService(params),
		paymentMethods: NewPaymentMethodService(params),
		sessions:       NewCheckoutSessionService(params),
	}
}

func (s *reconciliationService) ProcessSetupIntentSucceeded(ctx context.Context, intent *types.SetupIntent) (*dto.ReconciliationResult, error) {
	if intent == nil || intent.ID == "" {
		return nil, ierr.NewError("setup intent is required").
			WithHint("The provider event did not carry a setup intent").
			Mark(ierr.ErrValidation)
	}

	// Redelivered webhooks short-circuit: a subscription already stamped with
	// this intent id means the intent was fully processed.
	if result, err := s.replayResult(ctx, intent); err != nil {
		return nil, err
	} else if result != nil {
		return result, nil
	}

	if intent.Status != types.SetupIntentStatusSucceeded {
		return nil, ierr.NewError("setup intent has not succeeded").
			WithHint("Only succeeded setup intents can be reconciled").
			WithReportableDetails(map[string]any{
				"setup_intent_id": intent.ID,
				"status":          intent.Status,
			}).
			Mark(ierr.ErrValidation)
	}

	metadata, err := types.ParseSetupIntentMetadata(intent.Metadata)
	if err != nil {
		return nil, err
	}

	session, err := s.CheckoutSessionRepo.GetByID(ctx, metadata.CheckoutSessionID)
	if err != nil {
		return nil, err
	}

	org, cust, err := s.loadActors(ctx, session.CustomerID)
	if err != nil {
		return nil, err
	}

	if session.IsTerminal() {
		return &dto.ReconciliationResult{
			SessionType:   session.SessionType,
			SessionStatus: session.SessionStatus,
			TerminalNoOp:  true,
			Organization:  org,
			Customer:      cust,
		}, nil
	}

	result := &dto.ReconciliationResult{
		SessionType:  session.SessionType,
		Organization: org,
		Customer:     cust,
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		updated, err := s.sessions.UpdateStatusFromIntent(ctx, session.ID, intent.Status)
		if err != nil {
			return err
		}
		result.SessionStatus = updated.SessionStatus
		session = updated.CheckoutSession

		switch session.SessionType {
		case types.CheckoutSessionTypeAddPaymentMethod:
			return s.processAddPaymentMethod(ctx, intent, session, result)
		case types.CheckoutSessionTypeActivateSubscription:
			return s.processActivateSubscription(ctx, intent, session, result)
		case types.CheckoutSessionTypeProduct, types.CheckoutSessionTypePurchase:
			return s.processSubscriptionCheckout(ctx, intent, session, result)
		case types.CheckoutSessionTypeInvoice:
			return ierr.NewError("invoice sessions cannot settle through a setup intent").
				WithHint("Invoice checkout sessions are settled by payment intents").
				WithReportableDetails(map[string]any{
					"checkout_session_id": session.ID,
				}).
				Mark(ierr.ErrValidation)
		default:
			return ierr.NewError("unknown checkout session type").
				WithReportableDetails(map[string]any{
					"checkout_session_id": session.ID,
					"session_type":        session.SessionType,
				}).
				Mark(ierr.ErrValidation)
		}
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("reconciled setup intent",
		"setup_intent_id", intent.ID,
		"checkout_session_id", session.ID,
		"session_type", session.SessionType,
	)

	return result, nil
}

// replayResult rebuilds the previously derived outcome for an intent that was
// already processed, without mutating anything.
func (s *reconciliationService) replayResult(ctx context.Context, intent *types.SetupIntent) (*dto.ReconciliationResult, error) {
	sub, err := s.SubRepo.GetBySetupIntentID(ctx, intent.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	org, cust, err := s.loadActors(ctx, sub.CustomerID)
	if err != nil {
		return nil, err
	}

	result := &dto.ReconciliationResult{
		SessionStatus: types.CheckoutSessionStatusSucceeded,
		Replayed:      true,
		Organization:  org,
		Customer:      cust,
		Subscription:  sub,
	}

	// Best effort: the session type is only recoverable when the intent
	// metadata still resolves to a session.
	if metadata, err := types.ParseSetupIntentMetadata(intent.Metadata); err == nil {
		if session, err := s.CheckoutSessionRepo.GetByID(ctx, metadata.CheckoutSessionID); err == nil {
			result.SessionType = session.SessionType
			result.SessionStatus = session.SessionStatus
		}
	}
	return result, nil
}

func (s *reconciliationService) processAddPaymentMethod(ctx context.Context, intent *types.SetupIntent, session *checkoutsession.CheckoutSession, result *dto.ReconciliationResult) error {
	method, err := s.paymentMethods.UpsertFromProvider(ctx, session.CustomerID, intent.PaymentMethodID)
	if err != nil {
		return err
	}
	result.PaymentMethod = method

	if session.TargetSubscriptionID != nil {
		sub, err := s.subscriptions.UpdateDefaultPaymentMethod(ctx, *session.TargetSubscriptionID, method.ID)
		if err != nil {
			return err
		}
		result.Subscription = sub.Subscription
	}

	if session.AutomaticallyUpdateSubscriptions {
		if err := s.paymentMethods.PropagateToCustomerSubscriptions(ctx, method.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *reconciliationService) processActivateSubscription(ctx context.Context, intent *types.SetupIntent, session *checkoutsession.CheckoutSession, result *dto.ReconciliationResult) error {
	method, err := s.paymentMethods.UpsertFromProvider(ctx, session.CustomerID, intent.PaymentMethodID)
	if err != nil {
		return err
	}
	result.PaymentMethod = method

	sub, err := s.subscriptions.ActivateSubscription(ctx, *session.TargetSubscriptionID, intent.ID, method.ID)
	if err != nil {
		return err
	}
	result.Subscription = sub.Subscription

	result.BillingRun, err = s.firstBillingRun(ctx, sub.ID)
	return err
}

// processSubscriptionCheckout settles product and purchase sessions: cancel
// and link any active free plan, create the paid subscription stamped with
// the intent id, and flip the purchase to paid.
func (s *reconciliationService) processSubscriptionCheckout(ctx context.Context, intent *types.SetupIntent, session *checkoutsession.CheckoutSession, result *dto.ReconciliationResult) error {
	method, err := s.paymentMethods.UpsertFromProvider(ctx, session.CustomerID, intent.PaymentMethodID)
	if err != nil {
		return err
	}
	result.PaymentMethod = method

	cancelled, err := s.subscriptions.CancelFreeSubscriptionForUpgrade(ctx, session.CustomerID)
	if err != nil {
		return err
	}

	createReq := dto.CreateSubscriptionRequest{
		CustomerID:    session.CustomerID,
		PriceID:       *session.PriceID,
		Quantity:      session.Quantity,
		Name:          session.OutputName,
		SetupIntentID: &intent.ID,
		Metadata:      session.OutputMetadata,
	}
	if session.PreserveBillingCycleAnchor && cancelled != nil {
		createReq.BillingAnchor = cancelled.BillingAnchor
	}

	sub, err := s.subscriptions.CreateSubscription(ctx, createReq)
	if err != nil {
		return err
	}
	result.Subscription = sub.Subscription

	if _, err := s.subscriptions.UpdateDefaultPaymentMethod(ctx, sub.ID, method.ID); err != nil {
		return err
	}

	if cancelled != nil {
		if err := s.subscriptions.LinkUpgradedSubscriptions(ctx, cancelled.ID, sub.ID); err != nil {
			return err
		}
	}

	if session.SessionType == types.CheckoutSessionTypePurchase {
		paid, err := s.purchases.MarkPurchasePaid(ctx, *session.PurchaseID)
		if err != nil {
			return err
		}
		result.Purchase = paid.Purchase
	}
	return nil
}

// firstBillingRun returns the billing recalculation transaction produced on
// activation for the subscription's first metered account, when one exists.
func (s *reconciliationService) firstBillingRun(ctx context.Context, subscriptionID string) (*ledger.Transaction, error) {
	accounts, err := s.LedgerRepo.ListAccountsBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}

	key := activationIdempotencyKey(subscriptionID, accounts[0].ID)
	tx, err := s.LedgerRepo.GetTransactionByIdempotencyKey(ctx, key)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

func (s *reconciliationService) loadActors(ctx context.Context, customerID string) (*organization.Organization, *customer.Customer, error) {
	org, err := s.OrganizationRepo.GetByID(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, nil, err
	}
	cust, err := s.CustomerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}
	return org, cust, nil
}
