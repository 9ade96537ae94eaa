package service

import (
	"context"
	"time"

	"github.com/meterline/meterline/internal/api/dto"
	"github.com/meterline/meterline/internal/domain/purchase"
	"github.com/meterline/meterline/internal/types"
	webhookDto "github.com/meterline/meterline/internal/webhook/dto"
	"github.com/shopspring/decimal"
)

var percentBase = decimal.NewFromInt(100)

// PurchaseService manages purchase records and their fee and discount
// bookkeeping.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error)
	GetPurchase(ctx context.Context, id string) (*dto.PurchaseResponse, error)

	// MarkPurchasePaid flips a purchase to paid. Already paid purchases are a
	// no-op so replayed reconciliations cannot double-fire the event.
	MarkPurchasePaid(ctx context.Context, id string) (*dto.PurchaseResponse, error)
}

type purchaseService struct {
	ServiceParams
}

func NewPurchaseService(params ServiceParams) PurchaseService {
	return &purchaseService{
		ServiceParams: params,
	}
}

func (s *purchaseService) CreatePurchase(ctx context.Context, req dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
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

	subtotal := price.Amount.Mul(decimal.NewFromInt(int64(req.Quantity)))
	fee := subtotal.Mul(org.FeePercentage).Div(percentBase)
	total := subtotal.Add(fee).Sub(req.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	p := &purchase.Purchase{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PURCHASE),
		PurchaseNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PURCHASE),
		CustomerID:     req.CustomerID,
		PriceID:        price.ID,
		Quantity:       req.Quantity,
		PurchaseStatus: types.PurchaseStatusPending,
		Subtotal:       subtotal,
		FeeAmount:      fee,
		DiscountAmount: req.DiscountAmount,
		Total:          total,
		DiscountCode:   req.DiscountCode,
		Livemode:       types.GetLivemode(ctx),
		Metadata:       req.Metadata,
		EnvironmentID:  types.GetEnvironmentID(ctx),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PurchaseRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("created purchase",
		"purchase_id", p.ID,
		"purchase_number", p.PurchaseNumber,
		"customer_id", p.CustomerID,
		"total", p.Total.String(),
	)

	return &dto.PurchaseResponse{Purchase: p}, nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (*dto.PurchaseResponse, error) {
	p, err := s.PurchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.PurchaseResponse{Purchase: p}, nil
}

func (s *purchaseService) MarkPurchasePaid(ctx context.Context, id string) (*dto.PurchaseResponse, error) {
	p, err := s.PurchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.PurchaseStatus == types.PurchaseStatusPaid {
		return &dto.PurchaseResponse{Purchase: p}, nil
	}

	now := time.Now().UTC()
	p.PurchaseStatus = types.PurchaseStatusPaid
	p.PaidAt = &now
	if err := s.PurchaseRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("marked purchase paid",
		"purchase_id", p.ID,
		"purchase_number", p.PurchaseNumber,
	)

	publishWebhookEvent(ctx, s.WebhookPublisher, s.Logger,
		types.WebhookEventPurchaseCompleted,
		webhookDto.InternalPurchaseEvent{PurchaseID: p.ID},
	)

	return &dto.PurchaseResponse{Purchase: p}, nil
}
