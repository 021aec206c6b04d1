package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chezben/internal/domain"
	"chezben/internal/events"
	"chezben/internal/models"
	"chezben/internal/repository"
	"chezben/pkg/payment"

	"go.uber.org/zap"
)

const (
	DefaultBoostDays = 3
	MaxBoostDays     = 90
)

type BoostRequest struct {
	ListingIDs    []uint
	DurationDays  int
	Amount        int64
	PaymentMethod string
}

type BoostEvent struct {
	UserID        uint   `json:"user_id"`
	ListingIDs    []uint `json:"listing_ids"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

type CreditPurchase struct {
	Credits    int64  `json:"credits"`
	Price      int64  `json:"price"`
	Reference  string `json:"reference"`
	NewBalance int64  `json:"new_balance"`
}

type BoostService struct {
	boosts   *repository.BoostRepository
	listings *repository.ListingRepository
	users    *repository.UserRepository
	settings *repository.SettingRepository
	payments payment.Provider
	events   events.Publisher
	now      func() time.Time
	log      *zap.Logger
}

func NewBoostService(
	boosts *repository.BoostRepository,
	listings *repository.ListingRepository,
	users *repository.UserRepository,
	settings *repository.SettingRepository,
	payments payment.Provider,
	pub events.Publisher,
	log *zap.Logger,
) *BoostService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &BoostService{
		boosts:   boosts,
		listings: listings,
		users:    users,
		settings: settings,
		payments: payments,
		events:   pub,
		now:      time.Now,
		log:      log,
	}
}

func (s *BoostService) WithClock(now func() time.Time) *BoostService {
	s.now = now
	return s
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Purchase boosts the caller's listings among req.ListingIDs. The amount is the total
// for the whole request and is split evenly across the requested listings; ids the
// caller does not own are skipped.
func (s *BoostService) Purchase(ctx context.Context, caller domain.Caller, req BoostRequest) ([]models.Boost, error) {
	ids := dedupe(req.ListingIDs)
	if len(ids) == 0 {
		return nil, invalid("at least one listing is required")
	}
	if req.DurationDays == 0 {
		req.DurationDays = DefaultBoostDays
	}
	if req.DurationDays < 1 || req.DurationDays > MaxBoostDays {
		return nil, invalid("duration must be between 1 and %d days", MaxBoostDays)
	}
	if req.Amount < 0 {
		return nil, invalid("amount must not be negative")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentOrangeMoney
	}
	switch req.PaymentMethod {
	case domain.PaymentCredits, domain.PaymentOrangeMoney, domain.PaymentMobileMoney:
	default:
		return nil, invalid("unknown payment method %q", req.PaymentMethod)
	}

	owned, err := s.listings.OwnedIDs(caller.UserID, ids)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, invalid("none of the listings belong to you")
	}
	ownedSet := make(map[uint]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}

	reference := ""
	var debit int64
	if req.PaymentMethod == domain.PaymentCredits {
		debit = req.Amount
	} else if req.Amount > 0 {
		resp, err := s.payments.InitiatePayment(ctx, payment.PaymentRequest{
			UserID:      caller.UserID,
			Amount:      req.Amount,
			Currency:    domain.DefaultCurrency,
			Method:      req.PaymentMethod,
			Description: fmt.Sprintf("boost %d listing(s) for %d days", len(owned), req.DurationDays),
		})
		if err != nil {
			return nil, fmt.Errorf("payment: %w", err)
		}
		reference = resp.Reference
	}

	start := s.now()
	end := start.AddDate(0, 0, req.DurationDays)
	share := req.Amount / int64(len(ids))
	boosts := make([]models.Boost, 0, len(owned))
	for _, id := range ids {
		if !ownedSet[id] {
			continue
		}
		txID := reference
		if req.PaymentMethod == domain.PaymentCredits {
			txID = fmt.Sprintf("CREDIT_%d_%d", caller.UserID, id)
		}
		boosts = append(boosts, models.Boost{
			ListingID:     id,
			DurationDays:  req.DurationDays,
			Amount:        share,
			PaymentMethod: req.PaymentMethod,
			TransactionID: txID,
			StartDate:     start,
			EndDate:       end,
			IsActive:      true,
		})
	}

	if err := s.boosts.Purchase(caller.UserID, debit, boosts); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return nil, invalid("Crédits insuffisants")
		}
		return nil, err
	}

	boosted := make([]uint, 0, len(boosts))
	for _, b := range boosts {
		boosted = append(boosted, b.ListingID)
	}
	ev := BoostEvent{UserID: caller.UserID, ListingIDs: boosted, Amount: req.Amount, PaymentMethod: req.PaymentMethod}
	if err := s.events.Publish(ctx, events.SubjectBoostPurchased, ev); err != nil {
		s.log.Warn("publishing boost event failed", zap.Uint("user_id", caller.UserID), zap.Error(err))
	}
	return boosts, nil
}

// creditPrice is the XAF price of one credit from platform settings.
func (s *BoostService) creditPrice() int64 {
	raw, err := s.settings.Get(SettingCreditPrice)
	if err != nil {
		return DefaultCreditPrice
	}
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || price <= 0 {
		return DefaultCreditPrice
	}
	return price
}

// BuyCredits charges the mobile money wallet and adds credits to the caller's balance.
func (s *BoostService) BuyCredits(ctx context.Context, caller domain.Caller, credits int64, method string) (*CreditPurchase, error) {
	if credits <= 0 {
		return nil, invalid("Montant invalide")
	}
	if method == "" {
		method = domain.PaymentOrangeMoney
	}
	if method != domain.PaymentOrangeMoney && method != domain.PaymentMobileMoney {
		return nil, invalid("credits are paid with OM or MOMO")
	}
	price := credits * s.creditPrice()
	resp, err := s.payments.InitiatePayment(ctx, payment.PaymentRequest{
		UserID:      caller.UserID,
		Amount:      price,
		Currency:    domain.DefaultCurrency,
		Method:      method,
		Description: fmt.Sprintf("%d credits", credits),
	})
	if err != nil {
		return nil, fmt.Errorf("payment: %w", err)
	}
	balance, err := s.users.AddCredits(caller.UserID, credits)
	if err != nil {
		return nil, notFoundAs(err, "profile")
	}
	s.log.Info("credits purchased",
		zap.Uint("user_id", caller.UserID),
		zap.Int64("credits", credits),
		zap.String("reference", resp.Reference))
	return &CreditPurchase{Credits: credits, Price: price, Reference: resp.Reference, NewBalance: balance}, nil
}

func (s *BoostService) List(ctx context.Context, caller domain.Caller, limit, offset int) ([]models.Boost, error) {
	limit, offset = ClampPage(limit, offset)
	return s.boosts.ListByOwner(caller.UserID, limit, offset)
}

func (s *BoostService) ListAll(ctx context.Context, caller domain.Caller, limit, offset int) ([]models.Boost, error) {
	if !caller.IsStaff() {
		return nil, forbidden("moderator role required")
	}
	limit, offset = ClampPage(limit, offset)
	return s.boosts.ListAll(limit, offset)
}

// ExpireDue ends boosts whose period is over.
func (s *BoostService) ExpireDue(ctx context.Context) (int64, error) {
	return s.boosts.ExpireDue(s.now())
}

// RunExpiry sweeps expired boosts every interval until ctx is cancelled.
func (s *BoostService) RunExpiry(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpireDue(ctx)
			if err != nil {
				s.log.Error("boost expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("boosts expired", zap.Int64("count", n))
			}
		}
	}
}
