package service

import (
	"context"
	"fmt"
	"time"

	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/core/ports"
	"chainpay-gateway/pkg/apperror"
	"chainpay-gateway/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SettlementServiceImpl implements ports.SettlementService.
//
// Every terminal transition is a conditional update predicated on
// status = pending; the repository reports rows affected, so of two
// competing writers exactly one wins and the loser observes the row it
// lost to. There is no in-process locking to defeat with a second
// replica.
type SettlementServiceImpl struct {
	paymentRepo  ports.PaymentRepository
	dispatcher   ports.WebhookDispatcher
	expiryWindow time.Duration
	log          zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	paymentRepo ports.PaymentRepository,
	dispatcher ports.WebhookDispatcher,
	expiryWindow time.Duration,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		paymentRepo:  paymentRepo,
		dispatcher:   dispatcher,
		expiryWindow: expiryWindow,
		log:          log,
	}
}

// Create accepts a new payment request in pending state.
func (s *SettlementServiceImpl) Create(ctx context.Context, params ports.CreatePaymentParams) (*domain.PaymentRequest, error) {
	if !params.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	network, ok := domain.ParseNetwork(params.Network)
	if !ok {
		return nil, apperror.ErrUnsupportedNetwork(params.Network)
	}
	if params.ToAddress != "" && !domain.ValidAddress(network, params.ToAddress) {
		return nil, apperror.ErrInvalidAddress(string(network))
	}
	currency := params.Currency
	if currency == "" {
		currency = network.Symbol()
	}

	now := time.Now().UTC()
	payment := &domain.PaymentRequest{
		ID:          uuid.New(),
		MerchantID:  params.MerchantID,
		Amount:      params.Amount,
		Currency:    currency,
		Network:     network,
		Description: params.Description,
		ToAddress:   params.ToAddress,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create payment: %w", err))
	}

	metrics.PaymentsCreated.WithLabelValues(string(network)).Inc()
	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("network", string(network)).
		Str("amount", payment.Amount.String()).
		Msg("payment request created")

	return payment, nil
}

// SelectMethod changes the settlement method while the request is
// pending. On a terminal request it returns the stored row unchanged,
// so a payer's retried call never errors.
func (s *SettlementServiceImpl) SelectMethod(ctx context.Context, merchantID, id uuid.UUID, params ports.SelectMethodParams) (*domain.PaymentRequest, error) {
	network, ok := domain.ParseNetwork(params.Network)
	if !ok {
		return nil, apperror.ErrUnsupportedNetwork(params.Network)
	}
	if !domain.ValidAddress(network, params.ToAddress) {
		return nil, apperror.ErrInvalidAddress(string(network))
	}
	if params.Amount != nil && !params.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	currency := params.Currency
	if currency == "" {
		currency = network.Symbol()
	}

	if err := s.checkOwner(ctx, merchantID, id); err != nil {
		return nil, err
	}

	rows, err := s.paymentRepo.UpdateMethodIfPending(ctx, id, network, params.ToAddress, currency, params.Amount)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update method: %w", err))
	}

	payment, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if rows == 0 && !payment.IsTerminal() {
		// pending but unmodified means the row vanished between the
		// update and the read; treat as not found
		return nil, apperror.ErrNotFound("payment request")
	}
	return payment, nil
}

// Complete moves a pending request to completed, recording the
// transaction hash, and notifies the merchant. Exactly one caller wins;
// the rest get a conflict carrying the winner's state.
func (s *SettlementServiceImpl) Complete(ctx context.Context, merchantID, id uuid.UUID, txHash string) (*domain.PaymentRequest, error) {
	if txHash == "" {
		return nil, apperror.Validation("transaction hash is required")
	}

	if err := s.checkOwner(ctx, merchantID, id); err != nil {
		return nil, err
	}

	rows, err := s.paymentRepo.CompleteIfPending(ctx, id, txHash)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("complete payment: %w", err))
	}

	payment, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperror.ErrConflict(fmt.Sprintf("payment request is already %s", payment.Status))
	}

	metrics.PaymentsTransitioned.WithLabelValues(string(domain.StatusCompleted)).Inc()
	s.log.Info().
		Str("payment_id", id.String()).
		Str("tx_hash", txHash).
		Msg("payment completed")

	s.notify(ctx, id)
	return payment, nil
}

// Expire forces a single stale pending request to failed.
func (s *SettlementServiceImpl) Expire(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error) {
	threshold := time.Now().UTC().Add(-s.expiryWindow)

	rows, err := s.paymentRepo.FailIfPending(ctx, id, threshold)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("expire payment: %w", err))
	}

	payment, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		if payment.IsTerminal() {
			return nil, apperror.ErrConflict(fmt.Sprintf("payment request is already %s", payment.Status))
		}
		return nil, apperror.Validation("payment request is not stale yet")
	}

	metrics.PaymentsTransitioned.WithLabelValues(string(domain.StatusFailed)).Inc()
	s.log.Info().Str("payment_id", id.String()).Msg("payment expired")

	s.notify(ctx, id)
	return payment, nil
}

// SweepExpired fails every pending request older than the expiry
// window. The bulk update is the fast path; when it is unavailable the
// sweep degrades to failing requests one at a time, so a partial sweep
// still makes progress.
func (s *SettlementServiceImpl) SweepExpired(ctx context.Context) (int64, error) {
	threshold := time.Now().UTC().Add(-s.expiryWindow)

	// listed before the update so swept merchants can be notified
	stale, listErr := s.listStale(ctx, threshold)
	if listErr != nil {
		s.log.Warn().Err(listErr).Msg("sweep: listing stale requests failed")
	}

	count, err := s.paymentRepo.FailStale(ctx, threshold, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("sweep: bulk update failed, failing one at a time")
		if listErr != nil {
			return 0, apperror.ErrDatabaseError(fmt.Errorf("sweep: %w", err))
		}
		count = 0
		for _, p := range stale {
			rows, perErr := s.paymentRepo.FailIfPending(ctx, p.ID, threshold)
			if perErr != nil {
				s.log.Error().Err(perErr).Str("payment_id", p.ID.String()).Msg("sweep: fail request")
				continue
			}
			if rows == 1 {
				count++
				s.notify(ctx, p.ID)
			}
		}
	} else if listErr == nil {
		for _, p := range stale {
			s.notify(ctx, p.ID)
		}
	}

	if count > 0 {
		metrics.SweepFailed.Add(float64(count))
		metrics.PaymentsTransitioned.WithLabelValues(string(domain.StatusFailed)).Add(float64(count))
		s.log.Info().Int64("count", count).Msg("expiry sweep completed")
	}
	return count, nil
}

// GetByID returns the merchant's payment request.
func (s *SettlementServiceImpl) GetByID(ctx context.Context, merchantID, id uuid.UUID) (*domain.PaymentRequest, error) {
	payment, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.MerchantID != merchantID {
		return nil, apperror.ErrNotFound("payment request")
	}
	return payment, nil
}

// GetStatus returns just the request's current status.
func (s *SettlementServiceImpl) GetStatus(ctx context.Context, merchantID, id uuid.UUID) (domain.PaymentStatus, error) {
	payment, err := s.GetByID(ctx, merchantID, id)
	if err != nil {
		return "", err
	}
	return payment.Status, nil
}

// ListByMerchant returns all of the merchant's payment requests. Stale
// pending rows are failed first so the listing never shows an expired
// request as pending.
func (s *SettlementServiceImpl) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.PaymentRequest, error) {
	s.sweepMerchant(ctx, merchantID)

	payments, err := s.paymentRepo.ListByMerchant(ctx, merchantID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list payments: %w", err))
	}
	return payments, nil
}

// sweepMerchant lazily fails one merchant's stale pending requests.
// Best effort: a failure here degrades to listing the rows as-is.
func (s *SettlementServiceImpl) sweepMerchant(ctx context.Context, merchantID uuid.UUID) {
	threshold := time.Now().UTC().Add(-s.expiryWindow)

	stale, err := s.listStale(ctx, threshold)
	if err != nil {
		s.log.Warn().Err(err).Msg("lazy sweep: listing stale requests failed")
		return
	}

	count, err := s.paymentRepo.FailStale(ctx, threshold, &merchantID)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_id", merchantID.String()).Msg("lazy sweep failed")
		return
	}
	if count == 0 {
		return
	}

	metrics.SweepFailed.Add(float64(count))
	metrics.PaymentsTransitioned.WithLabelValues(string(domain.StatusFailed)).Add(float64(count))
	for _, p := range stale {
		if p.MerchantID == merchantID {
			s.notify(ctx, p.ID)
		}
	}
}

// checkOwner verifies the request belongs to the merchant before a
// mutation. Ownership never changes after creation, so the read cannot
// race the update that follows it. A foreign merchant gets not-found,
// never a hint the id exists.
func (s *SettlementServiceImpl) checkOwner(ctx context.Context, merchantID, id uuid.UUID) error {
	payment, err := s.getExisting(ctx, id)
	if err != nil {
		return err
	}
	if payment.MerchantID != merchantID {
		return apperror.ErrNotFound("payment request")
	}
	return nil
}

func (s *SettlementServiceImpl) getExisting(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil {
		return nil, apperror.ErrNotFound("payment request")
	}
	return payment, nil
}

func (s *SettlementServiceImpl) listStale(ctx context.Context, threshold time.Time) ([]domain.PaymentRequest, error) {
	pending, err := s.paymentRepo.ListByStatus(ctx, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	stale := pending[:0:0]
	for _, p := range pending {
		if p.CreatedAt.Before(threshold) {
			stale = append(stale, p)
		}
	}
	return stale, nil
}

// notify dispatches the status webhook. Delivery problems are recorded
// by the dispatcher and logged here; they never fail the transition
// that triggered them.
func (s *SettlementServiceImpl) notify(ctx context.Context, paymentID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	if _, err := s.dispatcher.Deliver(ctx, paymentID); err != nil {
		s.log.Warn().Err(err).Str("payment_id", paymentID.String()).Msg("webhook dispatch failed")
	}
}
