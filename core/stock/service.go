package stock

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/livecart/stock-engine/core"
	"github.com/livecart/stock-engine/lock"
)

func NewService(repo Repository, q Queue, locker lock.Locker) *service {
	return &service{
		repo:   repo,
		queue:  q,
		locker: locker,
	}
}

type Service interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, ownerID, productID int64) (Product, error)
	GetAllProducts(ctx context.Context, ownerID int64, limit, offset int) ([]Product, error)
	CheckAvailability(ctx context.Context, ownerID, productID int64) (Availability, error)

	Reserve(ctx context.Context, rr ReservationRequest) (Reservation, error)
	Commit(ctx context.Context, ownerID int64, reservationID uint64) error
	Release(ctx context.Context, ownerID int64, reservationID uint64) error
	CommitBySourceKey(ctx context.Context, ownerID int64, source, sourceKey string) error
	ReleaseBySourceKey(ctx context.Context, ownerID int64, source, sourceKey string) error
	CommitMany(ctx context.Context, ownerID int64, reservationIDs []uint64) error
	AdjustStock(ctx context.Context, ar AdjustmentRequest) error

	GetReservation(ctx context.Context, ownerID int64, reservationID uint64) (Reservation, error)
	GetReservationsBySource(ctx context.Context, ownerID int64, source, sourceKey string) ([]Reservation, error)
	GetMovements(ctx context.Context, ownerID, productID int64, limit, offset int) ([]Movement, error)
}

type service struct {
	repo   Repository
	queue  Queue
	locker lock.Locker
}

func (s *service) CreateProduct(ctx context.Context, product *Product) error {
	const funcName = "CreateProduct"

	log.Info().
		Str("func", funcName).
		Int64("ownerId", product.OwnerID).
		Str("sku", product.Sku).
		Msg("creating product")

	if product.Sku == "" {
		return errors.New("sku is required")
	}

	product.Stock = 0
	product.Reserved = 0
	product.Created = time.Now()

	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, ownerID, productID int64) (Product, error) {
	product, err := s.repo.GetProduct(ctx, ownerID, productID)
	if err != nil {
		return product, errors.WithStack(err)
	}
	return product, nil
}

func (s *service) GetAllProducts(ctx context.Context, ownerID int64, limit, offset int) ([]Product, error) {
	return s.repo.GetAllProducts(ctx, ownerID, limit, offset)
}

func (s *service) CheckAvailability(ctx context.Context, ownerID, productID int64) (Availability, error) {
	product, err := s.repo.GetProduct(ctx, ownerID, productID)
	if err != nil {
		return Availability{}, errors.WithStack(err)
	}

	return Availability{
		ProductID: product.ID,
		Stock:     product.Stock,
		Reserved:  product.Reserved,
		Available: product.Available(),
	}, nil
}

func (s *service) Reserve(ctx context.Context, rr ReservationRequest) (Reservation, error) {
	const funcName = "Reserve"

	log.Info().
		Str("func", funcName).
		Int64("ownerId", rr.OwnerID).
		Int64("productId", rr.ProductID).
		Int64("clientId", rr.ClientID).
		Int64("quantity", rr.Quantity).
		Str("source", rr.Source).
		Str("sourceKey", rr.SourceKey).
		Msg("reserving stock")

	if rr.Quantity < 1 {
		return Reservation{}, errors.New("quantity must be greater than zero")
	}
	if rr.Source == "" || rr.SourceKey == "" {
		return Reservation{}, errors.New("source and sourceKey are required")
	}

	handle, err := s.acquireProduct(ctx, rr.OwnerID, rr.ProductID)
	if err != nil {
		return Reservation{}, err
	}
	defer handle.Release()

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	product, err := s.repo.GetProduct(ctx, rr.OwnerID, rr.ProductID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	active, err := s.repo.GetActiveBySource(ctx, rr.OwnerID, rr.Source, rr.SourceKey, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Reservation{}, errors.WithStack(err)
	}
	if len(active) > 0 {
		log.Debug().Str("func", funcName).Str("sourceKey", rr.SourceKey).Msg("reservation already exists for source, returning it")
		if err = tx.Commit(ctx); err != nil {
			return Reservation{}, errors.WithStack(err)
		}
		return active[0], nil
	}

	if product.Available() < rr.Quantity {
		err = errors.WithStack(ErrInsufficientStock)
		return Reservation{}, err
	}

	res := Reservation{
		OwnerID:    rr.OwnerID,
		ProductID:  rr.ProductID,
		ClientID:   rr.ClientID,
		Quantity:   rr.Quantity,
		Status:     StatusReserved,
		Source:     rr.Source,
		SourceKey:  rr.SourceKey,
		ReservedAt: time.Now(),
	}

	if err = s.repo.SaveReservation(ctx, &res, core.UpdateOptions{Tx: tx}); err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	product.Reserved += rr.Quantity
	if err = s.repo.SaveProductCounters(ctx, product, core.UpdateOptions{Tx: tx}); err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return Reservation{}, errors.WithStack(err)
	}

	s.recordMovement(ctx, Movement{
		OwnerID:   rr.OwnerID,
		ProductID: rr.ProductID,
		Type:      MovementReserve,
		Quantity:  rr.Quantity,
		Source:    rr.Source,
		SourceKey: rr.SourceKey,
		Metadata:  reservationMeta(res.ID),
	})
	s.publishAvailability(ctx, product)
	s.publishReservation(ctx, res)

	return res, nil
}

func (s *service) Commit(ctx context.Context, ownerID int64, reservationID uint64) error {
	const funcName = "Commit"

	log.Info().
		Str("func", funcName).
		Int64("ownerId", ownerID).
		Uint64("reservationId", reservationID).
		Msg("committing reservation")

	return s.applySet(ctx, ownerID, []uint64{reservationID}, false, s.commitReservation)
}

func (s *service) Release(ctx context.Context, ownerID int64, reservationID uint64) error {
	const funcName = "Release"

	log.Info().
		Str("func", funcName).
		Int64("ownerId", ownerID).
		Uint64("reservationId", reservationID).
		Msg("releasing reservation")

	return s.applySet(ctx, ownerID, []uint64{reservationID}, false, s.releaseReservation)
}

func (s *service) CommitMany(ctx context.Context, ownerID int64, reservationIDs []uint64) error {
	const funcName = "CommitMany"

	log.Info().
		Str("func", funcName).
		Int64("ownerId", ownerID).
		Int("count", len(reservationIDs)).
		Msg("committing reservation batch")

	if len(reservationIDs) == 0 {
		return errors.New("at least one reservation id is required")
	}

	return s.applySet(ctx, ownerID, reservationIDs, false, s.commitReservation)
}

func (s *service) CommitBySourceKey(ctx context.Context, ownerID int64, source, sourceKey string) error {
	const funcName = "CommitBySourceKey"

	log.Info().
		Str("func", funcName).
		Int64("ownerId", ownerID).
		Str("source", source).
		Str("sourceKey", sourceKey).
		Msg("committing reservations by source")

	return s.applyBySource(ctx, ownerID, source, sourceKey, s.commitReservation)
}

func (s *service) ReleaseBySourceKey(ctx context.Context, ownerID int64, source, sourceKey string) error {
	const funcName = "ReleaseBySourceKey"

	log.Info().
		Str("func", funcName).
		Int64("ownerId", ownerID).
		Str("source", source).
		Str("sourceKey", sourceKey).
		Msg("releasing reservations by source")

	return s.applyBySource(ctx, ownerID, source, sourceKey, s.releaseReservation)
}

func (s *service) AdjustStock(ctx context.Context, ar AdjustmentRequest) error {
	const funcName = "AdjustStock"

	log.Info().
		Str("func", funcName).
		Int64("ownerId", ar.OwnerID).
		Int64("productId", ar.ProductID).
		Int64("quantity", ar.Quantity).
		Str("type", string(ar.Type)).
		Str("source", ar.Source).
		Msg("adjusting stock")

	if ar.Quantity < 1 {
		return errors.New("quantity must be greater than zero")
	}
	if ar.Type != MovementIn && ar.Type != MovementOut {
		return errors.New("adjustment type must be in or out")
	}

	handle, err := s.acquireProduct(ctx, ar.OwnerID, ar.ProductID)
	if err != nil {
		return err
	}
	defer handle.Release()

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	product, err := s.repo.GetProduct(ctx, ar.OwnerID, ar.ProductID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return errors.WithStack(err)
	}

	if ar.Type == MovementIn {
		product.Stock += ar.Quantity
	} else {
		// Outbound corrections validate against available, not raw stock:
		// stock must never drop below the units held by live reservations.
		if product.Available() < ar.Quantity {
			err = errors.WithStack(ErrInsufficientStock)
			return err
		}
		product.Stock -= ar.Quantity
	}

	if err = s.repo.SaveProductCounters(ctx, product, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithStack(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}

	s.recordMovement(ctx, Movement{
		OwnerID:   ar.OwnerID,
		ProductID: ar.ProductID,
		Type:      ar.Type,
		Quantity:  ar.Quantity,
		Source:    ar.Source,
		SourceKey: ar.SourceKey,
		Metadata:  ar.Metadata,
	})
	s.publishAvailability(ctx, product)

	return nil
}

func (s *service) GetReservation(ctx context.Context, ownerID int64, reservationID uint64) (Reservation, error) {
	res, err := s.repo.GetReservation(ctx, ownerID, reservationID)
	if err != nil {
		return res, errors.WithStack(err)
	}
	return res, nil
}

func (s *service) GetReservationsBySource(ctx context.Context, ownerID int64, source, sourceKey string) ([]Reservation, error) {
	return s.repo.GetActiveBySource(ctx, ownerID, source, sourceKey)
}

func (s *service) GetMovements(ctx context.Context, ownerID, productID int64, limit, offset int) ([]Movement, error) {
	return s.repo.GetMovements(ctx, ownerID, productID, limit, offset)
}

// applyResult carries everything a committed transition needs to report
// after the transaction lands: the ledger row, the fresh counters, and the
// transitioned reservation.
type applyResult struct {
	movement Movement
	product  Product
	res      Reservation
}

type applyFunc func(ctx context.Context, tx core.Transaction, ownerID int64, reservationID uint64) (applyResult, error)

// applySet runs one or more reservation transitions in a single all-or-nothing
// transaction. Advisory locks for the distinct products touched are taken in
// ascending id order so concurrent batches cannot deadlock on each other.
// With skipTerminal set, reservations that are no longer in the reserved
// state are skipped instead of failing the batch; that is what makes the
// source-key variants idempotent under retries.
func (s *service) applySet(ctx context.Context, ownerID int64, reservationIDs []uint64, skipTerminal bool, apply applyFunc) error {
	productIDs, err := s.distinctProducts(ctx, ownerID, reservationIDs)
	if err != nil {
		return err
	}

	handles := make([]lock.Handle, 0, len(productIDs))
	defer func() {
		for _, h := range handles {
			h.Release()
		}
	}()

	for _, productID := range productIDs {
		h, err := s.acquireProduct(ctx, ownerID, productID)
		if err != nil {
			return err
		}
		handles = append(handles, h)
	}

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	results := make([]applyResult, 0, len(reservationIDs))
	for _, reservationID := range reservationIDs {
		result, applyErr := apply(ctx, tx, ownerID, reservationID)
		if applyErr != nil {
			if skipTerminal && errors.Is(applyErr, ErrInvalidReservationState) {
				continue
			}
			err = applyErr
			return err
		}
		results = append(results, result)
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}

	for _, result := range results {
		s.recordMovement(ctx, result.movement)
		s.publishAvailability(ctx, result.product)
		s.publishReservation(ctx, result.res)
	}

	return nil
}

func (s *service) applyBySource(ctx context.Context, ownerID int64, source, sourceKey string, apply applyFunc) error {
	active, err := s.repo.GetActiveBySource(ctx, ownerID, source, sourceKey)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(active) == 0 {
		log.Debug().
			Int64("ownerId", ownerID).
			Str("source", source).
			Str("sourceKey", sourceKey).
			Msg("no active reservations for source, nothing to do")
		return nil
	}

	reservationIDs := make([]uint64, 0, len(active))
	for _, res := range active {
		reservationIDs = append(reservationIDs, res.ID)
	}

	return s.applySet(ctx, ownerID, reservationIDs, true, apply)
}

// commitReservation converts a hold into a permanent deduction: stock and
// reserved both drop by the reservation quantity. Counters are re-read FOR
// UPDATE inside the caller's transaction, never trusted from an earlier read.
func (s *service) commitReservation(ctx context.Context, tx core.Transaction, ownerID int64, reservationID uint64) (applyResult, error) {
	res, err := s.repo.GetReservation(ctx, ownerID, reservationID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return applyResult{}, errors.WithStack(err)
	}
	if res.Status != StatusReserved {
		return applyResult{}, errors.WithStack(ErrInvalidReservationState)
	}

	product, err := s.repo.GetProduct(ctx, ownerID, res.ProductID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return applyResult{}, errors.WithStack(err)
	}

	// Should not occur given the invariant, but checked rather than assumed.
	if product.Stock < res.Quantity {
		return applyResult{}, errors.WithStack(ErrInsufficientStock)
	}
	if product.Reserved < res.Quantity {
		return applyResult{}, errors.WithStack(ErrCounterDrift)
	}

	now := time.Now()
	product.Stock -= res.Quantity
	product.Reserved -= res.Quantity

	if err = s.repo.SaveProductCounters(ctx, product, core.UpdateOptions{Tx: tx}); err != nil {
		return applyResult{}, errors.WithStack(err)
	}
	if err = s.repo.TransitionReservation(ctx, ownerID, res.ID, StatusCommitted, now, core.UpdateOptions{Tx: tx}); err != nil {
		return applyResult{}, errors.WithStack(err)
	}

	res.Status = StatusCommitted
	res.CommittedAt = &now

	return applyResult{
		movement: Movement{
			OwnerID:   ownerID,
			ProductID: res.ProductID,
			Type:      MovementCommit,
			Quantity:  res.Quantity,
			Source:    res.Source,
			SourceKey: res.SourceKey,
			Metadata:  reservationMeta(res.ID),
		},
		product: product,
		res:     res,
	}, nil
}

// releaseReservation abandons a hold: reserved drops, stock is untouched.
func (s *service) releaseReservation(ctx context.Context, tx core.Transaction, ownerID int64, reservationID uint64) (applyResult, error) {
	res, err := s.repo.GetReservation(ctx, ownerID, reservationID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return applyResult{}, errors.WithStack(err)
	}
	if res.Status != StatusReserved {
		return applyResult{}, errors.WithStack(ErrInvalidReservationState)
	}

	product, err := s.repo.GetProduct(ctx, ownerID, res.ProductID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return applyResult{}, errors.WithStack(err)
	}

	if product.Reserved < res.Quantity {
		return applyResult{}, errors.WithStack(ErrCounterDrift)
	}

	now := time.Now()
	product.Reserved -= res.Quantity

	if err = s.repo.SaveProductCounters(ctx, product, core.UpdateOptions{Tx: tx}); err != nil {
		return applyResult{}, errors.WithStack(err)
	}
	if err = s.repo.TransitionReservation(ctx, ownerID, res.ID, StatusReleased, now, core.UpdateOptions{Tx: tx}); err != nil {
		return applyResult{}, errors.WithStack(err)
	}

	res.Status = StatusReleased
	res.ReleasedAt = &now

	return applyResult{
		movement: Movement{
			OwnerID:   ownerID,
			ProductID: res.ProductID,
			Type:      MovementUnreserve,
			Quantity:  res.Quantity,
			Source:    res.Source,
			SourceKey: res.SourceKey,
			Metadata:  reservationMeta(res.ID),
		},
		product: product,
		res:     res,
	}, nil
}

func (s *service) distinctProducts(ctx context.Context, ownerID int64, reservationIDs []uint64) ([]int64, error) {
	seen := make(map[int64]bool, len(reservationIDs))
	productIDs := make([]int64, 0, len(reservationIDs))

	for _, reservationID := range reservationIDs {
		res, err := s.repo.GetReservation(ctx, ownerID, reservationID)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if !seen[res.ProductID] {
			seen[res.ProductID] = true
			productIDs = append(productIDs, res.ProductID)
		}
	}

	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })
	return productIDs, nil
}

func (s *service) acquireProduct(ctx context.Context, ownerID, productID int64) (lock.Handle, error) {
	handle, err := s.locker.Acquire(ctx, lockKey(ownerID, productID))
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, errors.WithStack(ErrLockTimeout)
		}
		return nil, errors.WithStack(err)
	}
	return handle, nil
}

// recordMovement appends to the ledger after the primary transaction has
// landed. The ledger is diagnostic, so a failed append is logged and the
// operation still counts.
func (s *service) recordMovement(ctx context.Context, m Movement) {
	m.Created = time.Now()
	if err := s.repo.SaveMovement(ctx, &m); err != nil {
		log.Error().
			Err(err).
			Int64("productId", m.ProductID).
			Str("type", string(m.Type)).
			Msg("failed to append stock movement")
	}
}

func (s *service) publishAvailability(ctx context.Context, product Product) {
	availability := Availability{
		ProductID: product.ID,
		Stock:     product.Stock,
		Reserved:  product.Reserved,
		Available: product.Available(),
	}
	if err := s.queue.PublishAvailability(ctx, availability); err != nil {
		log.Error().Err(err).Int64("productId", product.ID).Msg("failed to publish availability")
	}
}

func (s *service) publishReservation(ctx context.Context, res Reservation) {
	if err := s.queue.PublishReservation(ctx, res); err != nil {
		log.Error().Err(err).Uint64("reservationId", res.ID).Msg("failed to publish reservation")
	}
}

func lockKey(ownerID, productID int64) string {
	return fmt.Sprintf("%d:%d", ownerID, productID)
}

func reservationMeta(reservationID uint64) map[string]string {
	return map[string]string{"reservationId": strconv.FormatUint(reservationID, 10)}
}
