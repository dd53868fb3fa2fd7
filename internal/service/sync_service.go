package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/budgetly/budgetly-core/internal/websocket"
	"github.com/rs/zerolog/log"
)

// RemoteApplier replays a queued mutation against the remote service
type RemoteApplier interface {
	ApplyOperation(ctx context.Context, op *domain.SyncOperation) error
}

// SyncService guarantees eventual delivery of offline-originated mutations.
// Draining is triggered by offline-to-online connectivity transitions and
// processes the queue strictly in insertion order; a failed entry halts the
// pass so a later mutation can never apply before an earlier one.
type SyncService struct {
	queueRepo domain.SyncQueueRepository
	calcRepo  domain.CalculationRepository
	applier   RemoteApplier
	publisher websocket.EventPublisher

	mu        sync.Mutex
	online    bool
	lastDrain time.Time
}

// NewSyncService creates a new SyncService. The initial state is offline
// until the first successful connectivity probe.
func NewSyncService(
	queueRepo domain.SyncQueueRepository,
	calcRepo domain.CalculationRepository,
	applier RemoteApplier,
	publisher websocket.EventPublisher,
) *SyncService {
	return &SyncService{
		queueRepo: queueRepo,
		calcRepo:  calcRepo,
		applier:   applier,
		publisher: publisher,
	}
}

// IsOnline reports the last observed connectivity state
func (s *SyncService) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// SetOnline records a connectivity observation. The offline-to-online edge
// triggers a drain; all other observations only update state.
func (s *SyncService) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	wasOnline := s.online
	s.online = online
	s.mu.Unlock()

	if wasOnline == online {
		return
	}

	log.Info().Bool("online", online).Msg("Connectivity changed")
	s.publisher.Publish(websocket.ConnectivityChanged(map[string]bool{"online": online}))

	if online {
		if _, err := s.Drain(ctx); err != nil {
			log.Warn().Err(err).Msg("Drain after connectivity restore failed")
		}
	}
}

// DrainResult summarizes a single drain pass
type DrainResult struct {
	Delivered int `json:"delivered"`
	Pending   int `json:"pending"`
}

// Drain processes pending operations in FIFO order. On the first failure
// the entry's attempt counter is incremented and the pass stops; delivery
// resumes on the next connectivity transition or manual drain.
func (s *SyncService) Drain(ctx context.Context) (*DrainResult, error) {
	ops, err := s.queueRepo.ListPending()
	if err != nil {
		return nil, err
	}

	result := &DrainResult{Pending: len(ops)}
	for _, op := range ops {
		if err := s.applier.ApplyOperation(ctx, op); err != nil {
			log.Warn().
				Err(err).
				Str("operation_id", op.ID).
				Str("collection", op.TargetCollection).
				Int("attempts", op.Attempts+1).
				Msg("Sync operation failed, halting drain")
			if incErr := s.queueRepo.IncrementAttempts(op.ID); incErr != nil {
				log.Error().Err(incErr).Str("operation_id", op.ID).Msg("Failed to record sync attempt")
			}
			s.mu.Lock()
			s.online = false
			s.mu.Unlock()
			break
		}

		// A crash between here and Remove causes a resend; the remote
		// deduplicates on the operation id.
		if err := s.queueRepo.Remove(op.ID); err != nil {
			return result, err
		}
		s.confirmDelivery(op)
		result.Delivered++
		result.Pending--
	}

	s.mu.Lock()
	s.lastDrain = time.Now().UTC()
	s.mu.Unlock()

	if result.Delivered > 0 {
		log.Info().Int("delivered", result.Delivered).Int("pending", result.Pending).Msg("Sync queue drained")
		s.publisher.Publish(websocket.SyncDrained(result))
	}
	return result, nil
}

// confirmDelivery applies local follow-ups after a confirmed remote write
func (s *SyncService) confirmDelivery(op *domain.SyncOperation) {
	if op.TargetCollection != domain.CollectionCalculations || op.Action != domain.SyncActionCreate {
		return
	}

	var ref struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(op.Payload, &ref); err != nil || ref.ID == 0 {
		log.Warn().Str("operation_id", op.ID).Msg("Delivered calculation payload has no record id")
		return
	}
	if err := s.calcRepo.MarkSynced(ref.ID); err != nil {
		log.Warn().Err(err).Int64("record_id", ref.ID).Msg("Failed to mark record synced")
	}
}

// SyncStatus is the externally visible queue/connectivity state
type SyncStatus struct {
	Online    bool       `json:"online"`
	Pending   int        `json:"pending"`
	LastDrain *time.Time `json:"lastDrain,omitempty"`
}

// Status reports connectivity, pending count and the last drain time
func (s *SyncService) Status() (*SyncStatus, error) {
	pending, err := s.queueRepo.Count()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := &SyncStatus{Online: s.online, Pending: pending}
	if !s.lastDrain.IsZero() {
		t := s.lastDrain
		status.LastDrain = &t
	}
	return status, nil
}
