// AngelaMos | 2026
// service.go

package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atelierloc/backoffice/internal/core"
	"github.com/atelierloc/backoffice/internal/pricing"
	"github.com/atelierloc/backoffice/internal/signlink"
)

type ServiceConfig struct {
	VATRatio         float64
	SignLinkBasePath string
	SignLinkTTL      time.Duration
}

type Service struct {
	repo  Repository
	links signlink.Store
	cfg   ServiceConfig
}

func NewService(
	repo Repository,
	links signlink.Store,
	cfg ServiceConfig,
) *Service {
	return &Service{
		repo:  repo,
		links: links,
		cfg:   cfg,
	}
}

// Create opens a new contract in draft with a freshly derived financial
// snapshot.
func (s *Service) Create(
	ctx context.Context,
	req CreateContractRequest,
) (*Record, error) {
	rec := &Record{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		Status:     StatusDraft,
	}
	req.Terms.applyTo(rec)
	rec.ApplySnapshot(pricing.Recompute(rec.Terms(), rec.Snapshot(), s.cfg.VATRatio))

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListContractsParams,
) ([]Record, int, error) {
	return s.repo.List(ctx, params)
}

// Permissions exposes the policy standalone so presentation layers can
// pre-disable controls without attempting the action.
func (s *Service) Permissions(role Role, status Status, deleted bool) PermissionSet {
	return Check(role, status, deleted)
}

// UpdateTerms replaces the rental terms and recomputes the financial
// snapshot. Gated on the edit permission for the contract's current state.
func (s *Service) UpdateTerms(
	ctx context.Context,
	id string,
	role Role,
	req UpdateTermsRequest,
) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	perm := Check(role, rec.Status, rec.IsDeleted())
	if !perm.CanEdit {
		return nil, denied("edit_terms", role, rec.Status)
	}

	req.Terms.applyTo(rec)
	rec.ApplySnapshot(pricing.Recompute(rec.Terms(), rec.Snapshot(), s.cfg.VATRatio))

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Service) GeneratePDF(
	ctx context.Context,
	id string,
	role Role,
) (*Record, error) {
	return s.transition(ctx, id, func(rec Record) (Record, error) {
		return GeneratePDF(rec, role)
	})
}

// RequestSignature issues a single-use sign-link token, stamps its hash on
// the contract and returns the link to hand to the signing party.
func (s *Service) RequestSignature(
	ctx context.Context,
	id string,
	role Role,
) (*Record, string, error) {
	token, err := core.GenerateSignLinkToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate sign link token: %w", err)
	}

	if err := s.links.Issue(ctx, token, s.cfg.SignLinkTTL); err != nil {
		return nil, "", err
	}

	rec, err := s.transition(ctx, id, func(rec Record) (Record, error) {
		return RequestSignature(rec, role, core.HashToken(token))
	})
	if err != nil {
		// orphaned issue marker simply expires with its TTL
		return nil, "", err
	}

	return rec, s.cfg.SignLinkBasePath + "/" + token, nil
}

func (s *Service) ReturnToDraft(
	ctx context.Context,
	id string,
	role Role,
) (*Record, error) {
	return s.transition(ctx, id, func(rec Record) (Record, error) {
		return ReturnToDraft(rec, role)
	})
}

func (s *Service) UploadSignedCopy(
	ctx context.Context,
	id string,
	role Role,
	documentURL string,
) (*Record, error) {
	return s.transition(ctx, id, func(rec Record) (Record, error) {
		return UploadSignedCopy(rec, role, documentURL)
	})
}

func (s *Service) Cancel(
	ctx context.Context,
	id string,
	role Role,
) (*Record, error) {
	return s.transition(ctx, id, func(rec Record) (Record, error) {
		return Cancel(rec, role)
	})
}

func (s *Service) Disable(
	ctx context.Context,
	id string,
	role Role,
	actor string,
) (*Record, error) {
	return s.transition(ctx, id, func(rec Record) (Record, error) {
		return Disable(rec, role, actor, time.Now().UTC())
	})
}

func (s *Service) Reactivate(
	ctx context.Context,
	id string,
	role Role,
) (*Record, error) {
	return s.transition(ctx, id, func(rec Record) (Record, error) {
		return Reactivate(rec, role)
	})
}

// ClientSign executes the electronic signature for the external signing
// party. The token is spent atomically in the sign-link store before the
// transition is persisted, so a replayed or double-submitted link is
// rejected and the contract stays pending signature.
func (s *Service) ClientSign(ctx context.Context, token string) (*Record, error) {
	rec, err := s.repo.GetBySignLinkTokenHash(ctx, core.HashToken(token))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, &Rejection{
				Kind:   RejectionTokenReused,
				Action: ActionClientSign,
			}
		}
		return nil, err
	}

	updated, err := ClientSign(*rec, token)
	if err != nil {
		return nil, err
	}

	consumed, err := s.links.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, &Rejection{
			Kind:   RejectionTokenReused,
			Action: ActionClientSign,
			Status: rec.Status,
		}
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		if relErr := s.links.Release(ctx, token); relErr != nil {
			slog.Warn("failed to release sign link token",
				"contract_id", rec.ID,
				"error", relErr,
			)
		}
		return nil, err
	}

	return &updated, nil
}

func (s *Service) MarkAccountPaid(
	ctx context.Context,
	id string,
	role Role,
) (*Record, error) {
	return s.markPaid(ctx, id, role, ActionMarkAccountPaid, pricing.MarkAccountPaid)
}

func (s *Service) MarkCautionPaid(
	ctx context.Context,
	id string,
	role Role,
) (*Record, error) {
	return s.markPaid(ctx, id, role, ActionMarkCautionPaid, pricing.MarkCautionPaid)
}

// markPaid settles a deposit in full. Like cancellation this is gated on
// staff membership only.
func (s *Service) markPaid(
	ctx context.Context,
	id string,
	role Role,
	action Action,
	settle func(pricing.Snapshot) pricing.Snapshot,
) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !role.IsStaff() {
		return nil, denied(action, role, rec.Status)
	}

	rec.ApplySnapshot(settle(rec.Snapshot()))

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// CompleteExpired runs the time-driven end-of-rental transition over every
// signed contract whose window has elapsed. Individual failures are logged
// and skipped so one bad row never stalls the sweep.
func (s *Service) CompleteExpired(ctx context.Context, now time.Time) (int, error) {
	records, err := s.repo.ListCompletable(ctx, now)
	if err != nil {
		return 0, err
	}

	completed := 0
	for i := range records {
		updated, err := CompleteRental(records[i], now)
		if err != nil {
			// not yet past the day after end_at, or raced into another state
			continue
		}

		if err := s.repo.Update(ctx, &updated); err != nil {
			slog.Warn("failed to complete contract",
				"contract_id", records[i].ID,
				"error", err,
			)
			continue
		}
		completed++
	}

	return completed, nil
}

// transition loads, applies one state-machine step and persists. The
// machine works on a copy, so a rejection leaves nothing half-applied.
func (s *Service) transition(
	ctx context.Context,
	id string,
	step func(Record) (Record, error),
) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := step(*rec)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}
