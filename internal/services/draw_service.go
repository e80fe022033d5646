package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"github.com/prizepool/draw-engine-backend/pkg/drawhash"
	"github.com/prizepool/draw-engine-backend/pkg/seedsource"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

// DrawServiceImpl handles the commit-then-reveal draw protocol: the snapshot
// is the commitment (entry set + hash published before any seed exists), the
// draw is the reveal (seed + derived winner), and verification replays the
// whole chain from stored inputs.
type DrawServiceImpl struct {
	txRunner        repositories.TxRunner
	competitionRepo repositories.CompetitionRepository
	ticketRepo      repositories.TicketAllocationRepository
	snapshotRepo    repositories.DrawSnapshotRepository
	drawRepo        repositories.DrawRepository
	auditRepo       repositories.DrawAuditLogRepository
	seedSource      seedsource.Source
	policy          models.EligibilityPolicy
}

// NewDrawService creates a new DrawServiceImpl. The eligibility policy is a
// configuration input, not a hardcoded rule.
func NewDrawService(
	txRunner repositories.TxRunner,
	competitionRepo repositories.CompetitionRepository,
	ticketRepo repositories.TicketAllocationRepository,
	snapshotRepo repositories.DrawSnapshotRepository,
	drawRepo repositories.DrawRepository,
	auditRepo repositories.DrawAuditLogRepository,
	seedSource seedsource.Source,
	policy models.EligibilityPolicy,
) *DrawServiceImpl {
	return &DrawServiceImpl{
		txRunner:        txRunner,
		competitionRepo: competitionRepo,
		ticketRepo:      ticketRepo,
		snapshotRepo:    snapshotRepo,
		drawRepo:        drawRepo,
		auditRepo:       auditRepo,
		seedSource:      seedSource,
		policy:          policy,
	}
}

// CreateSnapshot freezes the draw-eligible entry set of a closed competition.
// Taken exactly once: the unique snapshot-per-competition index rejects a
// second attempt.
func (s *DrawServiceImpl) CreateSnapshot(ctx context.Context, competitionID primitive.ObjectID, actor string) (*models.DrawSnapshot, error) {
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != models.CompetitionStatusClosed {
		slog.Warn("Snapshot rejected: competition not closed",
			"competitionId", competitionID, "status", competition.Status)
		return nil, models.ErrCompetitionNotClosed
	}

	var snapshot *models.DrawSnapshot
	err = s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		// The eligibility read belongs to the same unit as the snapshot
		// write: a reveal committing between the two would leave the frozen
		// set stale relative to its own policy.
		eligible, err := s.ticketRepo.FindEligible(txCtx, competitionID, s.policy)
		if err != nil {
			return fmt.Errorf("failed to collect eligible tickets: %w", err)
		}

		entries := make([]models.SnapshotEntry, 0, len(eligible))
		numbers := make([]int, 0, len(eligible))
		counts := map[string]int{}
		for _, ticket := range eligible {
			entries = append(entries, models.SnapshotEntry{
				TicketNumber: ticket.TicketNumber,
				UserID:       ticket.UserID,
				EntrySource:  ticket.EntrySource,
			})
			numbers = append(numbers, ticket.TicketNumber)
			counts[string(ticket.EntrySource)]++
		}

		snapshot = &models.DrawSnapshot{
			CompetitionID:  competitionID,
			Policy:         s.policy,
			Entries:        entries,
			TotalEntries:   len(entries),
			CountsBySource: counts,
			EntryHash:      drawhash.EntryHash(numbers),
			CreatedBy:      actor,
		}
		if err := s.snapshotRepo.Create(txCtx, snapshot); err != nil {
			return err
		}
		if err := s.competitionRepo.UpdateStatus(txCtx, competitionID, models.CompetitionStatusClosed, models.CompetitionStatusDrawing); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &models.DrawAuditLog{
			CompetitionID: competitionID,
			Action:        models.AuditSnapshotCreated,
			Actor:         actor,
			Detail: map[string]any{
				"totalEntries": snapshot.TotalEntries,
				"entryHash":    snapshot.EntryHash,
				"policy":       string(s.policy),
			},
		})
	})
	if err != nil {
		slog.Error("Snapshot creation failed", "error", err, "competitionId", competitionID)
		return nil, err
	}

	slog.Info("Snapshot created", "competitionId", competitionID,
		"entries", snapshot.TotalEntries, "entryHash", snapshot.EntryHash)
	return snapshot, nil
}

// ExecuteDraw runs the end draw over the stored snapshot. The whole sequence
// commits atomically: a crash mid-execution leaves either no Draw row or a
// complete one. Failures are surfaced to the operator and audited, never
// silently re-attempted; a second attempt with a new seed would break the
// fairness guarantee.
func (s *DrawServiceImpl) ExecuteDraw(ctx context.Context, competitionID primitive.ObjectID, actor string) (*models.Draw, error) {
	if _, err := s.drawRepo.FindByCompetitionID(ctx, competitionID); err == nil {
		return nil, models.ErrDrawAlreadyExecuted
	} else if !errors.Is(err, models.ErrDrawNotFound) {
		return nil, err
	}

	snapshot, err := s.snapshotRepo.FindByCompetitionID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if snapshot.TotalEntries == 0 {
		return nil, fmt.Errorf("snapshot for competition %s has no entries: %w",
			competitionID.Hex(), drawhash.ErrNoEntries)
	}

	seed, err := s.seedSource.Fetch(ctx)
	if err != nil {
		s.auditFailure(ctx, competitionID, actor, fmt.Sprintf("seed fetch failed: %v", err))
		return nil, fmt.Errorf("failed to obtain draw seed: %w", err)
	}

	winnerIndex, err := drawhash.WinnerIndex(seed.Bytes, snapshot.TotalEntries)
	if err != nil {
		return nil, err
	}
	winningTicket := snapshot.Entries[winnerIndex].TicketNumber
	seedHex := hex.EncodeToString(seed.Bytes)

	draw := &models.Draw{
		CompetitionID:       competitionID,
		SnapshotID:          snapshot.ID,
		SnapshotHash:        snapshot.EntryHash,
		SeedHex:             seedHex,
		SeedSource:          models.SeedSourceName(seed.SourceName),
		BeaconRound:         seed.BeaconRound,
		TotalEntries:        snapshot.TotalEntries,
		WinnerIndex:         winnerIndex,
		WinningTicketNumber: winningTicket,
		VerificationHash:    drawhash.VerificationHash(snapshot.EntryHash, seedHex, winnerIndex),
		ExecutedBy:          actor,
		ExecutedAt:          time.Now(),
	}

	err = s.txRunner.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.drawRepo.Create(txCtx, draw); err != nil {
			return err
		}
		if err := s.competitionRepo.UpdateStatus(txCtx, competitionID, models.CompetitionStatusDrawing, models.CompetitionStatusDrawn); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &models.DrawAuditLog{
			CompetitionID: competitionID,
			Action:        models.AuditDrawExecuted,
			Actor:         actor,
			Detail: map[string]any{
				"snapshotHash":     snapshot.EntryHash,
				"seedSource":       seed.SourceName,
				"beaconRound":      seed.BeaconRound,
				"winnerIndex":      winnerIndex,
				"winningTicket":    winningTicket,
				"verificationHash": draw.VerificationHash,
			},
		})
	})
	if err != nil {
		if !errors.Is(err, models.ErrDrawAlreadyExecuted) {
			s.auditFailure(ctx, competitionID, actor, err.Error())
		}
		slog.Error("Draw execution failed", "error", err, "competitionId", competitionID)
		return nil, err
	}

	slog.Info("Draw executed", "competitionId", competitionID, "drawId", draw.ID,
		"winnerIndex", winnerIndex, "winningTicket", winningTicket,
		"seedSource", seed.SourceName, "verificationHash", draw.VerificationHash)
	return draw, nil
}

// VerifyDraw recomputes the proof chain from stored inputs. Each check is
// reported independently so a failure pinpoints what diverged. A mismatch is
// escalated: logged at error level and written to the audit trail.
func (s *DrawServiceImpl) VerifyDraw(ctx context.Context, drawID primitive.ObjectID) (*models.VerificationReport, error) {
	draw, err := s.drawRepo.FindByID(ctx, drawID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.snapshotRepo.FindByID(ctx, draw.SnapshotID)
	if err != nil {
		return nil, err
	}

	report := &models.VerificationReport{
		DrawID:     drawID,
		Passed:     true,
		VerifiedAt: time.Now(),
	}
	addCheck := func(name string, passed bool, detail string) {
		if passed {
			detail = ""
		}
		report.Checks = append(report.Checks, models.VerificationCheck{Name: name, Passed: passed, Detail: detail})
		if !passed {
			report.Passed = false
		}
	}

	numbers := make([]int, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		numbers = append(numbers, entry.TicketNumber)
	}
	recomputedEntryHash := drawhash.EntryHash(numbers)
	addCheck(models.CheckEntrySetIntegrity,
		recomputedEntryHash == snapshot.EntryHash && snapshot.EntryHash == draw.SnapshotHash,
		fmt.Sprintf("recomputed %s, snapshot stores %s, draw stores %s",
			recomputedEntryHash, snapshot.EntryHash, draw.SnapshotHash))

	inBounds := draw.WinnerIndex >= 0 && draw.WinnerIndex < len(snapshot.Entries)
	addCheck(models.CheckWinnerIndexBounds, inBounds,
		fmt.Sprintf("winner index %d outside [0, %d)", draw.WinnerIndex, len(snapshot.Entries)))

	// The index must actually derive from the seed. Without this check a
	// self-consistent binding hash over a hand-picked index would pass.
	seedBytes, seedErr := hex.DecodeString(draw.SeedHex)
	derivedIndex, deriveErr := -1, seedErr
	if deriveErr == nil {
		derivedIndex, deriveErr = drawhash.WinnerIndex(seedBytes, len(snapshot.Entries))
	}
	addCheck(models.CheckSeedDerivation,
		deriveErr == nil && derivedIndex == draw.WinnerIndex,
		fmt.Sprintf("seed derives index %d, draw stores %d (derivation error: %v)",
			derivedIndex, draw.WinnerIndex, deriveErr))

	ticketConsistent := inBounds && snapshot.Entries[draw.WinnerIndex].TicketNumber == draw.WinningTicketNumber
	addCheck(models.CheckWinningTicket, ticketConsistent,
		fmt.Sprintf("stored winning ticket %d does not match snapshot entry at index %d",
			draw.WinningTicketNumber, draw.WinnerIndex))

	recomputedBinding := drawhash.VerificationHash(draw.SnapshotHash, draw.SeedHex, draw.WinnerIndex)
	addCheck(models.CheckVerificationHash, recomputedBinding == draw.VerificationHash,
		fmt.Sprintf("recomputed %s, stored %s", recomputedBinding, draw.VerificationHash))

	if !report.Passed {
		slog.Error("Draw verification mismatch, possible corruption or tampering",
			"drawId", drawID, "competitionId", draw.CompetitionID, "checks", report.Checks)
		auditErr := s.auditRepo.Create(ctx, &models.DrawAuditLog{
			CompetitionID: draw.CompetitionID,
			Action:        models.AuditVerificationMismatch,
			Actor:         models.SystemActor,
			Detail:        map[string]any{"drawId": drawID.Hex(), "checks": report.Checks},
		})
		if auditErr != nil {
			slog.Error("Failed to audit verification mismatch", "error", auditErr, "drawId", drawID)
		}
	}
	return report, nil
}

// GetDraw retrieves a draw by ID
func (s *DrawServiceImpl) GetDraw(ctx context.Context, drawID primitive.ObjectID) (*models.Draw, error) {
	return s.drawRepo.FindByID(ctx, drawID)
}

// GetSnapshot retrieves the snapshot for a competition
func (s *DrawServiceImpl) GetSnapshot(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawSnapshot, error) {
	return s.snapshotRepo.FindByCompetitionID(ctx, competitionID)
}

// SnapshotBacklog lists competitions that closed before the given time and
// still have no snapshot
func (s *DrawServiceImpl) SnapshotBacklog(ctx context.Context, closedBefore time.Time) ([]*models.Competition, error) {
	closed, err := s.competitionRepo.FindByStatusPastClose(ctx, models.CompetitionStatusClosed, closedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to find closed competitions: %w", err)
	}

	stalled := make([]*models.Competition, 0)
	for _, competition := range closed {
		_, err := s.snapshotRepo.FindByCompetitionID(ctx, competition.ID)
		if errors.Is(err, models.ErrSnapshotMissing) {
			stalled = append(stalled, competition)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check snapshot for competition %s: %w", competition.ID.Hex(), err)
		}
	}
	return stalled, nil
}

// auditFailure best-effort records a failed draw attempt for operator inspection
func (s *DrawServiceImpl) auditFailure(ctx context.Context, competitionID primitive.ObjectID, actor, reason string) {
	err := s.auditRepo.Create(ctx, &models.DrawAuditLog{
		CompetitionID: competitionID,
		Action:        models.AuditDrawFailed,
		Actor:         actor,
		Detail:        map[string]any{"reason": reason},
	})
	if err != nil {
		slog.Error("Failed to audit draw failure", "error", err, "competitionId", competitionID)
	}
}
