package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prizepool/draw-engine-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the MongoDB collections. The fake
// repositories below share one store and reproduce the conditional-update
// semantics of the real implementations, so service tests exercise the same
// contention behavior without a running database.
type memStore struct {
	mu           sync.Mutex
	competitions map[primitive.ObjectID]*models.Competition
	tickets      []*models.TicketAllocation
	prizes       map[primitive.ObjectID]*models.InstantWinPrize
	snapshots    map[primitive.ObjectID]*models.DrawSnapshot
	draws        map[primitive.ObjectID]*models.Draw
	audits       []*models.DrawAuditLog
	credits      []*models.WalletCredit
	walletTxs    []*models.WalletTransaction
	quotas       map[string]int
}

func quotaKey(competitionID primitive.ObjectID, userID string) string {
	return competitionID.Hex() + "/" + userID
}

func newMemStore() *memStore {
	return &memStore{
		competitions: map[primitive.ObjectID]*models.Competition{},
		prizes:       map[primitive.ObjectID]*models.InstantWinPrize{},
		snapshots:    map[primitive.ObjectID]*models.DrawSnapshot{},
		draws:        map[primitive.ObjectID]*models.Draw{},
		quotas:       map[string]int{},
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for id, comp := range s.competitions {
		cp := *comp
		c.competitions[id] = &cp
	}
	for _, t := range s.tickets {
		cp := *t
		c.tickets = append(c.tickets, &cp)
	}
	for id, p := range s.prizes {
		cp := *p
		c.prizes[id] = &cp
	}
	for id, snap := range s.snapshots {
		cp := *snap
		c.snapshots[id] = &cp
	}
	for id, d := range s.draws {
		cp := *d
		c.draws[id] = &cp
	}
	for _, a := range s.audits {
		cp := *a
		c.audits = append(c.audits, &cp)
	}
	for _, cr := range s.credits {
		cp := *cr
		c.credits = append(c.credits, &cp)
	}
	for _, tx := range s.walletTxs {
		cp := *tx
		c.walletTxs = append(c.walletTxs, &cp)
	}
	for k, v := range s.quotas {
		c.quotas[k] = v
	}
	return c
}

func (s *memStore) restore(from *memStore) {
	s.competitions = from.competitions
	s.tickets = from.tickets
	s.prizes = from.prizes
	s.snapshots = from.snapshots
	s.draws = from.draws
	s.audits = from.audits
	s.credits = from.credits
	s.walletTxs = from.walletTxs
	s.quotas = from.quotas
}

// fakeTxRunner serializes transactions and rolls the store back when fn
// fails, mirroring the all-or-nothing contract of the mongo session runner.
type fakeTxRunner struct {
	store *memStore
	txMu  sync.Mutex
}

func (r *fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.store.mu.Lock()
	backup := r.store.clone()
	r.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.store.mu.Lock()
		r.store.restore(backup)
		r.store.mu.Unlock()
		return err
	}
	return nil
}

// testEnv bundles a store with one fake of every repository.
type testEnv struct {
	store        *memStore
	txRunner     *fakeTxRunner
	compRepo     *fakeCompetitionRepo
	ticketRepo   *fakeTicketRepo
	prizeRepo    *fakePrizeRepo
	snapshotRepo *fakeSnapshotRepo
	drawRepo     *fakeDrawRepo
	auditRepo    *fakeAuditRepo
	walletRepo   *fakeWalletRepo
}

func newTestEnv() *testEnv {
	store := newMemStore()
	return &testEnv{
		store:        store,
		txRunner:     &fakeTxRunner{store: store},
		compRepo:     &fakeCompetitionRepo{store: store},
		ticketRepo:   &fakeTicketRepo{store: store},
		prizeRepo:    &fakePrizeRepo{store: store},
		snapshotRepo: &fakeSnapshotRepo{store: store},
		drawRepo:     &fakeDrawRepo{store: store},
		auditRepo:    &fakeAuditRepo{store: store},
		walletRepo:   &fakeWalletRepo{store: store},
	}
}

type fakeCompetitionRepo struct{ store *memStore }

func (r *fakeCompetitionRepo) Create(ctx context.Context, competition *models.Competition) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if competition.ID.IsZero() {
		competition.ID = primitive.NewObjectID()
	}
	competition.CreatedAt = time.Now()
	cp := *competition
	r.store.competitions[competition.ID] = &cp
	return nil
}

func (r *fakeCompetitionRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	comp, ok := r.store.competitions[id]
	if !ok {
		return nil, models.ErrCompetitionNotFound
	}
	cp := *comp
	return &cp, nil
}

func (r *fakeCompetitionRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.CompetitionStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	comp, ok := r.store.competitions[id]
	if !ok {
		return models.ErrCompetitionNotFound
	}
	if comp.Status != from {
		return models.ErrInvalidTransition
	}
	comp.Status = to
	comp.UpdatedAt = time.Now()
	return nil
}

func (r *fakeCompetitionRepo) LockPool(ctx context.Context, id primitive.ObjectID, actor string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	comp, ok := r.store.competitions[id]
	if !ok {
		return models.ErrCompetitionNotFound
	}
	if comp.PoolStatus != models.PoolStatusDraft {
		return models.ErrPoolAlreadyLocked
	}
	comp.PoolStatus = models.PoolStatusLocked
	comp.PoolLockedBy = actor
	comp.PoolLockedAt = at
	return nil
}

func (r *fakeCompetitionRepo) FindByStatusPastClose(ctx context.Context, status models.CompetitionStatus, before time.Time) ([]*models.Competition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.Competition
	for _, comp := range r.store.competitions {
		if comp.Status == status && comp.SalesCloseAt.Before(before) {
			cp := *comp
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeCompetitionRepo) FindAll(ctx context.Context) ([]*models.Competition, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*models.Competition, 0, len(r.store.competitions))
	for _, comp := range r.store.competitions {
		cp := *comp
		out = append(out, &cp)
	}
	return out, nil
}

type fakeTicketRepo struct{ store *memStore }

func (r *fakeTicketRepo) InsertPool(ctx context.Context, tickets []*models.TicketAllocation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range tickets {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		cp := *t
		r.store.tickets = append(r.store.tickets, &cp)
	}
	return nil
}

func (r *fakeTicketRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TicketAllocation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.tickets {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

func (r *fakeTicketRepo) FindByOrderID(ctx context.Context, competitionID primitive.ObjectID, orderID string) ([]*models.TicketAllocation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.TicketAllocation
	for _, t := range r.store.tickets {
		if t.CompetitionID == competitionID && t.OrderID == orderID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ClaimOne(ctx context.Context, competitionID primitive.ObjectID, orderID, userID, receipt string, at time.Time) (*models.TicketAllocation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.tickets {
		if t.CompetitionID == competitionID && !t.Sold {
			t.Sold = true
			t.OrderID = orderID
			t.UserID = userID
			t.ClaimReceipt = receipt
			t.SoldAt = at
			cp := *t
			return &cp, nil
		}
	}
	return nil, models.ErrInsufficientInventory
}

func (r *fakeTicketRepo) MarkRevealed(ctx context.Context, ticketID primitive.ObjectID, at time.Time) (*models.TicketAllocation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.tickets {
		if t.ID == ticketID {
			if t.IsRevealed {
				return nil, models.ErrAlreadyRevealed
			}
			t.IsRevealed = true
			t.RevealedAt = at
			cp := *t
			return &cp, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

func (r *fakeTicketRepo) CountSold(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, t := range r.store.tickets {
		if t.CompetitionID == competitionID && t.Sold {
			n++
		}
	}
	return n, nil
}

func (r *fakeTicketRepo) ReserveUserQuota(ctx context.Context, competitionID primitive.ObjectID, userID string, quantity, cap int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := quotaKey(competitionID, userID)
	if r.store.quotas[key]+quantity > cap {
		return models.ErrPerUserCapExceeded
	}
	r.store.quotas[key] += quantity
	return nil
}

func (r *fakeTicketRepo) FindEligible(ctx context.Context, competitionID primitive.ObjectID, policy models.EligibilityPolicy) ([]*models.TicketAllocation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.TicketAllocation
	for _, t := range r.store.tickets {
		if t.CompetitionID != competitionID || !t.Sold {
			continue
		}
		switch policy {
		case models.EligibilityExcludeInstantWinners:
			if t.IsRevealed && t.PrizeID != nil {
				continue
			}
		case models.EligibilityFlaggedOnly:
			if !t.EndPrizeFlag {
				continue
			}
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketNumber < out[j].TicketNumber })
	return out, nil
}

func (r *fakeTicketRepo) FindByNumber(ctx context.Context, competitionID primitive.ObjectID, ticketNumber int) (*models.TicketAllocation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.tickets {
		if t.CompetitionID == competitionID && t.TicketNumber == ticketNumber {
			cp := *t
			return &cp, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

type fakePrizeRepo struct{ store *memStore }

func (r *fakePrizeRepo) CreateMany(ctx context.Context, prizes []*models.InstantWinPrize) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range prizes {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		cp := *p
		r.store.prizes[p.ID] = &cp
	}
	return nil
}

func (r *fakePrizeRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.InstantWinPrize, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.prizes[id]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePrizeRepo) FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID) ([]*models.InstantWinPrize, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.InstantWinPrize
	for _, p := range r.store.prizes {
		if p.CompetitionID == competitionID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TierRank < out[j].TierRank })
	return out, nil
}

func (r *fakePrizeRepo) DecrementRemaining(ctx context.Context, prizeID primitive.ObjectID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.prizes[prizeID]
	if !ok || p.RemainingQuantity <= 0 {
		return models.ErrPrizeExhausted
	}
	p.RemainingQuantity--
	return nil
}

type fakeSnapshotRepo struct{ store *memStore }

func (r *fakeSnapshotRepo) Create(ctx context.Context, snapshot *models.DrawSnapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.snapshots {
		if existing.CompetitionID == snapshot.CompetitionID {
			return models.ErrSnapshotExists
		}
	}
	if snapshot.ID.IsZero() {
		snapshot.ID = primitive.NewObjectID()
	}
	snapshot.CreatedAt = time.Now()
	cp := *snapshot
	r.store.snapshots[snapshot.ID] = &cp
	return nil
}

func (r *fakeSnapshotRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.DrawSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	snap, ok := r.store.snapshots[id]
	if !ok {
		return nil, models.ErrSnapshotMissing
	}
	cp := *snap
	return &cp, nil
}

func (r *fakeSnapshotRepo) FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawSnapshot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, snap := range r.store.snapshots {
		if snap.CompetitionID == competitionID {
			cp := *snap
			return &cp, nil
		}
	}
	return nil, models.ErrSnapshotMissing
}

type fakeDrawRepo struct{ store *memStore }

func (r *fakeDrawRepo) Create(ctx context.Context, draw *models.Draw) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.draws {
		if existing.CompetitionID == draw.CompetitionID {
			return models.ErrDrawAlreadyExecuted
		}
	}
	if draw.ID.IsZero() {
		draw.ID = primitive.NewObjectID()
	}
	draw.CreatedAt = time.Now()
	cp := *draw
	r.store.draws[draw.ID] = &cp
	return nil
}

func (r *fakeDrawRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Draw, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	draw, ok := r.store.draws[id]
	if !ok {
		return nil, models.ErrDrawNotFound
	}
	cp := *draw
	return &cp, nil
}

func (r *fakeDrawRepo) FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID) (*models.Draw, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, draw := range r.store.draws {
		if draw.CompetitionID == competitionID {
			cp := *draw
			return &cp, nil
		}
	}
	return nil, models.ErrDrawNotFound
}

type fakeAuditRepo struct{ store *memStore }

func (r *fakeAuditRepo) Create(ctx context.Context, entry *models.DrawAuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.CreatedAt = time.Now()
	cp := *entry
	r.store.audits = append(r.store.audits, &cp)
	return nil
}

func (r *fakeAuditRepo) FindByCompetitionID(ctx context.Context, competitionID primitive.ObjectID, page, limit int) ([]*models.DrawAuditLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.DrawAuditLog
	for _, entry := range r.store.audits {
		if entry.CompetitionID == competitionID {
			cp := *entry
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) actions(competitionID primitive.ObjectID) []models.AuditAction {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.AuditAction
	for _, entry := range r.store.audits {
		if entry.CompetitionID == competitionID {
			out = append(out, entry.Action)
		}
	}
	return out
}

type fakeWalletRepo struct{ store *memStore }

func (r *fakeWalletRepo) InsertCredit(ctx context.Context, credit *models.WalletCredit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if credit.ID.IsZero() {
		credit.ID = primitive.NewObjectID()
	}
	credit.CreatedAt = time.Now()
	cp := *credit
	r.store.credits = append(r.store.credits, &cp)
	return nil
}

func (r *fakeWalletRepo) FindActiveCredits(ctx context.Context, userID string, at time.Time) ([]*models.WalletCredit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.WalletCredit
	for _, c := range r.store.credits {
		if c.UserID == userID && c.RemainingPence > 0 && !c.Expired(at) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeWalletRepo) ConsumeCredit(ctx context.Context, creditID primitive.ObjectID, amountPence int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.credits {
		if c.ID == creditID {
			if c.RemainingPence < amountPence {
				return models.ErrInsufficientBalance
			}
			c.RemainingPence -= amountPence
			return nil
		}
	}
	return models.ErrInsufficientBalance
}

func (r *fakeWalletRepo) InsertTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if tx.ID.IsZero() {
		tx.ID = primitive.NewObjectID()
	}
	tx.CreatedAt = time.Now()
	cp := *tx
	r.store.walletTxs = append(r.store.walletTxs, &cp)
	return nil
}

func (r *fakeWalletRepo) FindTransactions(ctx context.Context, userID string, page, limit int) ([]*models.WalletTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.WalletTransaction
	for _, tx := range r.store.walletTxs {
		if tx.UserID == userID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeWalletRepo) ActiveBalance(ctx context.Context, userID string, at time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var total int64
	for _, c := range r.store.credits {
		if c.UserID == userID && !c.Expired(at) {
			total += c.RemainingPence
		}
	}
	return total, nil
}
