package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prizepool/draw-engine-backend/internal/models"
)

func seedCompetition(t *testing.T, env *testEnv, capacity, perUserCap int, status models.CompetitionStatus) *models.Competition {
	t.Helper()
	comp := &models.Competition{
		Title:        "Test Competition",
		Capacity:     capacity,
		PerUserCap:   perUserCap,
		Status:       status,
		PoolStatus:   models.PoolStatusLocked,
		SalesOpenAt:  time.Now().Add(-time.Hour),
		SalesCloseAt: time.Now().Add(time.Hour),
	}
	if err := env.compRepo.Create(context.Background(), comp); err != nil {
		t.Fatalf("failed to seed competition: %v", err)
	}

	tickets := make([]*models.TicketAllocation, 0, capacity)
	for n := 1; n <= capacity; n++ {
		tickets = append(tickets, &models.TicketAllocation{
			CompetitionID: comp.ID,
			TicketNumber:  n,
			EntrySource:   models.EntrySourcePaid,
		})
	}
	if err := env.ticketRepo.InsertPool(context.Background(), tickets); err != nil {
		t.Fatalf("failed to seed ticket pool: %v", err)
	}
	return comp
}

func TestClaimTickets(t *testing.T) {
	ctx := context.Background()

	t.Run("allocates the requested quantity", func(t *testing.T) {
		env := newTestEnv()
		comp := seedCompetition(t, env, 10, 0, models.CompetitionStatusActive)
		svc := NewAllocationService(env.txRunner, env.compRepo, env.ticketRepo)

		result, err := svc.ClaimTickets(ctx, comp.ID, "order-1", "user-1", 3)
		if err != nil {
			t.Fatalf("ClaimTickets returned error: %v", err)
		}
		if len(result.Tickets) != 3 {
			t.Fatalf("expected 3 tickets, got %d", len(result.Tickets))
		}
		if result.Receipt == "" {
			t.Error("expected a non-empty claim receipt")
		}
		if result.AlreadyHeld {
			t.Error("fresh order should not report AlreadyHeld")
		}
		seen := map[int]bool{}
		for _, ticket := range result.Tickets {
			if !ticket.Sold {
				t.Errorf("ticket %d not marked sold", ticket.TicketNumber)
			}
			if ticket.UserID != "user-1" || ticket.OrderID != "order-1" {
				t.Errorf("ticket %d has wrong ownership: user=%q order=%q",
					ticket.TicketNumber, ticket.UserID, ticket.OrderID)
			}
			if seen[ticket.TicketNumber] {
				t.Errorf("ticket number %d allocated twice", ticket.TicketNumber)
			}
			seen[ticket.TicketNumber] = true
		}
	})

	t.Run("shortfall allocates nothing", func(t *testing.T) {
		env := newTestEnv()
		comp := seedCompetition(t, env, 5, 0, models.CompetitionStatusActive)
		svc := NewAllocationService(env.txRunner, env.compRepo, env.ticketRepo)

		if _, err := svc.ClaimTickets(ctx, comp.ID, "order-1", "user-1", 3); err != nil {
			t.Fatalf("first claim failed: %v", err)
		}

		_, err := svc.ClaimTickets(ctx, comp.ID, "order-2", "user-2", 4)
		if !errors.Is(err, models.ErrInsufficientInventory) {
			t.Fatalf("expected ErrInsufficientInventory, got %v", err)
		}

		sold, _ := env.ticketRepo.CountSold(ctx, comp.ID)
		if sold != 3 {
			t.Errorf("failed claim must not keep partial allocations, sold=%d want 3", sold)
		}
	})

	t.Run("retry with same order replays the allocation", func(t *testing.T) {
		env := newTestEnv()
		comp := seedCompetition(t, env, 10, 0, models.CompetitionStatusActive)
		svc := NewAllocationService(env.txRunner, env.compRepo, env.ticketRepo)

		first, err := svc.ClaimTickets(ctx, comp.ID, "order-1", "user-1", 4)
		if err != nil {
			t.Fatalf("first claim failed: %v", err)
		}
		second, err := svc.ClaimTickets(ctx, comp.ID, "order-1", "user-1", 4)
		if err != nil {
			t.Fatalf("retry failed: %v", err)
		}
		if !second.AlreadyHeld {
			t.Error("retry should report AlreadyHeld")
		}
		if second.Receipt != first.Receipt {
			t.Errorf("retry returned different receipt: %q vs %q", second.Receipt, first.Receipt)
		}
		if len(second.Tickets) != len(first.Tickets) {
			t.Fatalf("retry returned %d tickets, first returned %d", len(second.Tickets), len(first.Tickets))
		}
		sold, _ := env.ticketRepo.CountSold(ctx, comp.ID)
		if sold != 4 {
			t.Errorf("retry must not double-allocate, sold=%d want 4", sold)
		}
	})

	t.Run("per-user cap counts existing holdings", func(t *testing.T) {
		env := newTestEnv()
		comp := seedCompetition(t, env, 20, 5, models.CompetitionStatusActive)
		svc := NewAllocationService(env.txRunner, env.compRepo, env.ticketRepo)

		if _, err := svc.ClaimTickets(ctx, comp.ID, "order-1", "user-1", 3); err != nil {
			t.Fatalf("first claim failed: %v", err)
		}
		_, err := svc.ClaimTickets(ctx, comp.ID, "order-2", "user-1", 3)
		if !errors.Is(err, models.ErrPerUserCapExceeded) {
			t.Fatalf("expected ErrPerUserCapExceeded, got %v", err)
		}
		if _, err := svc.ClaimTickets(ctx, comp.ID, "order-3", "user-1", 2); err != nil {
			t.Errorf("claim up to the cap should succeed: %v", err)
		}
	})

	t.Run("concurrent orders from one user cannot exceed the cap", func(t *testing.T) {
		env := newTestEnv()
		comp := seedCompetition(t, env, 20, 5, models.CompetitionStatusActive)
		svc := NewAllocationService(env.txRunner, env.compRepo, env.ticketRepo)

		// Both orders claim disjoint ticket documents, so only the shared
		// quota counter can stop the second one.
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.ClaimTickets(ctx, comp.ID, orderName(i), "user-1", 3)
			}(i)
		}
		wg.Wait()

		failures := 0
		for _, err := range errs {
			if err != nil {
				if !errors.Is(err, models.ErrPerUserCapExceeded) {
					t.Errorf("unexpected failure kind: %v", err)
				}
				failures++
			}
		}
		if failures != 1 {
			t.Fatalf("expected exactly one order over the cap, got %d failures", failures)
		}
		sold, _ := env.ticketRepo.CountSold(ctx, comp.ID)
		if sold != 3 {
			t.Errorf("sold count %d, want 3", sold)
		}
	})

	t.Run("failed claim rolls the quota reservation back", func(t *testing.T) {
		env := newTestEnv()
		comp := seedCompetition(t, env, 4, 10, models.CompetitionStatusActive)
		svc := NewAllocationService(env.txRunner, env.compRepo, env.ticketRepo)

		_, err := svc.ClaimTickets(ctx, comp.ID, "order-1", "user-1", 5)
		if !errors.Is(err, models.ErrInsufficientInventory) {
			t.Fatalf("expected ErrInsufficientInventory, got %v", err)
		}
		// The aborted order's reservation must not eat into the cap.
		if _, err := svc.ClaimTickets(ctx, comp.ID, "order-2", "user-1", 4); err != nil {
			t.Errorf("claim after an aborted order failed: %v", err)
		}
	})

	t.Run("rejects competition that is not selling", func(t *testing.T) {
		env := newTestEnv()
		comp := seedCompetition(t, env, 10, 0, models.CompetitionStatusClosed)
		svc := NewAllocationService(env.txRunner, env.compRepo, env.ticketRepo)

		if _, err := svc.ClaimTickets(ctx, comp.ID, "order-1", "user-1", 1); err == nil {
			t.Fatal("expected error claiming from a closed competition")
		}
	})

	t.Run("competing orders cannot oversell the pool", func(t *testing.T) {
		env := newTestEnv()
		comp := seedCompetition(t, env, 100, 0, models.CompetitionStatusActive)
		svc := NewAllocationService(env.txRunner, env.compRepo, env.ticketRepo)

		quantities := []int{60, 50}
		errs := make([]error, len(quantities))
		var wg sync.WaitGroup
		for i, q := range quantities {
			wg.Add(1)
			go func(i, q int) {
				defer wg.Done()
				_, errs[i] = svc.ClaimTickets(ctx, comp.ID, orderName(i), userName(i), q)
			}(i, q)
		}
		wg.Wait()

		failures := 0
		for _, err := range errs {
			if err != nil {
				if !errors.Is(err, models.ErrInsufficientInventory) {
					t.Errorf("unexpected failure kind: %v", err)
				}
				failures++
			}
		}
		if failures != 1 {
			t.Fatalf("expected exactly one order to fail, got %d failures", failures)
		}

		sold, _ := env.ticketRepo.CountSold(ctx, comp.ID)
		if sold != 60 && sold != 50 {
			t.Errorf("sold count %d is not the winning order's quantity", sold)
		}
	})

	t.Run("many concurrent orders drain the pool exactly", func(t *testing.T) {
		env := newTestEnv()
		comp := seedCompetition(t, env, 150, 0, models.CompetitionStatusActive)
		svc := NewAllocationService(env.txRunner, env.compRepo, env.ticketRepo)

		const orders = 20
		const perOrder = 10
		var succeeded int64
		var mu sync.Mutex
		var wg sync.WaitGroup
		for i := 0; i < orders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := svc.ClaimTickets(ctx, comp.ID, orderName(i), userName(i), perOrder)
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				} else if !errors.Is(err, models.ErrInsufficientInventory) {
					t.Errorf("order %d failed unexpectedly: %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		if succeeded != 15 {
			t.Errorf("expected 15 full orders on a 150 pool, got %d", succeeded)
		}
		sold, _ := env.ticketRepo.CountSold(ctx, comp.ID)
		if sold != 150 {
			t.Errorf("sold=%d, pool of 150 must be exactly drained", sold)
		}
	})
}

func orderName(i int) string { return fmt.Sprintf("order-%d", i) }
func userName(i int) string  { return fmt.Sprintf("user-%d", i) }
