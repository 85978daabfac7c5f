package store

import (
	"context"
	"fmt"

	"dealer_crm_backend/internal/domain"

	"golang.org/x/sync/errgroup"
)

// LoadSnapshot reads every collection concurrently into a domain.Snapshot.
func LoadSnapshot(ctx context.Context, s Store) (domain.Snapshot, error) {
	var snap domain.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	load := func(coll Collection, dst any) {
		g.Go(func() error {
			if err := s.ListAll(gctx, coll, dst); err != nil {
				return fmt.Errorf("load %s: %w", coll, err)
			}
			return nil
		})
	}
	load(Leads, &snap.Leads)
	load(Opportunities, &snap.Opportunities)
	load(Appointments, &snap.Appointments)
	load(FinanceApplications, &snap.FinanceApplications)
	load(ConsentEvents, &snap.ConsentEvents)
	load(Inventory, &snap.Inventory)

	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}
