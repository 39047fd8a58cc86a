/*
Package commission turns a paid order into ledger entries.

Generation is split in two steps:

  - Compute is a pure function of the order, the purchaser's ancestor chain
    and a rate snapshot. It returns one entry per ancestor whose level has an
    active rate.
  - Generate persists those entries in a single transaction. Each insert is
    guarded by the unique (order_id, user_id, level) index, so running it
    again for the same order writes nothing and reports already_generated.

Usage:

	svc := commission.NewService(commissions, orders, graph, rates, metrics, logger)

	result, err := svc.GenerateForOrder(ctx, orderID)
	if err != nil {
	    // storage errors are safe to retry; ErrGraphCorruption is not
	}

Amounts are order total times rate, rounded half away from zero to cents,
per entry.
*/
package commission
