package uow

import "context"

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// Transactor runs fn inside a storage transaction carried by the context.
// *postgres.Store satisfies it; tests substitute a pass-through.
type Transactor interface {
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UoW represents a unit of work: one transaction plus side effects
// (cache invalidation, notifications) deferred until after the commit, so
// they never fire for work that rolled back.
type UoW struct {
	tx Transactor
}

func NewUoW(tx Transactor) *UoW {
	return &UoW{tx: tx}
}

// Do runs fn inside the transaction. After a successful commit, it executes
// all after-commit hooks.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.tx.RunTx(ctx, func(ctx context.Context) error {
		// the transactor may retry fn; only the committed attempt's hooks run
		hooks = hooks[:0]
		return fn(ctx, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
