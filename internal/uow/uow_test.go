package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type passTx struct{}

func (passTx) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type failTx struct{}

func (failTx) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return errors.New("commit failed")
}

func TestDoRunsHooksAfterCommit(t *testing.T) {
	u := NewUoW(passTx{})

	var order []string
	err := u.Do(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		after(func(context.Context) { order = append(order, "first") })
		after(func(context.Context) { order = append(order, "second") })
		order = append(order, "body")
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, []string{"body", "first", "second"}, order)
}

func TestDoSkipsHooksOnError(t *testing.T) {
	u := NewUoW(passTx{})

	fired := false
	wantErr := errors.New("boom")

	err := u.Do(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		after(func(context.Context) { fired = true })
		return wantErr
	})

	require.ErrorIs(t, err, wantErr)
	require.False(t, fired, "hooks must not run for rolled-back work")
}

func TestDoSkipsHooksOnCommitFailure(t *testing.T) {
	u := NewUoW(failTx{})

	fired := false
	err := u.Do(context.Background(), func(ctx context.Context, after func(AfterCommit)) error {
		after(func(context.Context) { fired = true })
		return nil
	})

	require.Error(t, err)
	require.False(t, fired)
}
