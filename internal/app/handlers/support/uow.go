package support

import (
	"context"

	"motelbook/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already in ctx or opens a read-only one.
// cleanup is nil when the unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Attach(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// WriteUnit is a unit used by a command handler. When the transaction
// middleware already opened one, Commit and Rollback are left to it.
type WriteUnit struct {
	uow.UnitOfWork
	managed   bool
	committed bool
	complete  func()
}

// BeginWriteUnit reuses the unit in ctx or begins a handler-managed one.
func BeginWriteUnit(ctx context.Context, factory uow.UoWFactory) (*WriteUnit, context.Context, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &WriteUnit{UnitOfWork: unit}, ctx, nil
	}
	if factory == nil {
		return nil, ctx, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, err
	}
	execCtx, complete := uow.WithCompletion(uow.Attach(ctx, unit))
	return &WriteUnit{UnitOfWork: unit, managed: true, complete: complete}, execCtx, nil
}

func (w *WriteUnit) Commit(ctx context.Context) error {
	if !w.managed {
		return nil
	}
	if err := w.UnitOfWork.Commit(ctx); err != nil {
		return err
	}
	w.committed = true
	return nil
}

// Close rolls back a managed unit that was not committed and runs its
// completion callbacks.
func (w *WriteUnit) Close(ctx context.Context) {
	if !w.managed {
		return
	}
	if !w.committed {
		_ = w.UnitOfWork.Rollback(ctx)
	}
	if w.complete != nil {
		w.complete()
	}
}
