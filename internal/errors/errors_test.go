package errors_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deescovery/deescovery/internal/errors"
)

func TestNewAddsStackOnce(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.New(nil))

	err := errors.New("boom")
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.True(t, errors.ContainsStackTrace(err))
	assert.NotEmpty(t, errors.ErrorStack(err))

	assert.Same(t, err, errors.New(err))
}

func TestErrorfKeepsCause(t *testing.T) {
	t.Parallel()

	err := errors.Errorf("loading %s: %w", "app", fs.ErrNotExist)

	assert.Equal(t, "loading app: file does not exist", err.Error())
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.True(t, errors.ContainsStackTrace(err))
}

func TestWithStackTraceAndPrefix(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.WithStackTraceAndPrefix(nil, "ignored"))

	err := errors.WithStackTraceAndPrefix(fs.ErrPermission, "reading %s", "rules")
	assert.Equal(t, "reading rules: permission denied", err.Error())
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func TestMultiError(t *testing.T) {
	t.Parallel()

	var errs *errors.MultiError

	assert.NoError(t, errs.ErrorOrNil())
	assert.Equal(t, 0, errs.Len())

	first := stderrors.New("first")
	second := stderrors.New("second")

	errs = errs.Append(first, nil)
	errs = errs.Append(second)

	require.Error(t, errs.ErrorOrNil())
	assert.Equal(t, 2, errs.Len())
	assert.Equal(t, []error{first, second}, errs.WrappedErrors())
	assert.True(t, errors.Is(errs, second))
	assert.Contains(t, errs.Error(), "2 errors occurred")

	var target *errors.MultiError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", errs), &target))
}

func TestUnwrapMultiErrors(t *testing.T) {
	t.Parallel()

	a, b, c := stderrors.New("a"), stderrors.New("b"), stderrors.New("c")

	var inner *errors.MultiError
	inner = inner.Append(b, c)

	joined := errors.Join(a, fmt.Errorf("nested: %w", inner))

	assert.ElementsMatch(t, []error{a, b, c}, errors.UnwrapMultiErrors(joined))
	assert.Equal(t, []error{a}, errors.UnwrapMultiErrors(a))
}

func TestRecover(t *testing.T) {
	t.Parallel()

	run := func(fn func()) (err error) {
		defer errors.Recover(func(cause error) {
			err = cause
		})

		fn()

		return nil
	}

	require.NoError(t, run(func() {}))

	err := run(func() { panic("exploded") })
	require.EqualError(t, err, "exploded")
	assert.True(t, errors.ContainsStackTrace(err))

	sentinel := stderrors.New("sentinel")
	err = run(func() { panic(sentinel) })
	assert.True(t, errors.Is(err, sentinel))
}

func TestIsContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, errors.IsContextCanceled(errors.New(ctx.Err())))
	assert.False(t, errors.IsContextCanceled(errors.New("boom")))
	assert.Nil(t, errors.Unwrap(stderrors.New("plain")))
}
