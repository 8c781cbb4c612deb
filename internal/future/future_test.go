package future_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stealthrocket/wasishim/internal/assert"
	"github.com/stealthrocket/wasishim/internal/future"
)

func TestValueOfTakesFastPathOnSuccess(t *testing.T) {
	ctx := context.Background()
	v := future.ValueOf(ctx, future.Done(7, nil))
	assert.Equal(t, v.IsPending(), false)
	assert.Equal(t, v.Value(), 7)
}

func TestValueOfDoesNotDiscardAnErrorFromAnAlreadyDoneFuture(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	f := future.Done(0, boom)
	assert.Equal(t, f.Ready(), true)

	v := future.ValueOf(ctx, f)
	assert.Equal(t, v.IsPending(), true)

	got, err := v.Future().Await(ctx)
	assert.Error(t, err, boom)
	assert.Equal(t, got, 0)
}

func TestValueOfSurvivesTheMapRace(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 256; i++ {
		src := future.Done(0, boom)
		mapped := future.Map(ctx, src, func(n int, err error) (int, error) {
			return n, err
		})
		v := future.ValueOf(ctx, mapped)

		var err error
		if v.IsPending() {
			_, err = v.Future().Await(ctx)
		}
		assert.Error(t, err, boom)
	}
}
