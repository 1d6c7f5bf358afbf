package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itch-rewards/internal/recalc"
)

func TestRewardService_FindProduct(t *testing.T) {
	mem := newExampleStore()
	svc := NewRewardService(mem, mem)
	ctx := context.Background()

	p, err := svc.FindProduct(ctx, "100", "")
	require.NoError(t, err)
	assert.Equal(t, "Space Game", p.Name)

	p, err = svc.FindProduct(ctx, "", "space game")
	require.NoError(t, err)
	assert.Equal(t, "100", p.ID)

	_, err = svc.FindProduct(ctx, "", "Nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRewardService_UpdateReward(t *testing.T) {
	mem := newExampleStore()
	svc := NewRewardService(mem, mem)
	ctx := context.Background()

	amount := int64(25)
	archived := true
	rewards, err := svc.UpdateReward(ctx, "100", 8, RewardUpdate{Amount: &amount, Archived: &archived})
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	assert.Equal(t, int64(25), rewards[1].Amount)
	assert.True(t, rewards[1].Archived)
	assert.Equal(t, "Poster", rewards[1].Title)

	assert.Equal(t, 1, mem.SaveCount("100"))

	_, err = svc.UpdateReward(ctx, "100", 404, RewardUpdate{Amount: &amount})
	assert.ErrorIs(t, err, recalc.ErrRewardNotFound)

	_, err = svc.UpdateReward(ctx, "100", 8, RewardUpdate{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)
}
