package recalc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itch-rewards/internal/model"
)

// recordingStore counts save calls and keeps the last saved list.
type recordingStore struct {
	saves []string
	last  []model.RewardState
}

func (s *recordingStore) Rewards(_ context.Context, _ string) ([]model.RewardState, error) {
	return nil, nil
}

func (s *recordingStore) SaveRewards(_ context.Context, productID string, rewards []model.RewardState) error {
	s.saves = append(s.saves, productID)
	s.last = append([]model.RewardState(nil), rewards...)
	return nil
}

func TestPersister_Commit(t *testing.T) {
	store := &recordingStore{}
	p := NewPersister(store, true)

	rewards := []model.RewardState{
		{ID: 1, Amount: 5, Description: "one"},
		{ID: 2, Amount: 9, Description: "two"},
	}

	require.NoError(t, p.Apply(rewards, 2, model.CalculationResult{TruncatedAmount: 11, NewDescription: "Have 11 left"}))
	assert.Equal(t, int64(11), rewards[1].Amount)
	assert.Equal(t, "Have 11 left", rewards[1].Description)
	assert.Equal(t, int64(5), rewards[0].Amount)

	require.NoError(t, p.Flush(context.Background(), "42", rewards))
	assert.Equal(t, []string{"42"}, store.saves)
	assert.Len(t, store.last, 2, "the whole list is saved")
}

func TestPersister_DryRun(t *testing.T) {
	store := &recordingStore{}
	p := NewPersister(store, false)

	rewards := []model.RewardState{{ID: 1, Amount: 5, Description: "one"}}

	require.NoError(t, p.Apply(rewards, 1, model.CalculationResult{TruncatedAmount: 8, NewDescription: "eight"}))
	require.NoError(t, p.Flush(context.Background(), "42", rewards))

	assert.Equal(t, int64(5), rewards[0].Amount)
	assert.Equal(t, "one", rewards[0].Description)
	assert.Empty(t, store.saves)
}

func TestPersister_UnknownReward(t *testing.T) {
	p := NewPersister(&recordingStore{}, true)
	err := p.Apply([]model.RewardState{{ID: 1}}, 99, model.CalculationResult{})
	assert.ErrorIs(t, err, ErrRewardNotFound)
}
