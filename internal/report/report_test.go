package report

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itch-rewards/internal/model"
	"itch-rewards/internal/service"
)

func TestChange(t *testing.T) {
	q := model.QuantityChange("Space Game", "100", 7, 10, 11)
	assert.Equal(t, "Changing Space Game reward 7 quantity from 10 to 11", Change(q))

	d := model.DescriptionChange("Space Game", "100", 7, "old", "Have 11 left")
	assert.Equal(t, "Changing Space Game reward 7 description to:\nHave 11 left", Change(d))
}

func TestRun(t *testing.T) {
	rule := model.RewardRule{ProductName: "Space Game", RewardID: 7}
	r := &service.RunReport{
		Results: []service.RuleResult{{
			Rule:     rule,
			Previous: model.RewardState{ID: 7, Amount: 10, Claimed: 2},
			Result:   model.CalculationResult{RawAmount: decimal.RequireFromString("11.4"), TruncatedAmount: 11},
		}},
		Changes:  []model.Change{model.QuantityChange("Space Game", "100", 7, 10, 11)},
		Warnings: []string{"Could not find reward 9 for game Other, skipping..."},
	}

	var buf bytes.Buffer
	require.NoError(t, Run(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "Dry run")
	assert.Contains(t, out, "WARN Could not find reward 9")
	assert.Contains(t, out, "quantity from 10 to 11")
	assert.Contains(t, out, "11.40")
	assert.NotContains(t, out, "up to date")
}

func TestRun_NothingToDo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Run(&buf, &service.RunReport{Committed: true}))
	assert.Equal(t, "All rewards are up to date\n", buf.String())
}

func TestRewards(t *testing.T) {
	var buf bytes.Buffer
	err := Rewards(&buf, model.Product{ID: "100", Name: "Space Game"}, []model.RewardState{
		{ID: 7, Title: "Signed copy", Amount: 10, Claimed: 2, Description: "line one\nline two"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Rewards for Space Game (id: 100)")
	assert.Contains(t, out, "REMAINING")
	assert.Contains(t, out, `line one\nline two`)

	buf.Reset()
	require.NoError(t, Products(&buf, nil))
	assert.Equal(t, NoData+"\n", buf.String())
}
