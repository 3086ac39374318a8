package workitem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratify-hq/stratify/modules/planning/domain/aggregates/workitem"
)

func TestValidateHierarchy_ValidPairs(t *testing.T) {
	t.Parallel()

	valid := []struct {
		parent workitem.Type
		child  workitem.Type
	}{
		{workitem.TypeObjective, workitem.TypeStrategy},
		{workitem.TypeStrategy, workitem.TypeInitiative},
		{workitem.TypeInitiative, workitem.TypeTask},
		{workitem.TypeTask, workitem.TypeSubtask},
	}
	for _, pair := range valid {
		assert.True(t, workitem.CanContain(pair.parent, pair.child))
		assert.NoError(t, workitem.ValidateHierarchy(pair.parent, pair.child))
	}
}

func TestValidateHierarchy_InvalidPairsNameBothTypes(t *testing.T) {
	t.Parallel()

	types := []workitem.Type{
		workitem.TypeObjective,
		workitem.TypeStrategy,
		workitem.TypeInitiative,
		workitem.TypeTask,
		workitem.TypeSubtask,
	}
	for _, parent := range types {
		for _, child := range types {
			if workitem.CanContain(parent, child) {
				continue
			}
			err := workitem.ValidateHierarchy(parent, child)
			require.Error(t, err)
			require.ErrorIs(t, err, workitem.ErrInvalidHierarchy)
			assert.Contains(t, err.Error(), string(parent))
			assert.Contains(t, err.Error(), string(child))
		}
	}
}

func TestValidateHierarchy_TaskCannotContainStrategy(t *testing.T) {
	t.Parallel()

	err := workitem.ValidateHierarchy(workitem.TypeTask, workitem.TypeStrategy)
	require.ErrorIs(t, err, workitem.ErrInvalidHierarchy)
}

func TestIsTopLevel(t *testing.T) {
	t.Parallel()

	assert.True(t, workitem.IsTopLevel(workitem.TypeObjective))
	assert.False(t, workitem.IsTopLevel(workitem.TypeStrategy))
	assert.False(t, workitem.IsTopLevel(workitem.TypeSubtask))
}
