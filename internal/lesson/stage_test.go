package lesson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageWireNames(t *testing.T) {
	for st, name := range stageNames {
		raw, err := json.Marshal(st)
		require.NoError(t, err)
		assert.Equal(t, `"`+name+`"`, string(raw))

		var back Stage
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, st, back)
	}
}

func TestStageUnknownNameFailsLoudly(t *testing.T) {
	var st Stage
	err := json.Unmarshal([]byte(`"task_9"`), &st)
	require.Error(t, err)

	_, err = json.Marshal(Stage(42))
	require.Error(t, err)
}

func TestStageTaskNumber(t *testing.T) {
	assert.Equal(t, 0, StageSelectingTopic.TaskNumber())
	assert.Equal(t, 1, StageReading.TaskNumber())
	assert.Equal(t, 3, StageSpeaking.TaskNumber())
	assert.Equal(t, 0, StageDone.TaskNumber())
	assert.True(t, StageListening.InTask())
	assert.False(t, StageDone.InTask())
}
