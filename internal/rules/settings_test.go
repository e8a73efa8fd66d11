package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings(t *testing.T) {
	t.Parallel()

	s, err := ParseSettings([]byte("randomizeMusic: true\n\"randomizePositions.1-1.type:0x4C\": false\n"))
	require.NoError(t, err)

	assert.True(t, s.Enabled(KeyRandomizeMusic, false))
	assert.False(t, s.Enabled(PositionsKey("1-1", 0x4C), true))
	assert.True(t, s.Enabled(KeyReplaceTitleText, true), "absent keys use the default")

	require.NoError(t, s.Set("levelOrder.keep_5-3_last=false"))
	assert.False(t, s.Enabled(KeyKeepLastRound, true))

	require.ErrorIs(t, s.Set("novalue"), ErrConfig)
	require.ErrorIs(t, s.Set("x=maybe"), ErrConfig)

	assert.Equal(t, "executeProcedures.4-1.proc:randomizeCaveData", ProcedureKey("4-1", ProcCaveData))
	assert.Equal(t, []string{
		"levelOrder.keep_5-3_last",
		"randomizeMusic",
		"randomizePositions.1-1.type:0x4C",
	}, s.Keys())
}

func TestParseSettingsEmpty(t *testing.T) {
	t.Parallel()

	s, err := ParseSettings(nil)
	require.NoError(t, err)
	require.NoError(t, s.Set("randomizeMusic=1"))
	assert.True(t, s.Enabled(KeyRandomizeMusic, false))
}
