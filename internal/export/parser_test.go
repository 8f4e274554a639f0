package export

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(zerolog.Nop())
}

func TestParseFullExport(t *testing.T) {
	raw := "Epoch,Effective Time,Effective Slot,Effective Time Unix,Reward Amount,Change Percentage,Post Balance,Commission\n" +
		"620,2024-05-01T00:00:00Z,268000000,1714521600,12345,0.01,9990000000,5\n" +
		"621,2024-05-03T00:00:00Z,268432000,1714694400,12400,0.01,10002400000,5\n"

	records, err := newTestParser().Parse(raw)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, uint32(620), records[0].Epoch)
	assert.Equal(t, "2024-05-01T00:00:00Z", records[0].EffectiveTime)
	assert.Equal(t, uint64(268000000), records[0].EffectiveSlot)
	assert.Equal(t, int64(1714521600), records[0].EffectiveTimeUnix)
	assert.Equal(t, 12345.0, records[0].RewardAmount)
	assert.Equal(t, uint64(9990000000), records[0].PostBalance)
	assert.Equal(t, uint8(5), records[0].Commission)

	// Row order is preserved
	assert.Equal(t, uint32(621), records[1].Epoch)
}

func TestParseFuzzyHeaders(t *testing.T) {
	// Headers vary between exports; matching is by substring
	raw := "epoch number,effective time (UTC),staking reward\n7,2024-01-01,42\n"

	records, err := newTestParser().Parse(raw)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(7), records[0].Epoch)
	assert.Equal(t, "2024-01-01", records[0].EffectiveTime)
	assert.Equal(t, 42.0, records[0].RewardAmount)
}

func TestParseScrubsFormattedNumbers(t *testing.T) {
	records, err := newTestParser().Parse("Epoch,Reward Amount\n5,$1,234.50\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(5), records[0].Epoch)
	assert.Equal(t, 1234.50, records[0].RewardAmount)
}

func TestParseGarbageCellYieldsZero(t *testing.T) {
	records, err := newTestParser().Parse("Epoch,Reward Amount\n5,garbage\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint32(5), records[0].Epoch)
	assert.Equal(t, 0.0, records[0].RewardAmount)
}

func TestParseCorruptRowDoesNotAbort(t *testing.T) {
	raw := "Epoch,Reward Amount\n5,100\nnot-a-number,also-garbage\n6,200\n"

	records, err := newTestParser().Parse(raw)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 100.0, records[0].RewardAmount)
	assert.Equal(t, 0.0, records[1].RewardAmount)
	assert.Equal(t, 200.0, records[2].RewardAmount)
}

func TestParseMissingRows(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":        "",
		"blank lines":  "\n\n  \n",
		"header only":  "Epoch,Effective Time,Reward Amount\n",
		"single value": "just one line",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newTestParser().Parse(raw)
			assert.ErrorIs(t, err, ErrMalformedInput)
		})
	}
}

func TestParseUnusableHeader(t *testing.T) {
	// A multi-line payload without epoch/reward columns is not an empty
	// result, it is a parse failure
	_, err := newTestParser().Parse("Foo,Bar\n1,2\n")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedInput)
}

func TestParseShortRow(t *testing.T) {
	// Missing trailing cells read as empty, not as an error
	records, err := newTestParser().Parse("Epoch,Effective Time,Reward Amount\n5,2024-01-01\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].RewardAmount)
}
