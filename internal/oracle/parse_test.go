package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReply = `{
	"direction": "LONG",
	"recommended_position_size": 0.25,
	"recommended_leverage": 5,
	"stop_loss_percentage": 0.02,
	"take_profit_percentage": 0.04,
	"reasoning": "momentum continuation"
}`

func TestParseBareObject(t *testing.T) {
	d, err := Parse(validReply)
	require.NoError(t, err)
	assert.Equal(t, DirectionLong, d.Direction)
	assert.Equal(t, 0.25, d.PositionSizeFraction)
	assert.Equal(t, 5, d.Leverage)
	assert.Equal(t, 0.02, d.StopLossPct)
	assert.Equal(t, 0.04, d.TakeProfitPct)
}

func TestParseFencedEqualsBare(t *testing.T) {
	variants := []string{
		"```json\n" + validReply + "\n```",
		"```\n" + validReply + "\n```",
		"Here is my analysis.\n\n" + validReply + "\n\nGood luck.",
	}
	want, err := Parse(validReply)
	require.NoError(t, err)
	for _, v := range variants {
		got, err := Parse(v)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseNoPosition(t *testing.T) {
	d, err := Parse(`{"direction":"NO_POSITION","recommended_position_size":0,"recommended_leverage":0,"stop_loss_percentage":0,"take_profit_percentage":0,"reasoning":"chop"}`)
	require.NoError(t, err)
	assert.False(t, d.WantsTrade())
}

func TestParseNoJSON(t *testing.T) {
	_, err := Parse("I cannot decide right now, the market is too uncertain.")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Raw, "cannot decide")
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := Parse(`{"direction": "LONG", "recommended_position_size": }`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseBadDirection(t *testing.T) {
	_, err := Parse(`{"direction":"HOLD","recommended_position_size":0.1,"recommended_leverage":3,"stop_loss_percentage":0.02,"take_profit_percentage":0.04}`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseWrongFieldType(t *testing.T) {
	_, err := Parse(`{"direction":"LONG","recommended_position_size":"a quarter","recommended_leverage":5,"stop_loss_percentage":0.02,"take_profit_percentage":0.04}`)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseOutOfRange(t *testing.T) {
	cases := map[string]string{
		"size above one":    `{"direction":"SHORT","recommended_position_size":1.5,"recommended_leverage":5,"stop_loss_percentage":0.02,"take_profit_percentage":0.04}`,
		"zero leverage":     `{"direction":"SHORT","recommended_position_size":0.2,"recommended_leverage":0,"stop_loss_percentage":0.02,"take_profit_percentage":0.04}`,
		"stop at 100%":      `{"direction":"SHORT","recommended_position_size":0.2,"recommended_leverage":5,"stop_loss_percentage":1.0,"take_profit_percentage":0.04}`,
		"negative take":     `{"direction":"SHORT","recommended_position_size":0.2,"recommended_leverage":5,"stop_loss_percentage":0.02,"take_profit_percentage":-0.04}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(raw)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
		})
	}
}

func TestHalfKelly(t *testing.T) {
	// p=0.6, b=2: full Kelly 0.4, half Kelly 0.2.
	assert.InDelta(t, 0.2, HalfKelly(0.6, 2), 1e-9)
	assert.Equal(t, 0.0, HalfKelly(0.3, 1))
	assert.Equal(t, 0.0, HalfKelly(0.6, 0))
}
