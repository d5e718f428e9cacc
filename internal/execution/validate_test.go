package execution

import (
	"testing"

	"trade_guard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatePipeline() *Pipeline {
	return &Pipeline{
		quoteCurrency: "USD",
		minNotional:   10,
		takerFeePct:   0.40,
	}
}

func TestValidatePairQuote(t *testing.T) {
	p := gatePipeline()

	assert.NoError(t, p.ValidatePairQuote("BTC/USD"))
	assert.NoError(t, p.ValidatePairQuote("ETH/USD"))

	for _, pair := range []string{"BTC/EUR", "ETH/USDT", "BTCUSD", "USD/BTC"} {
		err := p.ValidatePairQuote(pair)
		require.Error(t, err, pair)
		re, ok := err.(*RejectError)
		require.True(t, ok)
		assert.Equal(t, RejectBadQuote, re.Code)
	}
}

func TestValidateSellContext(t *testing.T) {
	p := gatePipeline()

	// explicit context always passes
	assert.NoError(t, p.validateSellContext(models.OrderIntent{
		Reason: "Take-profit normal", SellContext: models.SellContextExitEngine,
	}))

	// no context, ordinary reason: rejected
	err := p.validateSellContext(models.OrderIntent{Reason: "Take-profit normal"})
	require.Error(t, err)
	assert.Equal(t, RejectNoSellContext, err.(*RejectError).Code)

	// the emergency escape hatch
	for _, reason := range []string{
		"stop-loss triggered",
		"Emergency close",
		"SL_EMERGENCY",
		"panic stoploss exit",
	} {
		assert.NoError(t, p.validateSellContext(models.OrderIntent{Reason: reason}), reason)
	}
}

func TestValidateMinOrder(t *testing.T) {
	p := gatePipeline()

	// exactly at the floor is accepted
	assert.NoError(t, p.validateMinOrder(10, 0))
	assert.NoError(t, p.validateMinOrder(10, 100))

	err := p.validateMinOrder(9.99, 100)
	require.Error(t, err)
	assert.Equal(t, RejectBelowMinOrder, err.(*RejectError).Code)

	// funding check: available minus fee cushion must keep the floor
	err = p.validateMinOrder(1000, 12)
	require.Error(t, err)
	assert.Equal(t, RejectInsufficientFees, err.(*RejectError).Code)

	// unknown availability skips the funding check
	assert.NoError(t, p.validateMinOrder(1000, 0))
}
