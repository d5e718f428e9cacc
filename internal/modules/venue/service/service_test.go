package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trade_guard/internal/models"
	"trade_guard/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logger.InfoLogger = zap.NewNop()
	logger.FatalLogger = zap.NewNop()
}

func TestKrakenPairMapping(t *testing.T) {
	assert.Equal(t, "XBTUSD", krakenPair("BTC/USD"))
	assert.Equal(t, "ETHUSD", krakenPair("ETH/USD"))
	assert.Equal(t, "XBT/USD", wsPair("BTC/USD"))
	assert.Equal(t, "ETH/USD", wsPair("ETH/USD"))
}

func TestHandleTickerFrame(t *testing.T) {
	k := NewKraken("", "")
	names := map[string]string{"XBT/USD": "BTC/USD"}

	frame := []byte(`[42,{"a":["50010.5","1","1.0"],"b":["49990.1","2","2.0"],"c":["50000.0","0.01"]},"ticker","XBT/USD"]`)
	k.handleTickerFrame(frame, names)

	tick, err := k.Ticker(context.Background(), "BTC/USD")
	require.NoError(t, err)
	assert.Equal(t, 50010.5, tick.Ask)
	assert.Equal(t, 49990.1, tick.Bid)
	assert.Equal(t, 50000.0, tick.Last)
}

func TestHandleTickerFrameIgnoresJunk(t *testing.T) {
	k := NewKraken("", "")
	names := map[string]string{"XBT/USD": "BTC/USD"}

	// heartbeat and subscription events must not poison the cache
	k.handleTickerFrame([]byte(`{"event":"heartbeat"}`), names)
	k.handleTickerFrame([]byte(`[42,{"a":["x"]},"spread","XBT/USD"]`), names)
	k.handleTickerFrame([]byte(`[42,{},"ticker","UNKNOWN/PAIR"]`), names)

	k.mu.RLock()
	defer k.mu.RUnlock()
	assert.Empty(t, k.tickers)
}

func TestFirstFloat(t *testing.T) {
	assert.Equal(t, 1.5, firstFloat([]any{"1.5", "2"}))
	assert.Equal(t, 0.0, firstFloat([]any{}))
	assert.Equal(t, 0.0, firstFloat("not an array"))
	assert.Equal(t, 0.0, firstFloat(nil))
}

func TestStreamTickersDeliversAndStopsOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverGone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		// subscribe request comes first
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		frame := `[42,{"a":["50010.5","1","1.0"],"b":["49990.1","2","2.0"],"c":["50000.0","0.01"]},"ticker","XBT/USD"]`
		_ = c.WriteMessage(websocket.TextMessage, []byte(frame))

		// block until the client side goes away
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				close(serverGone)
				return
			}
		}
	}))
	defer srv.Close()

	k := NewKraken("", "")
	k.wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	k.StreamTickers(ctx, []string{"BTC/USD"})

	require.Eventually(t, func() bool {
		k.mu.RLock()
		defer k.mu.RUnlock()
		_, ok := k.tickers["BTC/USD"]
		return ok
	}, 2*time.Second, 10*time.Millisecond, "stream never populated the cache")

	// cancellation must unblock the read loop and drop the connection
	cancel()
	select {
	case <-serverGone:
	case <-time.After(2 * time.Second):
		t.Fatal("stream connection survived cancellation")
	}
}

func TestPaperFillsWithMarkup(t *testing.T) {
	p := NewPaper(1.5)
	p.SetPrice("BTC/USD", 100)

	buy, err := p.PlaceOrder(context.Background(), models.OrderIntent{
		Pair: "BTC/USD", Side: models.SideBuy, Volume: 2,
	})
	require.NoError(t, err)
	assert.InDelta(t, 101.5, buy.Price, 1e-9)
	assert.InDelta(t, 203.0, buy.Notional, 1e-9)
	assert.NotEmpty(t, buy.OrderID)

	sell, err := p.PlaceOrder(context.Background(), models.OrderIntent{
		Pair: "BTC/USD", Side: models.SideSell, Volume: 2,
	})
	require.NoError(t, err)
	assert.InDelta(t, 98.5, sell.Price, 1e-9)
}

func TestPaperSyntheticBook(t *testing.T) {
	p := NewPaper(2.0)
	p.SetPrice("ETH/USD", 200)

	tick, err := p.Ticker(context.Background(), "ETH/USD")
	require.NoError(t, err)
	assert.InDelta(t, 198.0, tick.Bid, 1e-9)
	assert.InDelta(t, 202.0, tick.Ask, 1e-9)
	assert.Equal(t, 200.0, tick.Last)

	_, err = p.Ticker(context.Background(), "XRP/USD")
	assert.Error(t, err)
}
