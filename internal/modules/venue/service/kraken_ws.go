package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"trade_guard/internal/models"
	"trade_guard/pkg/logger"

	"github.com/bytedance/sonic"
)

const krakenWSURL = "wss://ws.kraken.com"

func wsPair(pair string) string {
	return strings.Replace(pair, "BTC", "XBT", 1)
}

// StreamTickers keeps the ticker cache warm over the public websocket.
// Reconnects with backoff; the REST fallback in Ticker covers the gaps.
func (k *Kraken) StreamTickers(ctx context.Context, pairs []string) {
	if len(pairs) == 0 {
		return
	}

	// ws pair code -> dashboard pair
	names := make(map[string]string, len(pairs))
	subs := make([]string, 0, len(pairs))
	for _, p := range pairs {
		names[wsPair(p)] = p
		subs = append(subs, wsPair(p))
	}

	go func() {
		retry := 0
		for {
			if ctx.Err() != nil {
				return
			}
			conn, _, err := k.wsDialer.DialContext(ctx, k.wsURL, nil)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				retry++
				delay := time.Duration(300*retry) * time.Millisecond
				if delay > 30*time.Second {
					delay = 30 * time.Second
				}
				logger.Warn("kraken ws: dial failed (attempt %d): %v", retry, err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				continue
			}
			retry = 0

			_ = conn.WriteJSON(map[string]any{
				"event":        "subscribe",
				"pair":         subs,
				"subscription": map[string]string{"name": "ticker"},
			})

			// pings keep the venue from dropping us; the ctx branch closes
			// the socket so the blocked ReadMessage below returns on shutdown
			stopPing := make(chan struct{})
			go func() {
				t := time.NewTicker(15 * time.Second)
				defer t.Stop()
				for {
					select {
					case <-stopPing:
						return
					case <-ctx.Done():
						_ = conn.Close()
						return
					case <-t.C:
						_ = conn.WriteJSON(map[string]string{"event": "ping"})
					}
				}
			}()

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					close(stopPing)
					_ = conn.Close()
					break
				}
				k.handleTickerFrame(msg, names)
			}
		}
	}()
}

// ticker frames arrive as [channelID, payload, "ticker", "XBT/USD"]
func (k *Kraken) handleTickerFrame(msg []byte, names map[string]string) {
	var frame []any
	if err := sonic.Unmarshal(msg, &frame); err != nil || len(frame) != 4 {
		return
	}
	kind, _ := frame[2].(string)
	if kind != "ticker" {
		return
	}
	code, _ := frame[3].(string)
	pair, ok := names[code]
	if !ok {
		return
	}
	payload, ok := frame[1].(map[string]any)
	if !ok {
		return
	}

	t := models.Ticker{
		Pair: pair,
		Ask:  firstFloat(payload["a"]),
		Bid:  firstFloat(payload["b"]),
		Last: firstFloat(payload["c"]),
	}
	if t.Bid <= 0 && t.Ask <= 0 && t.Last <= 0 {
		return
	}

	k.mu.Lock()
	k.tickers[pair] = t
	k.mu.Unlock()
}

func firstFloat(v any) float64 {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return 0
	}
	s, ok := arr[0].(string)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
