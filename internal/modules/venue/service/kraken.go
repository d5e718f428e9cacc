package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"trade_guard/internal/models"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const krakenBaseURL = "https://api.kraken.com"

type Kraken struct {
	http      *http.Client
	wsDialer  *websocket.Dialer
	wsURL     string
	apiKey    string
	apiSecret string

	mu      sync.RWMutex
	tickers map[string]models.Ticker
}

func NewKraken(key, secret string) *Kraken {
	return &Kraken{
		http:      &http.Client{Timeout: 10 * time.Second},
		wsDialer:  &websocket.Dialer{},
		wsURL:     krakenWSURL,
		apiKey:    key,
		apiSecret: secret,
		tickers:   make(map[string]models.Ticker),
	}
}

func (k *Kraken) Name() string { return "kraken" }

// krakenPair maps "BTC/USD" to the REST pair code.
func krakenPair(pair string) string {
	p := strings.ReplaceAll(pair, "/", "")
	p = strings.Replace(p, "BTC", "XBT", 1)
	return p
}

func (k *Kraken) sign(path string, values url.Values) string {
	nonce := values.Get("nonce")
	sha := sha256.Sum256([]byte(nonce + values.Encode()))
	secret, _ := base64.StdEncoding.DecodeString(k.apiSecret)
	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(path))
	mac.Write(sha[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (k *Kraken) private(ctx context.Context, path string, values url.Values, out any) error {
	values.Set("nonce", strconv.FormatInt(time.Now().UnixNano(), 10))

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		krakenBaseURL+path,
		strings.NewReader(values.Encode()),
	)
	if err != nil {
		return fmt.Errorf("kraken new request: %w", err)
	}
	req.Header.Set("API-Key", k.apiKey)
	req.Header.Set("API-Sign", k.sign(path, values))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.http.Do(req)
	if err != nil {
		return fmt.Errorf("kraken do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("kraken http %d: %s", resp.StatusCode, string(data))
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("kraken decode: %w; body=%s", err, string(data))
	}
	return nil
}

// PlaceOrder submits a market order. Kraken acks with txids only; fill
// price and volume are usually absent, which the execution pipeline
// resolves through its fallback chain.
func (k *Kraken) PlaceOrder(ctx context.Context, intent models.OrderIntent) (models.VenueResponse, error) {
	ordType := intent.OrderType
	if ordType == "" {
		ordType = models.OrderMarket
	}

	values := url.Values{}
	values.Set("pair", krakenPair(intent.Pair))
	values.Set("type", intent.Side)
	values.Set("ordertype", ordType)
	values.Set("volume", strconv.FormatFloat(intent.Volume, 'f', -1, 64))

	var r struct {
		Error  []string `json:"error"`
		Result struct {
			TxID  []string `json:"txid"`
			Descr struct {
				Order string `json:"order"`
			} `json:"descr"`
			Price  string `json:"price"`
			Volume string `json:"vol_exec"`
			Cost   string `json:"cost"`
		} `json:"result"`
	}
	if err := k.private(ctx, "/0/private/AddOrder", values, &r); err != nil {
		return models.VenueResponse{}, err
	}
	if len(r.Error) > 0 {
		return models.VenueResponse{}, fmt.Errorf("kraken order rejected: %s", strings.Join(r.Error, "; "))
	}

	out := models.VenueResponse{}
	if len(r.Result.TxID) > 0 {
		out.TxID = r.Result.TxID[0]
	}
	out.Price, _ = strconv.ParseFloat(r.Result.Price, 64)
	out.Volume, _ = strconv.ParseFloat(r.Result.Volume, 64)
	out.Notional, _ = strconv.ParseFloat(r.Result.Cost, 64)
	return out, nil
}

func (k *Kraken) Balances(ctx context.Context) (map[string]float64, error) {
	var r struct {
		Error  []string          `json:"error"`
		Result map[string]string `json:"result"`
	}
	if err := k.private(ctx, "/0/private/Balance", url.Values{}, &r); err != nil {
		return nil, err
	}
	if len(r.Error) > 0 {
		return nil, fmt.Errorf("kraken balance: %s", strings.Join(r.Error, "; "))
	}

	out := make(map[string]float64, len(r.Result))
	for asset, amt := range r.Result {
		v, err := strconv.ParseFloat(amt, 64)
		if err != nil {
			continue
		}
		// ZUSD -> USD, XXBT -> XBT
		out[strings.TrimLeft(asset, "ZX")] = v
	}
	return out, nil
}

// Ticker serves from the websocket cache and falls back to REST when the
// stream has not delivered this pair yet.
func (k *Kraken) Ticker(ctx context.Context, pair string) (models.Ticker, error) {
	k.mu.RLock()
	t, ok := k.tickers[pair]
	k.mu.RUnlock()
	if ok {
		return t, nil
	}
	return k.restTicker(ctx, pair)
}

func (k *Kraken) restTicker(ctx context.Context, pair string) (models.Ticker, error) {
	u := krakenBaseURL + "/0/public/Ticker?pair=" + url.QueryEscape(krakenPair(pair))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Ticker{}, fmt.Errorf("kraken ticker request: %w", err)
	}
	resp, err := k.http.Do(req)
	if err != nil {
		return models.Ticker{}, fmt.Errorf("kraken ticker do: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	var r struct {
		Error  []string `json:"error"`
		Result map[string]struct {
			A []string `json:"a"` // ask
			B []string `json:"b"` // bid
			C []string `json:"c"` // last trade
		} `json:"result"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.Ticker{}, fmt.Errorf("kraken ticker decode: %w; body=%s", err, string(data))
	}
	if len(r.Error) > 0 {
		return models.Ticker{}, fmt.Errorf("kraken ticker: %s", strings.Join(r.Error, "; "))
	}

	for _, v := range r.Result {
		t := models.Ticker{Pair: pair}
		if len(v.A) > 0 {
			t.Ask, _ = strconv.ParseFloat(v.A[0], 64)
		}
		if len(v.B) > 0 {
			t.Bid, _ = strconv.ParseFloat(v.B[0], 64)
		}
		if len(v.C) > 0 {
			t.Last, _ = strconv.ParseFloat(v.C[0], 64)
		}
		k.mu.Lock()
		k.tickers[pair] = t
		k.mu.Unlock()
		return t, nil
	}
	return models.Ticker{}, fmt.Errorf("kraken ticker: empty result for %s", pair)
}
