package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"sentinel/internal/retry"
	"sentinel/pkg/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

const (
	defaultPriceAPIURL = "https://api.coingecko.com/api/v3/simple/token_price"
	priceCallTimeout   = 5 * time.Second
	metadataTimeout    = 10 * time.Second
)

// NativeAsset is the pseudo-asset key used for unwrapped chain currency.
const NativeAsset = "native"

// coingecko platform slugs per chain id.
var pricePlatforms = map[uint64]string{
	1:     "ethereum",
	10:    "optimistic-ethereum",
	56:    "binance-smart-chain",
	137:   "polygon-pos",
	250:   "fantom",
	42161: "arbitrum-one",
	43114: "avalanche",
}

// WrappedNativeTokens maps chain id to its canonical wrapped-native token.
var WrappedNativeTokens = map[uint64]string{
	1:     "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
	10:    "0x4200000000000000000000000000000000000006",
	56:    "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c",
	137:   "0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270",
	43114: "0xb31f66aa3c1e785363f0875a1b74e27b85fd66c7",
}

var erc20ABI = mustParseABI(`[
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
	{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]}
]`)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse erc20 abi: %v", err))
	}
	return parsed
}

// Client resolves prices from a coingecko-style HTTP API and metadata from
// on-chain view calls. Results are cached for the client's lifetime; the
// analyzer constructs one per transaction batch so staleness stays bounded.
type Client struct {
	eth        *ethclient.Client
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
	retrier    *retry.Retrier

	mu       sync.RWMutex
	prices   map[string]float64
	noPrices map[string]struct{}
	metadata map[string]Metadata
}

// NewClient builds a provider backed by the given node client.
func NewClient(eth *ethclient.Client, apiURL, apiKey string, logger *logrus.Logger) *Client {
	if apiURL == "" {
		apiURL = defaultPriceAPIURL
	}
	return &Client{
		eth:        eth,
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: priceCallTimeout},
		logger:     logger,
		retrier:    retry.NewRetrier(retry.NetworkRetryConfig, logger),
		prices:     make(map[string]float64),
		noPrices:   make(map[string]struct{}),
		metadata:   make(map[string]Metadata),
	}
}

func (c *Client) USDPrice(ctx context.Context, asset string, chainID uint64) (float64, bool) {
	asset = models.NormalizeAddress(asset)
	if asset == NativeAsset {
		wrapped, ok := WrappedNativeTokens[chainID]
		if !ok {
			return 0, false
		}
		asset = wrapped
	}

	c.mu.RLock()
	if price, ok := c.prices[asset]; ok {
		c.mu.RUnlock()
		return price, true
	}
	if _, miss := c.noPrices[asset]; miss {
		c.mu.RUnlock()
		return 0, false
	}
	c.mu.RUnlock()

	price, ok := c.fetchPrice(ctx, asset, chainID)

	c.mu.Lock()
	if ok {
		c.prices[asset] = price
	} else {
		c.noPrices[asset] = struct{}{}
	}
	c.mu.Unlock()

	return price, ok
}

func (c *Client) fetchPrice(ctx context.Context, asset string, chainID uint64) (float64, bool) {
	platform, ok := pricePlatforms[chainID]
	if !ok {
		return 0, false
	}

	params := url.Values{}
	params.Set("contract_addresses", asset)
	params.Set("vs_currencies", "usd")
	if c.apiKey != "" {
		params.Set("x_cg_api_key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/%s?%s", c.apiURL, platform, params.Encode())

	var payload map[string]map[string]float64
	err := c.retrier.Execute(ctx, "price_api", func() error {
		reqCtx, cancel := context.WithTimeout(ctx, priceCallTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("price api returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	})
	if err != nil {
		c.logger.Debugf("price lookup failed for %s: %v", asset, err)
		return 0, false
	}

	entry, ok := payload[asset]
	if !ok {
		return 0, false
	}
	price, ok := entry["usd"]
	return price, ok && price > 0
}

func (c *Client) TokenMetadata(ctx context.Context, asset string) (Metadata, error) {
	asset = models.NormalizeAddress(asset)

	c.mu.RLock()
	if meta, ok := c.metadata[asset]; ok {
		c.mu.RUnlock()
		return meta, nil
	}
	c.mu.RUnlock()

	var meta Metadata
	err := c.retrier.Execute(ctx, "token_metadata", func() error {
		callCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
		defer cancel()

		decimals, err := c.callUint8(callCtx, asset, "decimals")
		if err != nil {
			return err
		}
		symbol, err := c.callString(callCtx, asset, "symbol")
		if err != nil {
			// Symbol is cosmetic; some tokens store it as bytes32.
			symbol = ""
		}
		supply, err := c.callBigInt(callCtx, asset, "totalSupply")
		if err != nil {
			return err
		}

		meta = Metadata{Decimals: decimals, Symbol: symbol, TotalSupply: supply}
		return nil
	})
	if err != nil {
		return Metadata{}, fmt.Errorf("metadata for %s: %w", asset, err)
	}

	c.mu.Lock()
	c.metadata[asset] = meta
	c.mu.Unlock()

	return meta, nil
}

func (c *Client) call(ctx context.Context, asset, method string) ([]interface{}, error) {
	data, err := erc20ABI.Pack(method)
	if err != nil {
		return nil, err
	}
	to := common.HexToAddress(asset)
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return erc20ABI.Unpack(method, raw)
}

func (c *Client) callUint8(ctx context.Context, asset, method string) (uint8, error) {
	out, err := c.call(ctx, asset, method)
	if err != nil || len(out) == 0 {
		return 0, fmt.Errorf("%s() call failed: %w", method, err)
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%s() returned unexpected type %T", method, out[0])
	}
	return v, nil
}

func (c *Client) callString(ctx context.Context, asset, method string) (string, error) {
	out, err := c.call(ctx, asset, method)
	if err != nil || len(out) == 0 {
		return "", fmt.Errorf("%s() call failed: %w", method, err)
	}
	v, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("%s() returned unexpected type %T", method, out[0])
	}
	return v, nil
}

func (c *Client) callBigInt(ctx context.Context, asset, method string) (*big.Int, error) {
	out, err := c.call(ctx, asset, method)
	if err != nil || len(out) == 0 {
		return nil, fmt.Errorf("%s() call failed: %w", method, err)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s() returned unexpected type %T", method, out[0])
	}
	return v, nil
}
