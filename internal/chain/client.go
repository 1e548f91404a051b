package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"sentinel/internal/retry"
	"sentinel/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

const (
	defaultCallTimeout = 10 * time.Second
	codeCacheSize      = 10000
)

// Client implements StateView against an Ethereum node plus an
// etherscan-compatible explorer API for the queries a node cannot answer
// (incoming transaction counts, funding address, labels).
type Client struct {
	eth         *ethclient.Client
	explorerURL string
	apiKey      string
	httpClient  *http.Client
	logger      *logrus.Logger
	retrier     *retry.Retrier

	mu        sync.RWMutex
	codeCache map[string]bool
}

// NewClient dials the node URL and verifies the connection.
func NewClient(ctx context.Context, nodeURL, explorerURL, apiKey string, logger *logrus.Logger) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	eth, err := ethclient.DialContext(dialCtx, nodeURL)
	if err != nil {
		return nil, fmt.Errorf("dial node: %w", err)
	}
	if _, err := eth.ChainID(dialCtx); err != nil {
		eth.Close()
		return nil, fmt.Errorf("verify node connection: %w", err)
	}

	return &Client{
		eth:         eth,
		explorerURL: strings.TrimRight(explorerURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: defaultCallTimeout},
		logger:      logger,
		retrier:     retry.NewRetrier(retry.NetworkRetryConfig, logger),
		codeCache:   make(map[string]bool),
	}, nil
}

// Eth exposes the underlying node client for the scanner.
func (c *Client) Eth() *ethclient.Client {
	return c.eth
}

// IsContract checks bytecode presence, caching results for the process
// lifetime since code presence only changes on deploy/selfdestruct.
func (c *Client) IsContract(ctx context.Context, address string) (bool, error) {
	address = models.NormalizeAddress(address)

	c.mu.RLock()
	cached, ok := c.codeCache[address]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var code []byte
	err := c.retrier.Execute(ctx, "eth_getCode", func() error {
		callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
		defer cancel()
		var err error
		code, err = c.eth.CodeAt(callCtx, common.HexToAddress(address), nil)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("code lookup for %s: %w", address, err)
	}

	isContract := len(code) > 0
	c.mu.Lock()
	if len(c.codeCache) < codeCacheSize {
		c.codeCache[address] = isContract
	}
	c.mu.Unlock()

	return isContract, nil
}

func (c *Client) OutgoingCount(ctx context.Context, address string) (uint64, error) {
	var nonce uint64
	err := c.retrier.Execute(ctx, "eth_getTransactionCount", func() error {
		callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
		defer cancel()
		var err error
		nonce, err = c.eth.NonceAt(callCtx, common.HexToAddress(address), nil)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("nonce lookup for %s: %w", address, err)
	}
	return nonce, nil
}

// explorerTx is the subset of the explorer txlist entry we consume.
type explorerTx struct {
	Hash string `json:"hash"`
	From string `json:"from"`
	To   string `json:"to"`
}

type explorerResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) IncomingCount(ctx context.Context, address string) (uint64, error) {
	txs, err := c.fetchTxList(ctx, address)
	if err != nil {
		return 0, err
	}

	address = models.NormalizeAddress(address)
	var count uint64
	for _, tx := range txs {
		if models.NormalizeAddress(tx.To) == address {
			count++
		}
	}
	return count, nil
}

func (c *Client) FundingAddress(ctx context.Context, address string) (string, error) {
	txs, err := c.fetchTxList(ctx, address)
	if err != nil {
		return "", err
	}

	address = models.NormalizeAddress(address)
	// txlist is ascending by block; the first inbound transfer funded the account.
	for _, tx := range txs {
		if models.NormalizeAddress(tx.To) == address {
			return models.NormalizeAddress(tx.From), nil
		}
	}
	return "", nil
}

func (c *Client) AddressLabels(ctx context.Context, address string) ([]string, error) {
	if c.explorerURL == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "addresslabel")
	params.Set("address", models.NormalizeAddress(address))
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	body, err := c.explorerGet(ctx, params)
	if err != nil {
		return nil, err
	}

	var labels []string
	if err := json.Unmarshal(body, &labels); err != nil {
		// Some explorers return a single label string.
		var single string
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return nil, fmt.Errorf("decode labels for %s: %w", address, err)
		}
		if single != "" {
			labels = []string{single}
		}
	}
	return labels, nil
}

func (c *Client) fetchTxList(ctx context.Context, address string) ([]explorerTx, error) {
	if c.explorerURL == "" {
		return nil, fmt.Errorf("no explorer configured")
	}

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", models.NormalizeAddress(address))
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("sort", "asc")
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	body, err := c.explorerGet(ctx, params)
	if err != nil {
		return nil, err
	}

	var txs []explorerTx
	if err := json.Unmarshal(body, &txs); err != nil {
		return nil, fmt.Errorf("decode txlist for %s: %w", address, err)
	}
	return txs, nil
}

func (c *Client) explorerGet(ctx context.Context, params url.Values) (json.RawMessage, error) {
	var result json.RawMessage
	err := c.retrier.Execute(ctx, "explorer_api", func() error {
		reqCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.explorerURL+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("explorer returned status %d", resp.StatusCode)
		}

		var decoded explorerResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return err
		}
		if decoded.Status != "1" && decoded.Message != "No transactions found" {
			return fmt.Errorf("explorer error: %s", decoded.Message)
		}
		result = decoded.Result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close releases the node connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}
