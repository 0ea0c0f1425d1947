package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

var (
	deployerAddr = common.HexToAddress("0xD000000000000000000000000000000000000001")
	taxWallet    = common.HexToAddress("0xABCD000000000000000000000000000000000001")
	uniswapV2    = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
)

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func memeParams() models.DeploymentParams {
	return models.DeploymentParams{
		Name:                 "MemeToken",
		Symbol:               "MEME",
		TotalSupply:          tokens(1_000_000_000),
		TaxWallet:            taxWallet,
		Router:               uniswapV2,
		BuyTaxBps:            500,
		SellTaxBps:           500,
		MaxTransactionAmount: tokens(10_000_000),
		MaxWalletAmount:      tokens(50_000_000),
		DailyTradingLimit:    tokens(50_000_000),
	}
}

func sepolia() *config.Network {
	return &config.Network{
		Name:        "sepolia",
		ChainID:     11155111,
		RPCURL:      "https://sepolia.example",
		ExplorerURL: "https://sepolia.etherscan.io",
		Public:      true,
		Router:      common.HexToAddress("0xC532a74256D3Db42D0Bf7a0400fEFDbad7694008"),
	}
}

func testConfig(network *config.Network) *config.RuntimeConfig {
	verification := config.DefaultVerificationPolicy()
	return &config.RuntimeConfig{
		ProjectRoot: "/project",
		Network:     network,
		Artifact: config.ArtifactConfig{
			Path:            "/project/out/MemeToken.sol/MemeToken.json",
			ContractPath:    "src/MemeToken.sol:MemeToken",
			CompilerVersion: "0.8.20",
		},
		Confirmation: config.DefaultConfirmationPolicy(),
		Verification: verification,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock advances on Sleep instead of blocking
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	// onSleep runs before each sleep returns; a non-nil error aborts it
	onSleep func(n int, d time.Duration) error
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	n := len(c.sleeps)
	c.now = c.now.Add(d)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		if err := hook(n, d); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// fakeChain is both the connector and the client of one simulated network
type fakeChain struct {
	mu sync.Mutex

	chainID  uint64
	sender   common.Address
	balance  *big.Int
	head     uint64
	code     map[common.Address][]byte
	receipts map[common.Hash]*types.Receipt
	// pendingPolls is how many receipt lookups return not found before the receipt shows up
	pendingPolls int
	// neverMined keeps every receipt lookup pending
	neverMined bool
	// revert marks mined receipts as failed
	revert bool

	deployErr    error
	deployments  int
	receiptCalls int
	closed       int
	txCount      int

	token *fakeToken
}

func newFakeChain() *fakeChain {
	c := &fakeChain{
		chainID:  11155111,
		sender:   deployerAddr,
		balance:  tokens(5),
		head:     100,
		code:     map[common.Address][]byte{},
		receipts: map[common.Hash]*types.Receipt{},
	}
	c.token = newFakeToken(c)
	return c
}

func (c *fakeChain) Connect(_ context.Context, network *config.Network) (usecase.ChainClient, error) {
	return c, nil
}

func (c *fakeChain) ChainID() uint64        { return c.chainID }
func (c *fakeChain) Sender() common.Address { return c.sender }

func (c *fakeChain) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int).Set(c.balance), nil
}

func (c *fakeChain) CodeAt(_ context.Context, account common.Address) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code[account], nil
}

func (c *fakeChain) BlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

func (c *fakeChain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiptCalls++
	if c.neverMined || c.receiptCalls <= c.pendingPolls {
		return nil, domain.ErrNotFound
	}
	r, ok := c.receipts[txHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// mine records a transaction in the next block
func (c *fakeChain) mine() common.Hash {
	c.txCount++
	hash := common.BigToHash(big.NewInt(int64(0xF00 + c.txCount)))
	c.head++
	status := types.ReceiptStatusSuccessful
	if c.revert {
		status = types.ReceiptStatusFailed
	}
	c.receipts[hash] = &types.Receipt{Status: status, BlockNumber: new(big.Int).SetUint64(c.head), TxHash: hash}
	return hash
}

func (c *fakeChain) DeployContract(_ context.Context, code []byte) (common.Address, common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deployErr != nil {
		return common.Address{}, common.Hash{}, c.deployErr
	}
	c.deployments++
	addr := common.BigToAddress(big.NewInt(int64(0x7000 + c.deployments)))
	c.code[addr] = code
	return addr, c.mine(), nil
}

func (c *fakeChain) Token(address common.Address) (usecase.TokenContract, error) {
	c.token.address = address
	return c.token, nil
}

func (c *fakeChain) Close() { c.closed++ }

// fakeToken simulates the token contract state
type fakeToken struct {
	chain   *fakeChain
	address common.Address

	owner          common.Address
	buyTax         uint64
	sellTax        uint64
	tradingEnabled bool
	balances       map[common.Address]*big.Int
	allowances     map[[2]common.Address]*big.Int

	// estimateErr fails EstimateGas per method
	estimateErr map[string]error
	// onAllowanceRead runs on every allowance read with its 1-based count
	onAllowanceRead func(n int)
	allowanceReads  int
	sent            []models.TokenCall
}

func newFakeToken(chain *fakeChain) *fakeToken {
	return &fakeToken{
		chain:       chain,
		owner:       deployerAddr,
		buyTax:      500,
		sellTax:     500,
		balances:    map[common.Address]*big.Int{deployerAddr: tokens(1_000_000_000)},
		allowances:  map[[2]common.Address]*big.Int{},
		estimateErr: map[string]error{},
	}
}

func (t *fakeToken) Address() common.Address                           { return t.address }
func (t *fakeToken) Name(context.Context) (string, error)              { return "MemeToken", nil }
func (t *fakeToken) Symbol(context.Context) (string, error)            { return "MEME", nil }
func (t *fakeToken) Decimals(context.Context) (uint8, error)           { return 18, nil }
func (t *fakeToken) TotalSupply(context.Context) (*big.Int, error)     { return tokens(1_000_000_000), nil }
func (t *fakeToken) Owner(context.Context) (common.Address, error)     { return t.owner, nil }
func (t *fakeToken) TaxWallet(context.Context) (common.Address, error) { return taxWallet, nil }
func (t *fakeToken) BuyTaxRate(context.Context) (uint64, error)        { return t.buyTax, nil }
func (t *fakeToken) SellTaxRate(context.Context) (uint64, error)       { return t.sellTax, nil }
func (t *fakeToken) TradingEnabled(context.Context) (bool, error)      { return t.tradingEnabled, nil }
func (t *fakeToken) LimitsEnabled(context.Context) (bool, error)       { return true, nil }
func (t *fakeToken) MaxTransactionAmount(context.Context) (*big.Int, error) {
	return tokens(10_000_000), nil
}
func (t *fakeToken) MaxWalletAmount(context.Context) (*big.Int, error) {
	return tokens(50_000_000), nil
}
func (t *fakeToken) DailyTradingLimit(context.Context) (*big.Int, error) {
	return tokens(50_000_000), nil
}

func (t *fakeToken) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	if b, ok := t.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (t *fakeToken) Allowance(_ context.Context, owner, spender common.Address) (*big.Int, error) {
	t.allowanceReads++
	if t.onAllowanceRead != nil {
		t.onAllowanceRead(t.allowanceReads)
	}
	if a, ok := t.allowances[[2]common.Address{owner, spender}]; ok {
		return new(big.Int).Set(a), nil
	}
	return new(big.Int), nil
}

func (t *fakeToken) IsExcludedFromTax(_ context.Context, account common.Address) (bool, error) {
	return account == t.owner || account == taxWallet, nil
}

func (t *fakeToken) IsExcludedFromLimits(_ context.Context, account common.Address) (bool, error) {
	return account == t.owner, nil
}

func (t *fakeToken) EstimateGas(_ context.Context, call models.TokenCall) (uint64, error) {
	if err := t.estimateErr[call.Method]; err != nil {
		return 0, err
	}
	if call.Method == models.MethodSetTaxRates && t.chain.sender != t.owner {
		return 0, fmt.Errorf("%w: OwnableUnauthorizedAccount(%s)", domain.ErrUnauthorized, t.chain.sender.Hex())
	}
	return 60_000, nil
}

func (t *fakeToken) Send(_ context.Context, call models.TokenCall) (common.Hash, error) {
	t.sent = append(t.sent, call)
	switch call.Method {
	case models.MethodApprove:
		t.allowances[[2]common.Address{t.chain.sender, call.Args[0].(common.Address)}] = call.Args[1].(*big.Int)
	case models.MethodEnableTrading:
		t.tradingEnabled = true
	case models.MethodSetTaxRates:
		t.buyTax = call.Args[0].(*big.Int).Uint64()
		t.sellTax = call.Args[1].(*big.Int).Uint64()
	}
	t.chain.mu.Lock()
	defer t.chain.mu.Unlock()
	return t.chain.mine(), nil
}

func (t *fakeToken) methods() []string {
	out := make([]string, 0, len(t.sent))
	for _, c := range t.sent {
		out = append(out, c.Method)
	}
	return out
}

// memRepo keeps records in memory and counts saves
type memRepo struct {
	mu      sync.Mutex
	records map[string]*models.DeploymentRecord
	saves   []*models.DeploymentRecord
	locks   map[string]*sync.Mutex

	// lockKeys lists every key passed to Lock, in order
	lockKeys []string
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]*models.DeploymentRecord{}, locks: map[string]*sync.Mutex{}}
}

func (r *memRepo) FindByConfigHash(_ context.Context, network string, hash common.Hash) (*models.DeploymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []*models.DeploymentRecord
	for _, rec := range r.records {
		if rec.Network == network && rec.ConfigHash == hash {
			found = append(found, rec)
		}
	}
	if len(found) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool { return found[i].DeploymentTime.Before(found[j].DeploymentTime) })
	return found[0], nil
}

func (r *memRepo) GetByAddress(_ context.Context, network string, address common.Address) (*models.DeploymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[models.RecordID(network, address)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (r *memRepo) List(_ context.Context, filter domain.DeploymentFilter) ([]*models.DeploymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.DeploymentRecord
	for _, rec := range r.records {
		if !filter.MatchesNetwork(rec.Network, rec.ChainID) {
			continue
		}
		if rec.Parameters != nil && !filter.MatchesSymbol(rec.Parameters.Symbol()) {
			continue
		}
		if filter.Status != "" && string(rec.VerificationStatus) != filter.Status {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memRepo) Save(_ context.Context, record *models.DeploymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	r.records[record.ID()] = &clone
	r.saves = append(r.saves, &clone)
	return nil
}

func (r *memRepo) Lock(_ context.Context, key string) (func(), error) {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	r.lockKeys = append(r.lockKeys, key)
	r.mu.Unlock()
	l.Lock()
	return l.Unlock, nil
}

// locked reports whether key is held right now
func (r *memRepo) locked(key string) bool {
	r.mu.Lock()
	l, ok := r.locks[key]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if l.TryLock() {
		l.Unlock()
		return false
	}
	return true
}

func (r *memRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *memRepo) statuses() []models.VerificationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.VerificationStatus, 0, len(r.saves))
	for _, s := range r.saves {
		out = append(out, s.VerificationStatus)
	}
	return out
}

// fakeVerifier returns errs in order, then succeeds
type fakeVerifier struct {
	mu       sync.Mutex
	errs     []error
	requests []*models.VerificationRequest
	// onVerify runs during attempt n, before it returns
	onVerify func(n int)
}

func (v *fakeVerifier) Verify(_ context.Context, req *models.VerificationRequest) error {
	v.mu.Lock()
	v.requests = append(v.requests, req)
	n := len(v.requests)
	var err error
	if n <= len(v.errs) {
		err = v.errs[n-1]
	}
	hook := v.onVerify
	v.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return err
}

func (v *fakeVerifier) calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.requests)
}

type fakeArtifacts struct{}

func (fakeArtifacts) Load(_ context.Context, path string) (*models.Artifact, error) {
	return &models.Artifact{Path: path, Bytecode: []byte{0x60, 0x80, 0x60, 0x40}}, nil
}

// fakeNetworks resolves from a fixed set
type fakeNetworks map[string]*config.Network

func (n fakeNetworks) GetNetworks(context.Context) []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (n fakeNetworks) ResolveNetwork(_ context.Context, name string) (*config.Network, error) {
	if network, ok := n[name]; ok {
		return network, nil
	}
	return nil, fmt.Errorf("network %s not configured", name)
}

// firstSelector picks the first candidate
type firstSelector struct{ prompts []string }

func (s *firstSelector) SelectDeployment(_ context.Context, records []*models.DeploymentRecord, prompt string) (*models.DeploymentRecord, error) {
	s.prompts = append(s.prompts, prompt)
	return records[0], nil
}

// recordingSink keeps the stages it saw
type recordingSink struct {
	usecase.NopProgress
	events []usecase.ProgressEvent
}

func (s *recordingSink) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	s.events = append(s.events, event)
}

func (s *recordingSink) stages() []string {
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Stage)
	}
	return out
}
