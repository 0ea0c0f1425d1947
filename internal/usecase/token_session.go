package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/domain/models"
)

// AttachSession opens sessions against deployed tokens
type AttachSession struct {
	config    *config.RuntimeConfig
	connector ChainConnector
	repo      DeploymentRepository
	clock     Clock
	log       *slog.Logger
}

// NewAttachSession creates a new AttachSession use case
func NewAttachSession(cfg *config.RuntimeConfig, connector ChainConnector, repo DeploymentRepository, clock Clock, log *slog.Logger) *AttachSession {
	return &AttachSession{
		config:    cfg,
		connector: connector,
		repo:      repo,
		clock:     clock,
		log:       log,
	}
}

// Attach binds a session to address on network. A nil network means the
// runtime network; a zero address means the latest recorded deployment there.
func (uc *AttachSession) Attach(ctx context.Context, network *config.Network, address common.Address) (*TokenSession, error) {
	if network == nil {
		network = uc.config.Network
	}
	if network == nil {
		return nil, domain.NewInvalidConfig("network", "no network selected")
	}

	var record *models.DeploymentRecord
	if address == (common.Address{}) {
		latest, err := uc.latestRecord(ctx, network.Name)
		if err != nil {
			return nil, err
		}
		record = latest
		address = latest.ContractAddress
	} else if found, err := uc.repo.GetByAddress(ctx, network.Name, address); err == nil {
		record = found
	}

	client, err := uc.connector.Connect(ctx, network)
	if err != nil {
		return nil, err
	}

	code, err := client.CodeAt(ctx, address)
	if err != nil {
		client.Close()
		return nil, domain.Remote(network.Name, address.Hex(), "eth_getCode", err)
	}
	if len(code) == 0 {
		client.Close()
		return nil, fmt.Errorf("%w: no contract code at %s on %s", domain.ErrNotFound, address.Hex(), network.Name)
	}

	token, err := client.Token(address)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to bind token at %s: %w", address.Hex(), err)
	}

	return &TokenSession{
		network: network,
		record:  record,
		client:  client,
		token:   token,
		waiter:  NewConfirmationWaiter(uc.clock, uc.config.Confirmation),
		clock:   uc.clock,
		log:     uc.log.With("network", network.Name, "token", address.Hex()),
	}, nil
}

func (uc *AttachSession) latestRecord(ctx context.Context, network string) (*models.DeploymentRecord, error) {
	records, err := uc.repo.List(ctx, domain.DeploymentFilter{Network: network})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no recorded deployment on %s; pass an address", domain.ErrNotFound, network)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DeploymentTime.After(records[j].DeploymentTime)
	})
	return records[0], nil
}

// WriteRequest gates a state-changing call
type WriteRequest struct {
	// Confirm submits the transaction; without it the call is a dry run
	Confirm bool
}

// TokenSession reads and writes one deployed token. Reads always hit the chain.
type TokenSession struct {
	network *config.Network
	record  *models.DeploymentRecord
	client  ChainClient
	token   TokenContract
	waiter  *ConfirmationWaiter
	clock   Clock
	log     *slog.Logger
}

func (s *TokenSession) Network() *config.Network { return s.network }

func (s *TokenSession) Address() common.Address { return s.token.Address() }

// Sender is the account writes are signed by
func (s *TokenSession) Sender() common.Address { return s.client.Sender() }

// Record is the stored deployment for the address, nil when none exists
func (s *TokenSession) Record() *models.DeploymentRecord { return s.record }

func (s *TokenSession) Close() { s.client.Close() }

func (s *TokenSession) remote(method string, err error) error {
	return domain.Remote(s.network.Name, s.token.Address().Hex(), method, err)
}

// Describe reads a snapshot of the token, including balances and exclusion
// flags for the owner, the sender and any extra accounts
func (s *TokenSession) Describe(ctx context.Context, accounts ...common.Address) (*models.TokenSnapshot, error) {
	snap := &models.TokenSnapshot{
		Address: s.token.Address(),
		Network: s.network.Name,
	}

	var err error
	if snap.BlockNumber, err = s.client.BlockNumber(ctx); err != nil {
		return nil, s.remote("eth_blockNumber", err)
	}

	reads := []struct {
		method string
		read   func() error
	}{
		{"name", func() (err error) { snap.Name, err = s.token.Name(ctx); return }},
		{"symbol", func() (err error) { snap.Symbol, err = s.token.Symbol(ctx); return }},
		{"decimals", func() (err error) { snap.Decimals, err = s.token.Decimals(ctx); return }},
		{"totalSupply", func() (err error) { snap.TotalSupply, err = s.token.TotalSupply(ctx); return }},
		{"owner", func() (err error) { snap.Owner, err = s.token.Owner(ctx); return }},
		{"taxWallet", func() (err error) { snap.TaxWallet, err = s.token.TaxWallet(ctx); return }},
		{"buyTaxRate", func() (err error) { snap.BuyTaxBps, err = s.token.BuyTaxRate(ctx); return }},
		{"sellTaxRate", func() (err error) { snap.SellTaxBps, err = s.token.SellTaxRate(ctx); return }},
		{"tradingEnabled", func() (err error) { snap.TradingEnabled, err = s.token.TradingEnabled(ctx); return }},
		{"limitsEnabled", func() (err error) { snap.LimitsEnabled, err = s.token.LimitsEnabled(ctx); return }},
		{"maxTransactionAmount", func() (err error) { snap.MaxTransactionAmount, err = s.token.MaxTransactionAmount(ctx); return }},
		{"maxWalletAmount", func() (err error) { snap.MaxWalletAmount, err = s.token.MaxWalletAmount(ctx); return }},
		{"dailyTradingLimit", func() (err error) { snap.DailyTradingLimit, err = s.token.DailyTradingLimit(ctx); return }},
	}
	for _, r := range reads {
		if err := r.read(); err != nil {
			return nil, s.remote(r.method, err)
		}
	}

	addresses := lo.Uniq(append([]common.Address{snap.Owner, s.client.Sender()}, accounts...))
	addresses = lo.Filter(addresses, func(a common.Address, _ int) bool { return a != (common.Address{}) })
	for _, addr := range addresses {
		state, err := s.accountState(ctx, addr)
		if err != nil {
			return nil, err
		}
		snap.Accounts = append(snap.Accounts, state)
	}

	return snap, nil
}

func (s *TokenSession) accountState(ctx context.Context, addr common.Address) (models.AccountState, error) {
	state := models.AccountState{Address: addr}
	var err error
	if state.Balance, err = s.BalanceOf(ctx, addr); err != nil {
		return state, err
	}
	if state.ExcludedFromTax, err = s.IsExcludedFromTax(ctx, addr); err != nil {
		return state, err
	}
	if state.ExcludedFromLimits, err = s.IsExcludedFromLimits(ctx, addr); err != nil {
		return state, err
	}
	return state, nil
}

func (s *TokenSession) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	v, err := s.token.BalanceOf(ctx, account)
	if err != nil {
		return nil, s.remote("balanceOf", err)
	}
	return v, nil
}

func (s *TokenSession) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	v, err := s.token.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, s.remote("allowance", err)
	}
	return v, nil
}

func (s *TokenSession) IsExcludedFromTax(ctx context.Context, account common.Address) (bool, error) {
	v, err := s.token.IsExcludedFromTax(ctx, account)
	if err != nil {
		return false, s.remote("isExcludedFromTax", err)
	}
	return v, nil
}

func (s *TokenSession) IsExcludedFromLimits(ctx context.Context, account common.Address) (bool, error) {
	v, err := s.token.IsExcludedFromLimits(ctx, account)
	if err != nil {
		return false, s.remote("isExcludedFromLimits", err)
	}
	return v, nil
}

// Transfer moves amount tokens from the sender to to
func (s *TokenSession) Transfer(ctx context.Context, to common.Address, amount *big.Int, req WriteRequest) (*models.WriteOperation, error) {
	op := models.NewWriteOperation(models.TransferCall(to, amount))
	if to == (common.Address{}) {
		return op, domain.NewInvalidConfig("to", "must not be the zero address")
	}
	if err := positive("amount", amount); err != nil {
		return op, err
	}
	if err := op.Transition(models.OperationValidated); err != nil {
		return op, err
	}
	op.Effect = fmt.Sprintf("transfer %s tokens from %s to %s", amount, s.client.Sender().Hex(), to.Hex())
	return s.execute(ctx, op, req)
}

// SetTaxRates changes the buy and sell tax; the contract restricts it to the owner
func (s *TokenSession) SetTaxRates(ctx context.Context, buyBps, sellBps uint64, req WriteRequest) (*models.WriteOperation, error) {
	op := models.NewWriteOperation(models.SetTaxRatesCall(buyBps, sellBps))
	if buyBps > models.MaxBps {
		return op, domain.NewInvalidConfig(models.FieldBuyTax, "%d exceeds %d bps", buyBps, models.MaxBps)
	}
	if sellBps > models.MaxBps {
		return op, domain.NewInvalidConfig(models.FieldSellTax, "%d exceeds %d bps", sellBps, models.MaxBps)
	}
	if err := op.Transition(models.OperationValidated); err != nil {
		return op, err
	}
	op.Effect = fmt.Sprintf("set buy tax to %s and sell tax to %s", models.FormatBps(buyBps), models.FormatBps(sellBps))
	return s.execute(ctx, op, req)
}

// AddLiquidity approves the token contract for tokenAmount when the current
// allowance is short, then calls addLiquidity sending ethAmount along
func (s *TokenSession) AddLiquidity(ctx context.Context, tokenAmount, ethAmount, deadline *big.Int, req WriteRequest) (*models.WriteOperation, error) {
	op := models.NewWriteOperation(models.AddLiquidityCall(tokenAmount, ethAmount, deadline))
	if err := positive("tokenAmount", tokenAmount); err != nil {
		return op, err
	}
	if err := positive("ethAmount", ethAmount); err != nil {
		return op, err
	}
	if deadline == nil || deadline.Cmp(big.NewInt(s.clock.Now().Unix())) <= 0 {
		return op, domain.NewInvalidConfig("deadline", "must be in the future")
	}
	if err := op.Transition(models.OperationValidated); err != nil {
		return op, err
	}
	op.Effect = fmt.Sprintf("add %s tokens and %s wei of liquidity", tokenAmount, ethAmount)

	owner := s.client.Sender()
	spender := s.token.Address()
	observed, err := s.Allowance(ctx, owner, spender)
	if err != nil {
		return op, err
	}

	expected := observed
	if observed.Cmp(tokenAmount) < 0 {
		approve := models.NewWriteOperation(models.ApproveCall(spender, tokenAmount))
		if err := approve.Transition(models.OperationValidated); err != nil {
			return op, err
		}
		approve.Effect = fmt.Sprintf("approve %s to spend %s tokens (allowance is %s)", spender.Hex(), tokenAmount, observed)
		op.Prerequisites = append(op.Prerequisites, approve)

		if !req.Confirm {
			approve.DryRun = true
			op.DryRun = true
			op.Note("addLiquidity gas is estimated after the approval is confirmed")
			return op, nil
		}

		if _, err := s.execute(ctx, approve, req); err != nil {
			return op, fmt.Errorf("approval failed: %w", err)
		}
		expected = tokenAmount
	}

	current, err := s.Allowance(ctx, owner, spender)
	if err != nil {
		return op, err
	}
	if current.Cmp(expected) != 0 {
		return op, fmt.Errorf("%w: allowance of %s for %s is %s, expected %s",
			domain.ErrAllowanceRaceDetected, owner.Hex(), spender.Hex(), current, expected)
	}

	return s.execute(ctx, op, req)
}

// EnableTrading turns trading on. When trading is already enabled the operation
// stays Validated with NoOp set and no transaction is sent.
func (s *TokenSession) EnableTrading(ctx context.Context, req WriteRequest) (*models.WriteOperation, error) {
	op := models.NewWriteOperation(models.EnableTradingCall())
	if err := op.Transition(models.OperationValidated); err != nil {
		return op, err
	}

	enabled, err := s.token.TradingEnabled(ctx)
	if err != nil {
		return op, s.remote("tradingEnabled", err)
	}
	if enabled {
		op.NoOp = true
		op.Effect = "trading is already enabled"
		return op, nil
	}

	op.Effect = "enable trading"
	return s.execute(ctx, op, req)
}

// execute simulates a validated operation and, when confirmed, submits it and
// waits for its receipt. Writes are never retried. Failures before submission
// leave the operation Validated.
func (s *TokenSession) execute(ctx context.Context, op *models.WriteOperation, req WriteRequest) (*models.WriteOperation, error) {
	gas, err := s.token.EstimateGas(ctx, op.Call)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return op, s.remote(op.Method, err)
	case err != nil && !req.Confirm:
		op.Note("gas estimate unavailable: %v", err)
	case err != nil:
		return op, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, s.remote(op.Method, err))
	default:
		op.GasEstimate = gas
	}

	if !req.Confirm {
		op.DryRun = true
		return op, nil
	}

	txHash, err := s.token.Send(ctx, op.Call)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return op, s.remote(op.Method, err)
		}
		return op, fmt.Errorf("%w: %w", domain.ErrSubmissionFailed, s.remote(op.Method, err))
	}
	op.TxHash = txHash
	if err := op.Transition(models.OperationSubmitted); err != nil {
		return op, err
	}
	s.log.Info("transaction sent", "method", op.Method, "tx", txHash.Hex())

	confirmation, err := s.waiter.Wait(ctx, s.client, txHash)
	if confirmation != nil {
		op.BlockNumber = confirmation.BlockNumber
	}
	next := models.OperationConfirmed
	switch {
	case domain.IsAmbiguous(err):
		next = models.OperationTimedOut
	case err != nil:
		next = models.OperationFailed
	}
	if terr := op.Transition(next); terr != nil {
		return op, terr
	}
	return op, err
}

func positive(field string, v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return domain.NewInvalidConfig(field, "must be greater than zero")
	}
	return nil
}
