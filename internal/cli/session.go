package cli

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/rollout/internal/cli/render"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/models"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// defaultDeadline is how far ahead addLiquidity's deadline lies when none is given
const defaultDeadline = 20 * time.Minute

// sessionCall runs one method against an attached session and renders the outcome
type sessionCall struct {
	usage string
	write bool
	run   func(ctx context.Context, s *usecase.TokenSession, args []string, req usecase.WriteRequest) (any, *models.WriteOperation, error)
}

var sessionCalls = map[string]sessionCall{
	"balanceOf": {
		usage: "<account>",
		run: func(ctx context.Context, s *usecase.TokenSession, args []string, _ usecase.WriteRequest) (any, *models.WriteOperation, error) {
			account, err := parseAddress("account", args[0])
			if err != nil {
				return nil, nil, err
			}
			v, err := s.BalanceOf(ctx, account)
			return v, nil, err
		},
	},
	"allowance": {
		usage: "<owner>,<spender>",
		run: func(ctx context.Context, s *usecase.TokenSession, args []string, _ usecase.WriteRequest) (any, *models.WriteOperation, error) {
			owner, err := parseAddress("owner", args[0])
			if err != nil {
				return nil, nil, err
			}
			spender, err := parseAddress("spender", args[1])
			if err != nil {
				return nil, nil, err
			}
			v, err := s.Allowance(ctx, owner, spender)
			return v, nil, err
		},
	},
	"isExcludedFromTax": {
		usage: "<account>",
		run: func(ctx context.Context, s *usecase.TokenSession, args []string, _ usecase.WriteRequest) (any, *models.WriteOperation, error) {
			account, err := parseAddress("account", args[0])
			if err != nil {
				return nil, nil, err
			}
			v, err := s.IsExcludedFromTax(ctx, account)
			return v, nil, err
		},
	},
	"isExcludedFromLimits": {
		usage: "<account>",
		run: func(ctx context.Context, s *usecase.TokenSession, args []string, _ usecase.WriteRequest) (any, *models.WriteOperation, error) {
			account, err := parseAddress("account", args[0])
			if err != nil {
				return nil, nil, err
			}
			v, err := s.IsExcludedFromLimits(ctx, account)
			return v, nil, err
		},
	},
	"transfer": {
		usage: "<to>,<amount>",
		write: true,
		run: func(ctx context.Context, s *usecase.TokenSession, args []string, req usecase.WriteRequest) (any, *models.WriteOperation, error) {
			to, err := parseAddress("to", args[0])
			if err != nil {
				return nil, nil, err
			}
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return nil, nil, err
			}
			op, err := s.Transfer(ctx, to, amount, req)
			return nil, op, err
		},
	},
	"setTaxRates": {
		usage: "<buyBps>,<sellBps>",
		write: true,
		run: func(ctx context.Context, s *usecase.TokenSession, args []string, req usecase.WriteRequest) (any, *models.WriteOperation, error) {
			buy, err := parseBps(models.FieldBuyTax, args[0])
			if err != nil {
				return nil, nil, err
			}
			sell, err := parseBps(models.FieldSellTax, args[1])
			if err != nil {
				return nil, nil, err
			}
			op, err := s.SetTaxRates(ctx, buy, sell, req)
			return nil, op, err
		},
	},
	"addLiquidity": {
		usage: "<tokenAmount>,<ethAmount>,[deadline]",
		write: true,
		run: func(ctx context.Context, s *usecase.TokenSession, args []string, req usecase.WriteRequest) (any, *models.WriteOperation, error) {
			tokenAmount, err := parseAmount("tokenAmount", args[0])
			if err != nil {
				return nil, nil, err
			}
			ethAmount, err := parseAmount("ethAmount", args[1])
			if err != nil {
				return nil, nil, err
			}
			var raw string
			if len(args) > 2 {
				raw = args[2]
			}
			deadline, err := parseDeadline(raw, time.Now())
			if err != nil {
				return nil, nil, err
			}
			op, err := s.AddLiquidity(ctx, tokenAmount, ethAmount, deadline, req)
			return nil, op, err
		},
	},
	"enableTrading": {
		write: true,
		run: func(ctx context.Context, s *usecase.TokenSession, _ []string, req usecase.WriteRequest) (any, *models.WriteOperation, error) {
			op, err := s.EnableTrading(ctx, req)
			return nil, op, err
		},
	},
}

// NewSessionCmd creates the session command group
func NewSessionCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Read and write a deployed token",
		Long: `Attach to a deployed token and read its state or call its owner functions.

Without --address the latest deployment recorded on the network is used.
State-changing calls are simulated unless --confirm is given.`,
	}
	cmd.PersistentFlags().StringVar(&address, "address", "", "Token address (default: latest recorded deployment)")

	cmd.AddCommand(newSessionDescribeCmd(&address), newSessionCallCmd(&address))
	return cmd
}

func newSessionDescribeCmd(address *string) *cobra.Command {
	var accounts []string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Show the token's configuration and account state",
		Example: `  rollout session describe -n sepolia
  rollout session describe -n sepolia --address 0x... --account 0xabc... --account 0xdef...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			extra := make([]common.Address, 0, len(accounts))
			for _, a := range accounts {
				addr, err := parseAddress("account", a)
				if err != nil {
					return err
				}
				extra = append(extra, addr)
			}

			session, err := attach(cmd.Context(), app.AttachSession, *address)
			if err != nil {
				return err
			}
			defer session.Close()

			snapshot, err := session.Describe(cmd.Context(), extra...)
			if err != nil {
				return err
			}
			return render.NewSessionRenderer(cmd.OutOrStdout(), app.Config.JSON).RenderSnapshot(snapshot)
		},
	}

	cmd.Flags().StringSliceVar(&accounts, "account", nil, "Extra account to report balances and exclusions for (repeatable)")
	return cmd
}

func newSessionCallCmd(address *string) *cobra.Command {
	var (
		callArgs []string
		confirm  bool
	)

	cmd := &cobra.Command{
		Use:   "call <method>",
		Short: "Call a token method",
		Long: fmt.Sprintf(`Call a token method with comma separated --args.

Methods:
%s
Amounts are integers in the token's base units and accept underscores and an
exponent suffix (1_000e18). The addLiquidity deadline is a unix timestamp or a
duration from now (default %s).`, methodUsage(), defaultDeadline),
		Example: `  rollout session call balanceOf --args 0xabc...
  rollout session call setTaxRates --args 300,300
  rollout session call addLiquidity --args 1000000e18,1e18 --confirm
  rollout session call enableTrading --confirm`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: lo.Keys(sessionCalls),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			call, ok := sessionCalls[args[0]]
			if !ok {
				return domain.NewInvalidConfig("method", "unknown method %q", args[0])
			}
			if err := checkArity(args[0], call.usage, callArgs); err != nil {
				return err
			}

			session, err := attach(cmd.Context(), app.AttachSession, *address)
			if err != nil {
				return err
			}
			defer session.Close()

			renderer := render.NewSessionRenderer(cmd.OutOrStdout(), app.Config.JSON)
			value, op, err := call.run(cmd.Context(), session, callArgs, usecase.WriteRequest{Confirm: confirm})
			if !call.write {
				if err != nil {
					return err
				}
				return renderer.RenderRead(args[0], value)
			}

			if op == nil {
				return err
			}
			if rerr := renderer.RenderOperation(op, err); rerr != nil {
				return rerr
			}
			if domain.IsAmbiguous(err) {
				fmt.Fprintln(cmd.ErrOrStderr(), render.FormatWarning(fmt.Sprintf("%v, re-check transaction %s", err, op.TxHash.Hex())))
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&callArgs, "args", nil, "Comma separated method arguments")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Submit the transaction instead of simulating it")
	return cmd
}

func attach(ctx context.Context, uc *usecase.AttachSession, address string) (*usecase.TokenSession, error) {
	var addr common.Address
	if address != "" {
		parsed, err := parseAddress("address", address)
		if err != nil {
			return nil, err
		}
		addr = parsed
	}
	return uc.Attach(ctx, nil, addr)
}

func methodUsage() string {
	names := lo.Keys(sessionCalls)
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		call := sessionCalls[name]
		kind := "read"
		if call.write {
			kind = "write"
		}
		fmt.Fprintf(&b, "  %-22s %-40s %s\n", name, call.usage, kind)
	}
	return b.String()
}

// checkArity compares args against the usage string; bracketed arguments are optional
func checkArity(method, usage string, args []string) error {
	var required, optional int
	for _, part := range strings.Split(usage, ",") {
		switch {
		case part == "":
		case strings.HasPrefix(part, "["):
			optional++
		default:
			required++
		}
	}
	if len(args) < required || len(args) > required+optional {
		if usage == "" {
			return domain.NewInvalidConfig("args", "%s takes no arguments", method)
		}
		return domain.NewInvalidConfig("args", "%s expects --args %s, got %d value(s)", method, usage, len(args))
	}
	return nil
}

func parseAddress(field, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, domain.NewInvalidConfig(field, "%q is not an address", s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(field, s string) (*big.Int, error) {
	v, err := models.ParseAmount(s)
	if err != nil {
		return nil, domain.NewInvalidConfig(field, "%v", err)
	}
	return v, nil
}

func parseBps(field, s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, domain.NewInvalidConfig(field, "%q is not a whole number of basis points", s)
	}
	return v, nil
}

// parseDeadline accepts a unix timestamp or a duration added to now
func parseDeadline(s string, now time.Time) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewInt(now.Add(defaultDeadline).Unix()), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return big.NewInt(now.Add(d).Unix()), nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, domain.NewInvalidConfig("deadline", "%q is neither a unix timestamp nor a duration", s)
	}
	return big.NewInt(v), nil
}
