package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tradedash/internal/provider"
	"tradedash/internal/wallet"
)

const consoleHelp = `commands:
  approve | reject                 answer a pending connection request
  accounts <addr> [addr...]        replace the wallet accounts (emits accountsChanged)
  chain <id>                       switch network (emits chainChanged)
  balance <chain> <addr> <amount>  set a balance in whole coins, e.g. 2.5
  lock                             hide all accounts (emits accountsChanged [])
  help`

// console lets the operator act as the wallet user while walletd is running.
type console struct {
	mock    *provider.Mock
	log     zerolog.Logger
	out     io.Writer
	answers chan bool
}

func newConsole(mock *provider.Mock, log zerolog.Logger, out io.Writer) *console {
	return &console{mock: mock, log: log, out: out, answers: make(chan bool)}
}

// prompt blocks a connection request until the operator answers it.
func (c *console) prompt(ctx context.Context) error {
	fmt.Fprintln(c.out, "dashboard requests account access: type 'approve' or 'reject'")
	select {
	case ok := <-c.answers:
		if !ok {
			return provider.ErrUserRejected()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := c.exec(scanner.Text()); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func (c *console) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "approve", "reject":
		select {
		case c.answers <- strings.EqualFold(fields[0], "approve"):
			return nil
		default:
			return errors.New("no pending connection request")
		}

	case "accounts":
		for _, addr := range args {
			if !common.IsHexAddress(addr) {
				return fmt.Errorf("invalid address %q", addr)
			}
		}
		c.mock.SetAccounts(args...)
		c.log.Info().Strs("accounts", args).Msg("accounts replaced")

	case "chain":
		if len(args) != 1 {
			return errors.New("usage: chain <id>")
		}
		id, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid chain id %q", args[0])
		}
		c.mock.SwitchChain(id)
		c.log.Info().Uint64("chain_id", id).Msg("chain switched")

	case "balance":
		if len(args) != 3 {
			return errors.New("usage: balance <chain> <addr> <amount>")
		}
		id, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid chain id %q", args[0])
		}
		if !common.IsHexAddress(args[1]) {
			return fmt.Errorf("invalid address %q", args[1])
		}
		amount, err := decimal.NewFromString(args[2])
		if err != nil || amount.IsNegative() {
			return fmt.Errorf("invalid amount %q", args[2])
		}
		c.mock.SetBalance(id, args[1], amount.Shift(wallet.WeiDecimals).BigInt())
		c.log.Info().Uint64("chain_id", id).Str("address", args[1]).Str("amount", amount.String()).Msg("balance set")

	case "lock":
		c.mock.Lock()
		c.log.Info().Msg("wallet locked")

	case "help":
		fmt.Fprintln(c.out, consoleHelp)

	default:
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return nil
}
