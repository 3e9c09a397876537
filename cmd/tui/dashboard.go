package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"tradedash/internal/config"
	"tradedash/internal/execution"
	"tradedash/internal/market"
	"tradedash/internal/provider"
	"tradedash/internal/wallet"
)

type dashboard struct {
	cfg     *config.Config
	cfgPath string
	log     zerolog.Logger
	in      *bufio.Reader
	out     io.Writer

	session  *wallet.Session
	executor *execution.Executor
	feed     *market.Feed
	rng      *rand.Rand

	token market.Token
	tf    market.Timeframe

	noticeMu   sync.Mutex
	lastNotice string
	notices    chan string
}

func newDashboard(cfg *config.Config, cfgPath string, log zerolog.Logger, in io.Reader, out io.Writer) *dashboard {
	d := &dashboard{
		cfg:        cfg,
		cfgPath:    cfgPath,
		log:        log,
		in:         bufio.NewReader(in),
		out:        out,
		rng:        rand.New(rand.NewSource(1)),
		lastNotice: walletLine(wallet.Snapshot{}),
		notices:    make(chan string, 8),
	}
	tok, ok := market.Lookup(cfg.Dashboard.DefaultToken)
	if !ok {
		tok = market.Tokens()[0]
	}
	d.token = tok
	tf, err := market.ParseTimeframe(cfg.Dashboard.Timeframe)
	if err != nil {
		tf = market.Day
	}
	d.tf = tf
	return d
}

// onWalletChange runs on whichever goroutine changed the session; the menu loop prints the notice.
func (d *dashboard) onWalletChange(snap wallet.Snapshot) {
	if snap.Connecting {
		return
	}
	line := walletLine(snap)
	d.noticeMu.Lock()
	defer d.noticeMu.Unlock()
	if line == d.lastNotice {
		return
	}
	d.lastNotice = line
	select {
	case d.notices <- line:
	default:
	}
}

func (d *dashboard) flushNotices() {
	for {
		select {
		case line := <-d.notices:
			fmt.Fprintln(d.out, dimStyle.Render("» "+line))
		default:
			return
		}
	}
}

func (d *dashboard) loop(ctx context.Context) error {
	for {
		d.flushNotices()
		snap := d.session.Snapshot()
		fmt.Fprintln(d.out)
		fmt.Fprintln(d.out, renderHeader(d.token, d.price(d.token), snap))
		fmt.Fprintln(d.out, renderMenu(snap))

		choice, err := d.readLine("Select option: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch strings.ToLower(choice) {
		case "1":
			fmt.Fprintln(d.out, renderTokenTable(market.Tokens(), d.price, d.token.Symbol))
		case "2":
			d.selectToken()
		case "3":
			d.showChart()
		case "4":
			d.placeOrder(ctx)
		case "5":
			d.toggleWallet(ctx)
		case "6":
			d.session.Refresh(ctx)
			fmt.Fprintln(d.out, renderWallet(d.session.Snapshot(), d.session.HasProvider()))
		case "7":
			d.savePreferences()
		case "0", "q":
			return nil
		default:
			fmt.Fprintln(d.out, "unknown option")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// price prefers the live feed and falls back to the static list price.
func (d *dashboard) price(tok market.Token) float64 {
	if d.feed != nil {
		if px, ok := d.feed.LastPrice(tok.Symbol); ok {
			return px
		}
	}
	return tok.Price
}

func (d *dashboard) selectToken() {
	input, err := d.readLine(fmt.Sprintf("Token (%s) [%s]: ", strings.Join(market.Symbols(), "/"), d.token.Symbol))
	if err != nil || input == "" {
		return
	}
	tok, ok := market.Lookup(input)
	if !ok {
		d.fail(fmt.Errorf("unknown token %q", input))
		return
	}
	d.token = tok
	fmt.Fprintf(d.out, "selected %s (%s)\n", tok.Symbol, tok.Name)
}

func (d *dashboard) showChart() {
	labels := make([]string, 0, 5)
	for _, tf := range market.Timeframes() {
		labels = append(labels, string(tf))
	}
	input, err := d.readLine(fmt.Sprintf("Timeframe (%s) [%s]: ", strings.Join(labels, "/"), d.tf))
	if err != nil {
		return
	}
	if input != "" {
		tf, err := market.ParseTimeframe(input)
		if err != nil {
			d.fail(err)
			return
		}
		d.tf = tf
	}
	points := market.Series(d.token, d.tf, d.rng)
	fmt.Fprintln(d.out, renderChart(d.token, d.tf, points, d.cfg.Dashboard.ChartWidth))
}

func (d *dashboard) placeOrder(ctx context.Context) {
	input, err := d.readLine("Side (buy/sell) [buy]: ")
	if err != nil {
		return
	}
	if input == "" {
		input = string(execution.Buy)
	}
	side, err := execution.ParseSide(input)
	if err != nil {
		d.fail(err)
		return
	}

	input, err = d.readLine("Order type (market/limit) [market]: ")
	if err != nil {
		return
	}
	orderType := execution.Market
	switch strings.ToLower(input) {
	case "", "market":
	case "limit":
		orderType = execution.Limit
	default:
		d.fail(fmt.Errorf("unknown order type %q", input))
		return
	}

	amount, err := d.readFloat(fmt.Sprintf("Amount (%s): ", d.token.Symbol), 0)
	if err != nil {
		d.fail(err)
		return
	}
	price := d.price(d.token)
	if orderType == execution.Limit {
		price, err = d.readFloat(fmt.Sprintf("Price (USD) [%s]: ", market.FormatCurrency(d.token.Price)), d.token.Price)
		if err != nil {
			d.fail(err)
			return
		}
	}

	order := execution.Order{Symbol: d.token.Symbol, Side: side, Type: orderType, Amount: amount, Price: price}
	if err := d.executor.Validate(order); err != nil {
		d.fail(err)
		return
	}
	fmt.Fprintln(d.out, renderQuote(order.Quote()))
	fmt.Fprintln(d.out, dimStyle.Render("Processing..."))

	receipt, err := d.executor.Submit(ctx, order)
	if err != nil {
		d.fail(err)
		return
	}
	fmt.Fprintln(d.out, successStyle.Render(receipt.Message))
}

func (d *dashboard) toggleWallet(ctx context.Context) {
	if d.session.Snapshot().Connected {
		d.session.Disconnect()
		return
	}
	if d.session.HasProvider() {
		fmt.Fprintln(d.out, dimStyle.Render("Approve the connection request in your wallet..."))
	}

	err := d.session.Connect(ctx)
	switch {
	case errors.Is(err, wallet.ErrProviderUnavailable):
		fmt.Fprintln(d.out, warnStyle.Render(wallet.InstallPrompt))
	case provider.IsUserRejected(err):
		fmt.Fprintln(d.out, warnStyle.Render("Connection request rejected"))
	case err != nil:
		d.fail(err)
	case !d.session.Snapshot().Connected:
		fmt.Fprintln(d.out, warnStyle.Render("Wallet returned no accounts"))
	}
}

func (d *dashboard) savePreferences() {
	d.cfg.Dashboard.DefaultToken = d.token.Symbol
	d.cfg.Dashboard.Timeframe = string(d.tf)
	if err := config.Save(d.cfgPath, d.cfg); err != nil {
		d.fail(fmt.Errorf("save failed: %w", err))
		return
	}
	fmt.Fprintln(d.out, "config saved")
}

func (d *dashboard) fail(err error) {
	fmt.Fprintln(d.out, errorStyle.Render(err.Error()))
}

// readLine returns io.EOF only once input is exhausted and nothing was typed.
func (d *dashboard) readLine(prompt string) (string, error) {
	fmt.Fprint(d.out, prompt)
	line, err := d.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

func (d *dashboard) readFloat(prompt string, current float64) (float64, error) {
	line, err := d.readLine(prompt)
	if err != nil {
		return 0, err
	}
	if line == "" {
		return current, nil
	}
	val, err := strconv.ParseFloat(strings.ReplaceAll(line, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", line)
	}
	return val, nil
}
