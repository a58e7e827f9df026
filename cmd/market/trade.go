package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lmsrMarket/internal/market"
	"lmsrMarket/internal/model"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Initialize a new market",
		RunE:  runCreate,
	}
	cmd.Flags().String("oracle", "", "oracle principal (supplies initial funding, resolves the market)")
	cmd.Flags().String("token", "", "collateral token identifier")
	cmd.Flags().String("liquidity", "", "LMSR liquidity parameter b (decimal)")
	cmd.Flags().String("metadata", "", "opaque metadata reference (e.g. content hash)")
	cmd.Flags().String("funding", "", "initial funding (decimal, must be >= b*ln(2))")
	cmd.Flags().String("proof", "", "consent proof for the oracle")
	return cmd
}

func runCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	oracle, _ := cmd.Flags().GetString("oracle")
	token, _ := cmd.Flags().GetString("token")
	metadata, _ := cmd.Flags().GetString("metadata")
	if oracle == "" || token == "" {
		return fmt.Errorf("oracle and token are required")
	}

	liquidity, err := amountFlag(cmd, "liquidity")
	if err != nil {
		return err
	}
	funding, err := amountFlag(cmd, "funding")
	if err != nil {
		return err
	}

	state, err := app.engine.Initialize(withProof(ctx, cmd, oracle), market.InitParams{
		Oracle:          oracle,
		CollateralToken: token,
		LiquidityParam:  liquidity,
		MetadataHash:    metadata,
		InitialFunding:  funding,
	})
	if err != nil {
		return err
	}

	fmt.Printf("market %s created\n", state.ID)
	return nil
}

func newBuyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy MARKET_ID",
		Short: "Buy outcome tokens",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuy,
	}
	addTradeFlags(cmd)
	cmd.Flags().String("max-cost", "", "maximum collateral to pay (decimal)")
	return cmd
}

func runBuy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	user, outcome, amount, err := tradeFlags(cmd)
	if err != nil {
		return err
	}
	maxCost, err := amountFlag(cmd, "max-cost")
	if err != nil {
		return err
	}

	marketID := args[0]
	cost, err := app.engine.Buy(withProof(ctx, cmd, user), marketID, user, outcome, amount, maxCost)
	if err != nil {
		return err
	}

	app.record(ctx, marketID, user, model.TradeBuy, outcome, amount, cost)
	fmt.Printf("bought %s %s for %s\n", model.FormatAmount(amount), outcome, model.FormatAmount(cost))
	return nil
}

func newSellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell MARKET_ID",
		Short: "Sell outcome tokens",
		Args:  cobra.ExactArgs(1),
		RunE:  runSell,
	}
	addTradeFlags(cmd)
	cmd.Flags().String("min-return", "", "minimum collateral to receive (decimal)")
	return cmd
}

func runSell(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	user, outcome, amount, err := tradeFlags(cmd)
	if err != nil {
		return err
	}
	minReturn, err := amountFlag(cmd, "min-return")
	if err != nil {
		return err
	}

	marketID := args[0]
	ret, err := app.engine.Sell(withProof(ctx, cmd, user), marketID, user, outcome, amount, minReturn)
	if err != nil {
		return err
	}

	app.record(ctx, marketID, user, model.TradeSell, outcome, amount, ret)
	fmt.Printf("sold %s %s for %s\n", model.FormatAmount(amount), outcome, model.FormatAmount(ret))
	return nil
}

// creditor is implemented by ledgers that support operator-seeded funds.
type creditor interface {
	Credit(ctx context.Context, asset, account string, amount *big.Int) error
}

func newFundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Credit an account on the attached ledger",
		RunE:  runFund,
	}
	cmd.Flags().String("token", "", "collateral token identifier")
	cmd.Flags().String("account", "", "account to credit")
	cmd.Flags().String("amount", "", "amount to credit (decimal)")
	return cmd
}

func runFund(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	token, _ := cmd.Flags().GetString("token")
	account, _ := cmd.Flags().GetString("account")
	if token == "" || account == "" {
		return fmt.Errorf("token and account are required")
	}
	amount, err := amountFlag(cmd, "amount")
	if err != nil {
		return err
	}

	c, ok := app.ledger.(creditor)
	if !ok {
		return fmt.Errorf("attached ledger does not support funding")
	}
	if err := c.Credit(ctx, token, account, amount); err != nil {
		return err
	}

	fmt.Printf("credited %s to %s\n", model.FormatAmount(amount), account)
	return nil
}

// record appends a journal entry for an executed trade. Journal failures
// are logged, not fatal: the trade has already settled.
func (a *app) record(ctx context.Context, marketID, user string, side model.TradeSide, outcome model.Outcome, amount, collateral *big.Int) {
	priceYes := "0"
	if p, err := a.engine.Price(ctx, marketID, model.OutcomeYes); err == nil {
		priceYes = model.FormatAmount(p)
	}
	err := a.journal.Append(model.TradeRecord{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		MarketID:   marketID,
		User:       user,
		Side:       side,
		Outcome:    outcome.String(),
		Amount:     model.FormatAmount(amount),
		Collateral: model.FormatAmount(collateral),
		PriceYes:   priceYes,
	})
	if err != nil {
		a.logger.Warn("journal append failed", zap.Error(err))
	}
}

func addTradeFlags(cmd *cobra.Command) {
	cmd.Flags().String("user", "", "acting principal")
	cmd.Flags().String("outcome", "", "outcome: yes or no")
	cmd.Flags().String("amount", "", "token amount (decimal)")
	cmd.Flags().String("proof", "", "consent proof for the acting principal")
}

func tradeFlags(cmd *cobra.Command) (string, model.Outcome, *big.Int, error) {
	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		return "", 0, nil, fmt.Errorf("user is required")
	}
	outcomeStr, _ := cmd.Flags().GetString("outcome")
	outcome, err := model.ParseOutcome(outcomeStr)
	if err != nil {
		return "", 0, nil, err
	}
	amount, err := amountFlag(cmd, "amount")
	if err != nil {
		return "", 0, nil, err
	}
	return user, outcome, amount, nil
}

// amountFlag parses a decimal flag into a scaled amount; an empty flag
// yields nil (meaning "not set" for optional bounds).
func amountFlag(cmd *cobra.Command, name string) (*big.Int, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	v, err := model.ParseAmount(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}
