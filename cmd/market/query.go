package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"lmsrMarket/internal/chart"
	"lmsrMarket/internal/model"
)

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price MARKET_ID",
		Short: "Show the spot price of an outcome",
		Args:  cobra.ExactArgs(1),
		RunE:  runPrice,
	}
	cmd.Flags().String("outcome", "yes", "outcome: yes or no")
	return cmd
}

func runPrice(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	outcomeStr, _ := cmd.Flags().GetString("outcome")
	outcome, err := model.ParseOutcome(outcomeStr)
	if err != nil {
		return err
	}

	price, err := app.engine.Price(ctx, args[0], outcome)
	if err != nil {
		return err
	}

	fmt.Printf("%s price: %s\n", outcome, model.FormatAmount(price))
	return nil
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote MARKET_ID",
		Short: "Preview the cost and post-trade price of a buy",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuote,
	}
	cmd.Flags().String("outcome", "", "outcome: yes or no")
	cmd.Flags().String("amount", "", "token amount (decimal)")
	return cmd
}

func runQuote(cmd *cobra.Command, args []string) error {
	return quote(cmd, args, false)
}

func newSellQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell-quote MARKET_ID",
		Short: "Preview the return and post-trade price of a sell",
		Args:  cobra.ExactArgs(1),
		RunE:  runSellQuote,
	}
	cmd.Flags().String("outcome", "", "outcome: yes or no")
	cmd.Flags().String("amount", "", "token amount (decimal)")
	return cmd
}

func runSellQuote(cmd *cobra.Command, args []string) error {
	return quote(cmd, args, true)
}

func quote(cmd *cobra.Command, args []string, sell bool) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	outcomeStr, _ := cmd.Flags().GetString("outcome")
	outcome, err := model.ParseOutcome(outcomeStr)
	if err != nil {
		return err
	}
	amount, err := amountFlag(cmd, "amount")
	if err != nil {
		return err
	}

	if sell {
		q, err := app.engine.SellQuote(ctx, args[0], outcome, amount)
		if err != nil {
			return err
		}
		fmt.Printf("return: %s, %s price after: %s\n",
			model.FormatAmount(q.Collateral), outcome, model.FormatAmount(q.PriceAfter))
		return nil
	}

	q, err := app.engine.BuyQuote(ctx, args[0], outcome, amount)
	if err != nil {
		return err
	}
	fmt.Printf("cost: %s, %s price after: %s\n",
		model.FormatAmount(q.Collateral), outcome, model.FormatAmount(q.PriceAfter))
	return nil
}

func newBalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance MARKET_ID",
		Short: "Show a user's outcome token balance",
		Args:  cobra.ExactArgs(1),
		RunE:  runBalance,
	}
	cmd.Flags().String("user", "", "principal")
	cmd.Flags().String("outcome", "", "outcome: yes or no")
	return cmd
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	user, _ := cmd.Flags().GetString("user")
	if user == "" {
		return fmt.Errorf("user is required")
	}
	outcomeStr, _ := cmd.Flags().GetString("outcome")
	outcome, err := model.ParseOutcome(outcomeStr)
	if err != nil {
		return err
	}

	balance, err := app.engine.Balance(ctx, args[0], user, outcome)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s: %s\n", user, outcome, model.FormatAmount(balance))
	return nil
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state MARKET_ID",
		Short: "Show full market state",
		Args:  cobra.ExactArgs(1),
		RunE:  runState,
	}
}

func runState(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	state, err := app.engine.State(ctx, args[0])
	if err != nil {
		return err
	}

	printState(state)
	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all markets",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	states, err := app.store.List(ctx)
	if err != nil {
		return err
	}

	for _, state := range states {
		status := "open"
		if state.Resolved {
			status = fmt.Sprintf("resolved (%s)", state.WinningOutcome)
		}
		fmt.Printf("%s  %s  pool=%s\n", state.ID, status, model.FormatAmount(state.CollateralPool))
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history MARKET_ID",
		Short: "Chart the YES price over the trade journal",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	records, err := app.journal.ReadMarket(args[0])
	if err != nil {
		return err
	}

	prices := make([]*big.Int, 0, len(records))
	for _, record := range records {
		p, err := model.ParseAmount(record.PriceYes)
		if err != nil {
			continue
		}
		prices = append(prices, p)
	}

	fmt.Print(chart.Render(prices))
	return nil
}

func printState(state model.MarketState) {
	fmt.Printf("market:           %s\n", state.ID)
	fmt.Printf("oracle:           %s\n", state.Oracle)
	fmt.Printf("collateral token: %s\n", state.CollateralToken)
	fmt.Printf("liquidity param:  %s\n", model.FormatAmount(state.LiquidityParam))
	fmt.Printf("metadata:         %s\n", state.MetadataHash)
	fmt.Printf("yes sold:         %s\n", model.FormatAmount(state.YesSold))
	fmt.Printf("no sold:          %s\n", model.FormatAmount(state.NoSold))
	fmt.Printf("collateral pool:  %s\n", model.FormatAmount(state.CollateralPool))
	if state.Resolved {
		fmt.Printf("resolved:         yes, %s wins\n", state.WinningOutcome)
	} else {
		fmt.Printf("resolved:         no\n")
	}
}
