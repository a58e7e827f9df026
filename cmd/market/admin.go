package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lmsrMarket/internal/model"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve MARKET_ID",
		Short: "Resolve the market to its winning outcome (oracle only)",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}
	cmd.Flags().String("oracle", "", "oracle principal")
	cmd.Flags().String("outcome", "", "winning outcome: yes or no")
	cmd.Flags().String("proof", "", "consent proof for the oracle")
	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	oracle, _ := cmd.Flags().GetString("oracle")
	if oracle == "" {
		return fmt.Errorf("oracle is required")
	}
	outcomeStr, _ := cmd.Flags().GetString("outcome")
	outcome, err := model.ParseOutcome(outcomeStr)
	if err != nil {
		return err
	}

	if err := app.engine.Resolve(withProof(ctx, cmd, oracle), args[0], oracle, outcome); err != nil {
		return err
	}

	fmt.Printf("market resolved: %s wins\n", outcome)
	return nil
}

func newClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim MARKET_ID",
		Short: "Claim winnings after resolution",
		Args:  cobra.ExactArgs(1),
		RunE:  runClaim,
	}
	cmd.Flags().String("user", "", "claiming principal")
	cmd.Flags().String("proof", "", "consent proof for the claiming principal")
	return cmd
}

func runClaim(cmd *cobra.Command, args []string) error {
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

	net, err := app.engine.Claim(withProof(ctx, cmd, user), args[0], user)
	if err != nil {
		return err
	}

	fmt.Printf("claimed %s\n", model.FormatAmount(net))
	return nil
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw MARKET_ID",
		Short: "Withdraw the remaining pool after resolution (oracle only)",
		Args:  cobra.ExactArgs(1),
		RunE:  runWithdraw,
	}
	cmd.Flags().String("oracle", "", "oracle principal")
	cmd.Flags().String("proof", "", "consent proof for the oracle")
	return cmd
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.close()

	oracle, _ := cmd.Flags().GetString("oracle")
	if oracle == "" {
		return fmt.Errorf("oracle is required")
	}

	amount, err := app.engine.WithdrawRemaining(withProof(ctx, cmd, oracle), args[0], oracle)
	if err != nil {
		return err
	}

	fmt.Printf("withdrew %s\n", model.FormatAmount(amount))
	return nil
}
