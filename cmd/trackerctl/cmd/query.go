package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the account balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := fetchState(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), domain.FormatAmount(state.Balance, currency))
		return nil
	},
}

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "List credits in insertion order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := fetchState(cmd)
		if err != nil {
			return err
		}
		printList(cmd.OutOrStdout(), state.Credits)
		return nil
	},
}

var debitsCmd = &cobra.Command{
	Use:   "debits",
	Short: "List debits in insertion order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := fetchState(cmd)
		if err != nil {
			return err
		}
		printList(cmd.OutOrStdout(), state.Debits)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show the current user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := fetchState(cmd)
		if err != nil {
			return err
		}
		printUser(cmd.OutOrStdout(), state.User)
		return nil
	},
}

func fetchState(cmd *cobra.Command) (domain.State, error) {
	client, err := newClient()
	if err != nil {
		return domain.State{}, err
	}
	ctx, cancel := callContext(cmd)
	defer cancel()
	return client.GetState(ctx)
}

func printList(w io.Writer, list []domain.Transaction) {
	if len(list) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, tx := range list {
		fmt.Fprintln(w, domain.FormatLine(tx, currency))
	}
}

func printUser(w io.Writer, user domain.User) {
	fmt.Fprintf(w, "%s (member since %s)\n", user.UserName, user.MemberSince)
}
