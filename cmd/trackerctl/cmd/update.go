package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
)

var entryDate string

var addCreditCmd = &cobra.Command{
	Use:   "add-credit <description> <amount>",
	Short: "Add a credit and print the new balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdd(cmd, args, func(ctx context.Context, entry domain.Transaction) (domain.State, error) {
			client, err := newClient()
			if err != nil {
				return domain.State{}, err
			}
			return client.AddCredit(ctx, entry)
		})
	},
}

var addDebitCmd = &cobra.Command{
	Use:   "add-debit <description> <amount>",
	Short: "Add a debit and print the new balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdd(cmd, args, func(ctx context.Context, entry domain.Transaction) (domain.State, error) {
			client, err := newClient()
			if err != nil {
				return domain.State{}, err
			}
			return client.AddDebit(ctx, entry)
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <userName>",
	Short: "Log in as another user (memberSince is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		state, err := client.SetCurrentUser(ctx, args[0])
		if err != nil {
			return err
		}
		printUser(cmd.OutOrStdout(), state.User)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{addCreditCmd, addDebitCmd} {
		c.Flags().StringVar(&entryDate, "date", "", "entry date (YYYY-MM-DD or RFC3339), defaults to now")
	}
}

// runAdd 先在本地驗證，避免無效資料送到 server
func runAdd(cmd *cobra.Command, args []string, add func(context.Context, domain.Transaction) (domain.State, error)) error {
	amount, err := domain.ParseAmount(args[1])
	if err != nil {
		return err
	}
	var at time.Time
	if entryDate != "" {
		if at, err = domain.ParseDate(entryDate); err != nil {
			return &domain.ValidationError{Field: "date", Err: domain.ErrDateInvalid}
		}
	}
	entry, err := domain.NewTransaction(args[0], amount, at)
	if err != nil {
		return err
	}

	ctx, cancel := callContext(cmd)
	defer cancel()
	state, err := add(ctx, entry)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "balance: %s\n", domain.FormatAmount(state.Balance, currency))
	return nil
}
