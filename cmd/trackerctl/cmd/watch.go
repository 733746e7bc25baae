package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print state changes until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		err = client.Watch(cmd.Context(), func(ev domain.Event) error {
			fmt.Fprintln(cmd.OutOrStdout(), formatEvent(ev))
			return nil
		})
		// Ctrl-C 是正常結束
		if errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled {
			return nil
		}
		return err
	},
}

func formatEvent(ev domain.Event) string {
	line := fmt.Sprintf("#%d %s balance=%s user=%s", ev.Version, ev.Kind, ev.Balance, ev.UserName)
	if ev.Entry != nil {
		line += " entry=" + domain.FormatLine(*ev.Entry, currency)
	}
	return line
}
