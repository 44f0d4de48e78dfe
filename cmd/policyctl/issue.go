package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"policyhub/internal/bootstrap"
	"policyhub/internal/infrastructure/http/v1/dto"
)

func newNextCmd(c *cli) *cobra.Command {
	var (
		count int
		raw   bool
	)
	cmd := &cobra.Command{
		Use:   "next PRODUCT",
		Short: "Issue the next number(s) for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				for i := 0; i < count; i++ {
					issued, err := app.Numbering.Next(ctx, args[0])
					if err != nil {
						return err
					}
					if raw {
						fmt.Fprintln(cmd.OutOrStdout(), issued.Number)
						continue
					}
					if err := printJSON(cmd.OutOrStdout(), dto.FromIssued(issued)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "How many numbers to issue")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the formatted numbers")
	return cmd
}

func newDecodeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "decode PRODUCT NUMBER",
		Short: "Recover the counter value printed in an issued number",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				value, err := app.Numbering.Decode(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.DecodeResponse{
					ProductCode: args[0],
					Number:      args[1],
					Value:       value,
				})
			})
		},
	}
}
