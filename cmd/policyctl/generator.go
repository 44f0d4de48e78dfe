package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"policyhub/internal/bootstrap"
	"policyhub/internal/core/apperror"
	"policyhub/internal/infrastructure/http/v1/dto"
)

type generatorFlags struct {
	req dto.GeneratorRequest
}

func (f *generatorFlags) bind(cmd *cobra.Command, withVersion bool) {
	cmd.Flags().StringVar(&f.req.Mask, "mask", "", "Number mask, e.g. POL-########")
	cmd.Flags().StringVar(&f.req.ResetPolicy, "reset", "YEARLY", "Reset policy: YEARLY, MONTHLY or NEVER")
	cmd.Flags().Int64Var(&f.req.MaxValue, "max", 0, "Largest counter value before wrapping (default: 999999 capped to the mask)")
	cmd.Flags().StringVar(&f.req.XORMask, "xor", "", "Optional XOR key for obfuscated numbers")
	if withVersion {
		cmd.Flags().IntVar(&f.req.Version, "expect-version", 0, "Expected current version (0 skips the check)")
	}
}

func newGeneratorCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generator",
		Aliases: []string{"gen"},
		Short:   "Manage number generators",
	}
	cmd.AddCommand(
		newGeneratorCreateCmd(c),
		newGeneratorUpdateCmd(c),
		newGeneratorValidateCmd(c),
		newGeneratorGetCmd(c),
		newGeneratorListCmd(c),
		newGeneratorHistoryCmd(c),
	)
	return cmd
}

func newGeneratorCreateCmd(c *cli) *cobra.Command {
	f := &generatorFlags{}
	cmd := &cobra.Command{
		Use:   "create PRODUCT",
		Short: "Register a generator for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.req.ProductCode = args[0]
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				g := f.req.ToGenerator()
				if err := app.Numbering.Create(ctx, g); err != nil {
					return describe(err)
				}
				return printJSON(cmd.OutOrStdout(), dto.FromGenerator(g))
			})
		},
	}
	f.bind(cmd, false)
	return cmd
}

func newGeneratorUpdateCmd(c *cli) *cobra.Command {
	f := &generatorFlags{}
	cmd := &cobra.Command{
		Use:   "update PRODUCT",
		Short: "Replace a generator's mask, reset policy, bound and XOR key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.req.ProductCode = args[0]
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				g := f.req.ToGenerator()
				if err := app.Numbering.Update(ctx, g); err != nil {
					return describe(err)
				}
				return printJSON(cmd.OutOrStdout(), dto.FromGenerator(g))
			})
		},
	}
	f.bind(cmd, true)
	return cmd
}

func newGeneratorValidateCmd(c *cli) *cobra.Command {
	f := &generatorFlags{}
	cmd := &cobra.Command{
		Use:   "validate PRODUCT",
		Short: "Check a generator configuration without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.req.ProductCode = args[0]
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				errs, err := app.Numbering.Validate(ctx, f.req.ToGenerator())
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), dto.NewValidationResponse(errs)); err != nil {
					return err
				}
				if !errs.Empty() {
					return fmt.Errorf("configuration has %d problem(s)", len(errs))
				}
				return nil
			})
		},
	}
	f.bind(cmd, false)
	return cmd
}

func newGeneratorGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get PRODUCT",
		Short: "Show one generator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				g, err := app.Numbering.Get(ctx, args[0])
				if err != nil {
					return describe(err)
				}
				return printJSON(cmd.OutOrStdout(), dto.FromGenerator(g))
			})
		},
	}
}

func newGeneratorListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tenant's generators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				list, err := app.Numbering.List(ctx)
				if err != nil {
					return describe(err)
				}
				return printJSON(cmd.OutOrStdout(), dto.NewListResponse(dto.FromGenerators(list)))
			})
		},
	}
}

func newGeneratorHistoryCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history PRODUCT",
		Short: "Show previous configurations of a generator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				revs, err := app.Numbering.History(ctx, args[0], limit)
				if err != nil {
					return describe(err)
				}
				return printJSON(cmd.OutOrStdout(), dto.NewListResponse(dto.FromRevisions(revs)))
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of revisions")
	return cmd
}

// describe turns validation errors into one readable error per field.
func describe(err error) error {
	errs := apperror.FieldErrorsOf(err)
	if errs.Empty() {
		return err
	}
	msg := "invalid generator:"
	for _, fe := range errs {
		msg += fmt.Sprintf("\n  %s: %s (%s)", fe.Field, fe.Message, fe.Code)
	}
	return fmt.Errorf("%s", msg)
}
