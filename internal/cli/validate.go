package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate page definitions",
		Long: `Validate a YAML page definitions file against the dataset schemas.

Every problem is reported, not just the first. Without a file the built-in
definitions are checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			source := path
			if source == "" {
				source = "built-in definitions"
			}

			reg, err := root.registry(path, root.logger())
			if err != nil {
				var cfgErr *dashboard.ConfigError
				if errors.As(err, &cfgErr) {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%s: %d problem(s)\n", source, len(cfgErr.Result.Errors))
					for _, e := range cfgErr.Result.Errors {
						fmt.Fprintf(out, "  %s [%s] %s\n", e.Field, e.Code, e.Message)
					}
				}
				return fmt.Errorf("%s is invalid: %w", source, err)
			}

			defs := reg.Definitions()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d page(s) OK\n", source, len(defs))
			for _, def := range defs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-14s %-22s %s\n", def.ID, def.Title, def.Dataset)
			}
			return nil
		},
	}
}
