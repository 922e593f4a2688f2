package commands

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newProfileCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Print the effective cost profile",
		Long: `Prints the cost profile after defaults and the --profile file are merged.
The YAML output can be edited and passed back with --profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile := opts.service.Profile()
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), profile)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(profile); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
