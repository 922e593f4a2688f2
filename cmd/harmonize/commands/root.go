// Package commands implements the harmonize CLI.
package commands

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-harmony/internal/config"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
)

const defaultTimeout = 10 * time.Second

// globalOptions are shared by every subcommand. service is built in the
// root's PersistentPreRunE once the profile flag is known.
type globalOptions struct {
	profilePath string
	jsonOutput  bool
	verbose     bool
	timeout     time.Duration

	service *services.HarmonyService
}

// NewRootCmd builds a fresh command tree. Tests use it with SetArgs/SetOut.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "harmonize",
		Short: "Melody harmonization and SATB voice leading",
		Long: `Chooses chords for a melody with a dynamic-programming harmonizer and
voices chord progressions in four parts with a minimum-cost search.

Durations are written in whole notes: 1/4 is a quarter note.

Examples:
  harmonize melody --key C --melody "C4:1/4 D4:1/4 E4:1/4 F4:1/4 G4:1/2"
  harmonize voicelead C F G C
  harmonize voicelead --strict Am Dm E Am
  harmonize arrange --key Am --melody "A4:1/2 G#4:1/2 A4:1"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.verbose {
				log.SetOutput(io.Discard)
			}
			profile, err := config.LoadProfile(opts.profilePath)
			if err != nil {
				return err
			}
			opts.service, err = services.NewHarmonyService(profile, opts.timeout)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.profilePath, "profile", "p", os.Getenv("COST_PROFILE_PATH"), "cost profile YAML file")
	pf.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "print solver logs to stderr")
	pf.DurationVar(&opts.timeout, "timeout", defaultTimeout, "solve deadline")

	root.AddCommand(
		newMelodyCmd(opts),
		newVoiceLeadCmd(opts),
		newArrangeCmd(opts),
		newProfileCmd(opts),
	)
	return root
}

// Execute runs the CLI against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}
