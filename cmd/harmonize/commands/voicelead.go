package commands

import (
	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-harmony/internal/models"
)

// voicingFlags override the profile's solver settings for one run.
type voicingFlags struct {
	strict        bool
	policy        string
	allowCrossing bool
	strictSpacing bool
}

func (f *voicingFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.strict, "strict", false, "forbid parallels, crossings and spacing faults outright")
	fs.StringVar(&f.policy, "empty-policy", "", "when a chord has no voicing in range: widen or invalid")
	fs.BoolVar(&f.allowCrossing, "allow-crossing", false, "generate voicings with crossed voices")
	fs.BoolVar(&f.strictSpacing, "strict-spacing", true, "reject voicings with wide upper-voice gaps")
}

// input returns nil when no flag was set so the profile applies unchanged.
func (f *voicingFlags) input(cmd *cobra.Command) *models.VoicingInput {
	fs := cmd.Flags()
	if !fs.Changed("strict") && f.policy == "" && !fs.Changed("allow-crossing") && !fs.Changed("strict-spacing") {
		return nil
	}
	in := &models.VoicingInput{EmptyVoicingPolicy: f.policy}
	if f.strict {
		in.Mode = "strict"
	}
	if fs.Changed("allow-crossing") {
		in.AllowCrossing = &f.allowCrossing
	}
	if fs.Changed("strict-spacing") {
		in.StrictSpacing = &f.strictSpacing
	}
	return in
}

func newVoiceLeadCmd(opts *globalOptions) *cobra.Command {
	var flags voicingFlags
	cmd := &cobra.Command{
		Use:   "voicelead CHORD [CHORD ...]",
		Short: "Voice a chord progression in four parts",
		Long: `Finds the SATB voicing sequence with the lowest total voice-leading cost.
An infeasible progression is reported, not treated as an error.`,
		Example: `  harmonize voicelead C F G C
  harmonize voicelead --strict C G/B Am F`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.service.VoiceLead(cmd.Context(), models.VoiceLeadRequest{
				Chords:  args,
				Voicing: flags.input(cmd),
			}, "")
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), resp.Solution)
			}
			return printSolution(cmd.OutOrStdout(), resp.Solution)
		},
	}
	flags.register(cmd)
	return cmd
}

func newArrangeCmd(opts *globalOptions) *cobra.Command {
	var (
		mflags melodyFlags
		vflags voicingFlags
	)
	cmd := &cobra.Command{
		Use:     "arrange [NAME:DURATION ...]",
		Short:   "Harmonize a melody, then voice the chords",
		Example: `  harmonize arrange --key Am --melody "A4:1/2 G#4:1/2 A4:1"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := mflags.request(cmd, args)
			if err != nil {
				return err
			}
			resp, err := opts.service.Arrange(cmd.Context(), models.ArrangeRequest{
				HarmonizeRequest: req,
				Voicing:          vflags.input(cmd),
			}, "")
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			out := cmd.OutOrStdout()
			if err := printHarmonization(out, &resp.Harmonization); err != nil {
				return err
			}
			if _, err := out.Write([]byte("\n")); err != nil {
				return err
			}
			return printSolution(out, resp.Voicing)
		},
	}
	mflags.register(cmd)
	vflags.register(cmd)
	return cmd
}
