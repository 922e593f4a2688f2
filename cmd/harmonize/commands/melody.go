package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// melodyFlags describe the harmonizer input. Shared by melody and arrange.
type melodyFlags struct {
	key          string
	melody       string
	rhythm       string
	granularity  string
	minRest      string
	count        int
	sevenths     bool
	secondary    bool
	borrowed     bool
	maxChromatic int
}

func (f *melodyFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.key, "key", "k", "", `key, e.g. "C", "Am", "Eb major"`)
	fs.StringVarP(&f.melody, "melody", "m", "", `melody as NAME:DURATION tokens, "r" for rests ("C4:1/4 r:1/8 D4:1/8")`)
	fs.StringVar(&f.rhythm, "rhythm", "", "harmonic rhythm: beat, rest or count")
	fs.StringVar(&f.granularity, "granularity", "", "beat window for --rhythm beat")
	fs.StringVar(&f.minRest, "min-rest", "", "shortest gap that splits for --rhythm rest")
	fs.IntVar(&f.count, "count", 0, "notes per chord for --rhythm count")
	fs.BoolVar(&f.sevenths, "sevenths", true, "offer diatonic seventh chords")
	fs.BoolVar(&f.secondary, "secondary", true, "offer secondary dominants")
	fs.BoolVar(&f.borrowed, "borrowed", true, "offer chords borrowed from the parallel mode")
	fs.IntVar(&f.maxChromatic, "max-chromatic", 0, "cap on chromatic candidates per segment")
	_ = cmd.MarkFlagRequired("key")
}

// request builds the wire request. Melody text falls back to positional args.
func (f *melodyFlags) request(cmd *cobra.Command, args []string) (models.HarmonizeRequest, error) {
	text := f.melody
	if text == "" {
		text = strings.Join(args, " ")
	}
	if strings.TrimSpace(text) == "" {
		return models.HarmonizeRequest{}, errors.New("no melody given")
	}
	notes, err := theory.ParseMelody(text)
	if err != nil {
		return models.HarmonizeRequest{}, err
	}

	req := models.HarmonizeRequest{Key: f.key, Melody: models.NoteInputs(notes)}
	if f.rhythm != "" || f.granularity != "" || f.minRest != "" || f.count != 0 {
		strategy := f.rhythm
		if strategy == "" && f.count > 0 {
			strategy = "count"
		}
		req.Rhythm = &models.RhythmInput{
			Strategy:    strategy,
			Granularity: f.granularity,
			MinRest:     f.minRest,
			Count:       f.count,
		}
	}

	fs := cmd.Flags()
	if fs.Changed("sevenths") || fs.Changed("secondary") || fs.Changed("borrowed") || fs.Changed("max-chromatic") {
		req.Candidates = &models.CandidateInput{
			IncludeSevenths:           &f.sevenths,
			IncludeSecondaryDominants: &f.secondary,
			IncludeBorrowed:           &f.borrowed,
		}
		if fs.Changed("max-chromatic") {
			req.Candidates.MaxChromatic = &f.maxChromatic
		}
	}
	return req, nil
}

func newMelodyCmd(opts *globalOptions) *cobra.Command {
	var flags melodyFlags
	cmd := &cobra.Command{
		Use:   "melody [NAME:DURATION ...]",
		Short: "Choose chords for a melody",
		Example: `  harmonize melody --key C --melody "C4:1/4 D4:1/4 E4:1/4 F4:1/4 G4:1/2"
  harmonize melody -k G --rhythm count --count 2 G4:1/4 A4:1/4 B4:1/4 D5:1/4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd, args)
			if err != nil {
				return err
			}
			resp, err := opts.service.Harmonize(cmd.Context(), req, "")
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return printHarmonization(cmd.OutOrStdout(), resp)
		},
	}
	flags.register(cmd)
	return cmd
}
