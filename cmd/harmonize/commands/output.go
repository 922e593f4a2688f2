package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHarmonization(w io.Writer, resp *models.HarmonizeResponse) error {
	fmt.Fprintf(w, "Key: %s\n", resp.Key)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tCHORD\tNUMERAL\tFUNCTION")
	for _, c := range resp.Chords {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Start.RatString(), c.End.RatString(), c.Symbol, c.Numeral, c.Function)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Total cost: %.2f\n", resp.TotalCost)
	return err
}

func printSolution(w io.Writer, sol *voicing.Solution) error {
	if len(sol.Voicings) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tCHORD\tBASS\tTENOR\tALTO\tSOPRANO")
		for i, v := range sol.Voicings {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, sol.Chords[i],
				theory.PitchName(v.Bass), theory.PitchName(v.Tenor),
				theory.PitchName(v.Alto), theory.PitchName(v.Soprano))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	status := "valid"
	if !sol.IsValid {
		status = "invalid"
	}
	fmt.Fprintf(w, "Total cost: %.2f (%s)\n", sol.TotalCost, status)
	for _, warning := range sol.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}

	if r := sol.Report; r != nil {
		fmt.Fprintf(w, "Movement: total %.0f, average %.2f, stddev %.2f\n", r.TotalMovement, r.AverageMovement, r.MovementStdDev)
		fmt.Fprintf(w, "Faults: %d parallel fifths, %d parallel octaves, %d hidden, %d crossings, %d spacing\n",
			r.ParallelFifths, r.ParallelOctaves, r.HiddenParallels, r.VoiceCrossings, r.SpacingViolations)
		fmt.Fprintf(w, "Quality: %.1f\n", r.QualityScore)
	}
	return nil
}
