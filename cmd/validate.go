package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rehearsal/core/model"
	"github.com/kilianp07/rehearsal/pkg/input"
)

var validateInput string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an attendance table and summarise it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		att, err := input.LoadFile(validateInput)
		if err != nil {
			return err
		}
		return summarize(cmd.OutOrStdout(), att)
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "attendance table (.csv, .json or .yaml)")
	_ = validateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(validateCmd)
}

func summarize(w io.Writer, att *model.Attendance) error {
	all := make(model.State, att.Scenes())
	for i := range all {
		all[i] = i
	}
	total := att.TotalMinutes(all)
	if _, err := fmt.Fprintf(w, "%d scenes, %d actors, %d minutes (%.1f h)\n",
		att.Scenes(), att.Actors(), total, float64(total)/60); err != nil {
		return err
	}

	scenesPerActor := make([]int, att.Actors())
	for s := 0; s < att.Scenes(); s++ {
		cast := att.Cast(s)
		if len(cast) == 0 {
			fmt.Fprintf(w, "warning: scene %d has no actor\n", s+1)
		}
		for _, a := range cast {
			scenesPerActor[a]++
		}
	}
	for a, n := range scenesPerActor {
		if n == 0 {
			fmt.Fprintf(w, "warning: actor %q is in no scene\n", att.ActorName(a))
			continue
		}
		fmt.Fprintf(w, "  %-20s %d scenes\n", att.ActorName(a), n)
	}
	return nil
}
