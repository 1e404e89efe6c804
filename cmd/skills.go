package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Print the skills of a candidate ordered by relevance to their interests",
	Run: func(cmd *cobra.Command, _ []string) {
		withSession("skills", func(ctx context.Context, sess *session) error {
			candidateID, _ := cmd.Flags().GetString("candidate")

			candidate, err := sess.repo.FindCandidate(ctx, candidateID)
			if err != nil {
				return fmt.Errorf("find candidate: %w", err)
			}

			ranking, err := sess.service.PrioritizeSkills(candidate)
			if err != nil {
				return err
			}

			for i, skill := range ranking.Skills {
				fmt.Printf("%d. %s %.3f\n", i+1, skill, ranking.Weight(skill))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)

	skillsCmd.Flags().StringP("candidate", "c", "", "candidate id")
	skillsCmd.MarkFlagRequired("candidate")
}
