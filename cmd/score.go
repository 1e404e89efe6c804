package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Print the score breakdown of one candidate and vacancy",
	Run: func(cmd *cobra.Command, _ []string) {
		withSession("score", func(ctx context.Context, sess *session) error {
			return score(ctx, cmd, sess)
		})
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("candidate", "c", "", "candidate id")
	scoreCmd.Flags().StringP("vacancy", "v", "", "vacancy id")

	scoreCmd.MarkFlagRequired("candidate")
	scoreCmd.MarkFlagRequired("vacancy")
}

func score(ctx context.Context, cmd *cobra.Command, sess *session) error {
	candidateID, _ := cmd.Flags().GetString("candidate")
	vacancyID, _ := cmd.Flags().GetString("vacancy")

	candidate, err := sess.repo.FindCandidate(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("find candidate: %w", err)
	}
	vacancy, err := sess.repo.FindVacancy(ctx, vacancyID)
	if err != nil {
		return fmt.Errorf("find vacancy: %w", err)
	}

	breakdown, err := sess.service.ScorePair(ctx, candidate, vacancy)
	if err != nil {
		return err
	}
	return printJSON(breakdown)
}
