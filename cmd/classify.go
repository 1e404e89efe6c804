package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/domain"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Route a job posting to a business unit",
	Run: func(cmd *cobra.Command, _ []string) {
		withSession("classify", func(ctx context.Context, sess *session) error {
			return classify(ctx, cmd, sess)
		})
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringP("title", "t", "", "posting title")
	classifyCmd.Flags().String("description", "", "posting description, html is stripped")
	classifyCmd.Flags().String("location", "", "posting location")
	classifyCmd.Flags().Float64("salary-min", 0, "lower salary bound")
	classifyCmd.Flags().Float64("salary-max", 0, "upper salary bound")
	classifyCmd.Flags().Int("experience", -1, "required years of experience. Negative means unset")

	classifyCmd.MarkFlagRequired("title")
}

func classify(ctx context.Context, cmd *cobra.Command, sess *session) error {
	posting := postingFromFlags(cmd)

	result, err := sess.service.ClassifyBusinessUnit(ctx, posting)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func postingFromFlags(cmd *cobra.Command) classifier.Posting {
	flags := cmd.Flags()

	posting := classifier.Posting{}
	posting.Title, _ = flags.GetString("title")
	posting.Description, _ = flags.GetString("description")
	posting.Location, _ = flags.GetString("location")

	lower, _ := flags.GetFloat64("salary-min")
	upper, _ := flags.GetFloat64("salary-max")
	if flags.Changed("salary-min") || flags.Changed("salary-max") {
		posting.Salary = &domain.SalaryRange{Min: lower, Max: upper}
	}

	if years, _ := flags.GetInt("experience"); years >= 0 {
		posting.RequiredExperience = &years
	}

	return posting
}
