package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/recommend"
	"github.com/spigell/talent-matcher/internal/report"
)

const (
	PromptShowBreakdown       = "Show score breakdown"
	PromptReportByCategory    = "Report by category"
	PromptDumpToFile          = "Dump recommendations to file"
	PromptExportXLSX          = "Export recommendations to xlsx"
	PromptAppendToExcludeFile = "Append all vacancies to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank active vacancies for a candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		withSession("rank", func(ctx context.Context, sess *session) error {
			return rank(ctx, cmd, sess)
		})
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringP("candidate", "c", "", "candidate id")
	rankCmd.Flags().IntP("top", "n", 0, "number of recommendations. Default is matching.top-n or 5")
	rankCmd.Flags().StringSlice("category", nil, "fetch only vacancies of these categories")
	rankCmd.Flags().IntP("limit", "l", 0, "fetch at most this many vacancies. Default is unlimited")
	rankCmd.Flags().BoolP("yes", "y", false, "do not ask for actions, print the recommendations and exit")

	rankCmd.Flags().StringSlice("disable-filter", nil, "switch off filter steps by name (inactive, exclude_file, categories, max_age)")

	rankCmd.MarkFlagRequired("candidate")
	viper.BindPFlag("filters.disabled", rankCmd.Flags().Lookup("disable-filter"))
}

func rank(ctx context.Context, cmd *cobra.Command, sess *session) error {
	candidateID, _ := cmd.Flags().GetString("candidate")
	topN, _ := cmd.Flags().GetInt("top")
	categories, _ := cmd.Flags().GetStringSlice("category")
	limit, _ := cmd.Flags().GetInt("limit")
	auto, _ := cmd.Flags().GetBool("yes")

	candidate, err := sess.repo.FindCandidate(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("find candidate: %w", err)
	}

	recs, err := sess.service.Recommend(ctx, candidate, domain.VacancyFilter{
		Categories: categories,
		Limit:      limit,
	}, topN)
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		sess.logger.Info("exiting", zap.String("reason", "no vacancies left to recommend"))
		return nil
	}

	logRecommendations(sess.logger, recs)

	if auto {
		if path := sess.config.Report.XLSX; path != "" {
			return handleAction(PromptExportXLSX, sess, recs)
		}
		return nil
	}

	for {
		prompt := promptui.Select{
			Label: "Choose an action",
			Items: actions(sess),
		}
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		if err := handleAction(action, sess, recs); err != nil {
			return err
		}
	}
}

func actions(sess *session) []string {
	items := []string{PromptShowBreakdown, PromptReportByCategory, PromptDumpToFile}
	if sess.config.Report.XLSX != "" {
		items = append(items, PromptExportXLSX)
	}
	if sess.config.Filters.ExcludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	return append(items, PromptExit)
}

func logRecommendations(logger *zap.Logger, recs []recommend.Recommendation) {
	for _, rec := range recs {
		logger.Info("recommendation",
			zap.Int("rank", rec.Rank),
			zap.String("vacancy_id", rec.Vacancy.ID),
			zap.String("title", rec.Vacancy.Title),
			zap.String("category", rec.Vacancy.Category),
			zap.Float64("score", rec.Score),
		)
	}
}

func handleAction(action string, sess *session, recs []recommend.Recommendation) error {
	logger := sess.logger

	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptShowBreakdown:
		return showBreakdown(logger, recs)
	case PromptReportByCategory:
		pretty, _ := json.MarshalIndent(report.ByCategory(recs), "", "  ")
		logger.Info(string(pretty), zap.Int("recommendations count", len(recs)))
		return nil
	case PromptDumpToFile:
		filename, err := report.DumpToTmpFile(recs)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExportXLSX:
		path := sess.config.Report.XLSX
		if err := report.WriteXLSX(path, recs); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		logger.Info("exported recommendations", zap.String("filename", path))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(sess, recs)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func showBreakdown(logger *zap.Logger, recs []recommend.Recommendation) error {
	items := make([]string, 0, len(recs)+1)
	for _, rec := range recs {
		items = append(items, fmt.Sprintf("%s %s / %s / %.2f", rec.Vacancy.ID, rec.Vacancy.Title, rec.Vacancy.Category, rec.Score))
	}

	prompt := promptui.Select{
		Label: "Choose a vacancy and press ENTER",
		Items: append(items, PromptBack),
	}
	_, selected, err := prompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	id := strings.Split(selected, " ")[0]
	for _, rec := range recs {
		if rec.Vacancy.ID != id {
			continue
		}
		b := rec.Breakdown
		logger.Info("score breakdown",
			zap.String("vacancy_id", id),
			zap.Float64("skills", b.Skills),
			zap.Float64("experience", b.Experience),
			zap.Float64("salary", b.Salary),
			zap.Float64("location", b.Location),
			zap.Float64("final", b.Final),
			zap.String("urgency", string(rec.Vacancy.EffectiveUrgency())),
		)
		return nil
	}
	return fmt.Errorf("vacancy %s is not in the recommendations", id)
}

func appendToExcludeFile(sess *session, recs []recommend.Recommendation) error {
	path := sess.config.Filters.ExcludeFile

	excluded, err := filtering.LoadExcluded(path)
	if err != nil {
		return err
	}

	vacancies := make([]domain.Vacancy, 0, len(recs))
	for _, rec := range recs {
		vacancies = append(vacancies, rec.Vacancy)
	}
	excluded.Append(filtering.NewExcluded(vacancies, time.Now()))

	if err := excluded.ToFile(path); err != nil {
		return err
	}

	sess.logger.Info("appended to exclude file", zap.String("filename", path), zap.Int("count", len(vacancies)))
	return nil
}
