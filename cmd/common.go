package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/logger"
	"github.com/spigell/talent-matcher/internal/store"
)

var errExit = errors.New("exit requested")

// withSession prepares the logger, the config and the dependencies, runs fn and exits non-zero on failure.
func withSession(command string, fn func(ctx context.Context, sess *session) error) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"),
		logger.StringField{Key: "app", Value: app},
		logger.StringField{Key: "command", Value: command},
	)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the talent-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	sess, err := newSession(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing dependencies", zap.Error(err))
	}

	err = fn(ctx, sess)
	sess.Close()
	if err != nil && !errors.Is(err, errExit) {
		logger.Fatal(command+" failed", zap.Error(err), zap.String("hint", errorHint(err)))
	}
}

// errorHint turns the error kinds of the core into a short suggestion for the operator.
func errorHint(err error) string {
	switch {
	case store.IsCircuitOpen(err):
		return "the store keeps failing and calls are suspended, retry after store.breaker.open-timeout"
	case domain.IsKind(err, domain.ErrNotFound):
		return "check that the requested id exists in the configured store"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "fix the input data or the configuration values named in the error"
	default:
		return "run with --debug for details"
	}
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}
