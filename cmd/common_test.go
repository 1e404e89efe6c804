package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/spigell/talent-matcher/internal/domain"
)

func TestErrorHint(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect string
	}{
		{name: "open breaker", err: fmt.Errorf("find candidate: %w", gobreaker.ErrOpenState), expect: "breaker"},
		{name: "missing id", err: domain.WrapError(domain.ErrNotFound, "find candidate c9", errors.New("no rows")), expect: "id exists"},
		{name: "invalid input", err: fmt.Errorf("%w: negative salary range", domain.ErrInvalidInput), expect: "configuration"},
		{name: "anything else", err: errors.New("boom"), expect: "--debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorHint(tt.err); !strings.Contains(got, tt.expect) {
				t.Fatalf("expected hint containing %q, got %q", tt.expect, got)
			}
		})
	}
}
