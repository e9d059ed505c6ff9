// Package common holds steps shared by every feature.
package common

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext is the scenario state the common steps need.
type TestContext interface {
	Reset()
	AuthenticateAs(name string) error
	GET(path string) error
	LastStatus() int
	LastJSON() (map[string]any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.Reset()
		return ctx, nil
	})

	ctx.Step(`^the kitty service is running$`, func() error {
		if err := tc.GET("/health"); err != nil {
			return err
		}
		if tc.LastStatus() != http.StatusOK {
			return fmt.Errorf("health returned %d", tc.LastStatus())
		}
		return nil
	})
	ctx.Step(`^I am authenticated as "([^"]*)"$`, tc.AuthenticateAs)
	ctx.Step(`^the response status should be (\d+)$`, func(want int) error {
		if got := tc.LastStatus(); got != want {
			return fmt.Errorf("expected status %d, got %d", want, got)
		}
		return nil
	})
	ctx.Step(`^the response error should be "([^"]*)"$`, func(want string) error {
		body, err := tc.LastJSON()
		if err != nil {
			return err
		}
		if got := body["error"]; got != want {
			return fmt.Errorf("expected error %q, got %v", want, got)
		}
		return nil
	})
}
