// Package kitty holds registry steps.
package kitty

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the scenario state the kitty steps need.
type TestContext interface {
	Account(name string) (string, error)
	POST(path string, body any) error
	LastStatus() int
	LastJSON() (map[string]any, error)
}

type kittySteps struct {
	tc    TestContext
	owner string
	raw   []byte
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	s := &kittySteps{tc: tc}
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		s.owner, s.raw = "", nil
		return ctx, nil
	})

	ctx.Step(`^I create a kitty with fresh dna owned by "([^"]*)"$`, s.createFresh)
	ctx.Step(`^I have created a kitty with fresh dna owned by "([^"]*)"$`, s.haveCreated)
	ctx.Step(`^I create the same kitty again$`, s.createAgain)
	ctx.Step(`^the kitty should be owned by "([^"]*)"$`, s.ownedBy)
	ctx.Step(`^the kitty gender should follow the input length parity$`, s.genderFollowsParity)
	ctx.Step(`^the kitty should have a content identifier$`, s.hasCID)
	ctx.Step(`^I send the debug message "([^"]*)"$`, func(message string) error {
		return tc.POST("/debug/log", map[string]string{"message": message})
	})
}

func (s *kittySteps) createFresh(ownerName string) error {
	owner, err := s.tc.Account(ownerName)
	if err != nil {
		return err
	}
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	// Odd-length inputs half the time so both genders are exercised.
	if raw[0]%2 == 1 {
		raw = raw[1:]
	}
	s.owner, s.raw = owner, raw
	return s.create()
}

func (s *kittySteps) haveCreated(ownerName string) error {
	if err := s.createFresh(ownerName); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return fmt.Errorf("setup creation returned %d", s.tc.LastStatus())
	}
	return nil
}

func (s *kittySteps) createAgain() error {
	if s.raw == nil {
		return fmt.Errorf("no kitty created yet")
	}
	return s.create()
}

func (s *kittySteps) create() error {
	return s.tc.POST("/kitties", map[string]string{
		"owner": s.owner,
		"dna":   hex.EncodeToString(s.raw),
	})
}

func (s *kittySteps) field(name string) (string, error) {
	body, err := s.tc.LastJSON()
	if err != nil {
		return "", err
	}
	v, ok := body[name].(string)
	if !ok {
		return "", fmt.Errorf("response has no %q field", name)
	}
	return v, nil
}

func (s *kittySteps) ownedBy(name string) error {
	want, err := s.tc.Account(name)
	if err != nil {
		return err
	}
	got, err := s.field("owner")
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, want) {
		return fmt.Errorf("expected owner %s, got %s", want, got)
	}
	return nil
}

func (s *kittySteps) genderFollowsParity() error {
	want := "female"
	if len(s.raw)%2 == 0 {
		want = "male"
	}
	got, err := s.field("gender")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected gender %s for %d input bytes, got %s", want, len(s.raw), got)
	}
	return nil
}

func (s *kittySteps) hasCID() error {
	cid, err := s.field("cid")
	if err != nil {
		return err
	}
	if !strings.HasPrefix(cid, "b") {
		return fmt.Errorf("expected a base32 CIDv1, got %q", cid)
	}
	return nil
}
