package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *funnel.Engine {
	t.Helper()
	eng, err := funnel.New(memory.Backend(memory.NewSurface()))
	require.NoError(t, err)
	return eng
}

func lines(ls ...string) *strings.Reader {
	return strings.NewReader(strings.Join(ls, "\n") + "\n")
}

func onlySession(t *testing.T, eng *funnel.Engine) *domain.Session {
	t.Helper()
	ids, err := eng.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)
	s, err := eng.Session(context.Background(), ids[0])
	require.NoError(t, err)
	return s
}

var feedback = strings.Repeat("Works as described. ", 3)

func TestRunner_CompletesDemo(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}
	in := lines(
		"1", "us", "111-222", "5", "y", // step 1
		"Ada", "ada@example.com", "", // step 2
		feedback, // step 3
		"y",      // share
	)

	r := runner.New(eng,
		runner.WithHandler(runner.NewTextHandler(in, out)),
		runner.WithKeepSession(true),
	)
	require.NoError(t, r.Run(context.Background(), domain.DemoCampaignID))

	s := onlySession(t, eng)
	assert.Equal(t, domain.StepDisclosure, s.CurrentStep)
	assert.Equal(t, "demo-product-1", s.Form.Target)
	assert.Equal(t, "B0DEMO0001", s.Form.ASIN)
	require.NotNil(t, s.Form.UsedSevenDays)
	assert.True(t, *s.Form.UsedSevenDays)

	text := out.String()
	assert.Contains(t, text, "Thank you!")
	assert.Contains(t, text, "https://www.amazon.com/review/create-review?asin=B0DEMO0001")
}

func TestRunner_ValidationThenRetry(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}
	in := lines(
		"seller", "gb", "A-1", "2", "n",
		"Ada", "not-an-email", "",
		"", "ada@example.com", "", // retry: keep name, fix email
		":quit",
	)

	r := runner.New(eng,
		runner.WithHandler(runner.NewTextHandler(in, out)),
		runner.WithKeepSession(true),
	)
	require.NoError(t, r.Run(context.Background(), domain.DemoCampaignID))

	s := onlySession(t, eng)
	assert.Equal(t, domain.StepFeedback, s.CurrentStep)
	assert.Equal(t, "ada@example.com", s.Form.Email)
	assert.Contains(t, out.String(), "Enter a valid email address.")
}

func TestRunner_BackKeepsAnswers(t *testing.T) {
	eng := newEngine(t)
	in := lines(
		"2", "de", "B-7", "4", "yes",
		":back",
		"", "", "", "", "", // keep everything on step 1
		":quit",
	)

	r := runner.New(eng,
		runner.WithHandler(runner.NewTextHandler(in, &bytes.Buffer{})),
		runner.WithKeepSession(true),
	)
	require.NoError(t, r.Run(context.Background(), domain.DemoCampaignID))

	s := onlySession(t, eng)
	assert.Equal(t, domain.StepContactInfo, s.CurrentStep)
	assert.Equal(t, "demo-product-2", s.Form.Target)
	assert.Equal(t, "de", s.Form.Marketplace)
	assert.Equal(t, []domain.Step{1, 2, 1, 2}, s.History)
}

func TestRunner_UnmountsOnReturn(t *testing.T) {
	eng := newEngine(t)
	r := runner.New(eng, runner.WithHandler(runner.NewTextHandler(lines(":quit"), &bytes.Buffer{})))
	require.NoError(t, r.Run(context.Background(), domain.DemoCampaignID))

	ids, err := eng.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRunner_EndOfInput(t *testing.T) {
	eng := newEngine(t)
	r := runner.New(eng, runner.WithHandler(runner.NewTextHandler(strings.NewReader("1\n"), &bytes.Buffer{})))
	assert.NoError(t, r.Run(context.Background(), domain.DemoCampaignID))
}

func TestRunner_ErrorScreen(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}
	r := runner.New(eng, runner.WithHandler(runner.NewTextHandler(lines(), out)))

	err := r.Run(context.Background(), "missing-campaign")
	assert.ErrorIs(t, err, domain.ErrSessionFailed)
	assert.Contains(t, out.String(), "Something went wrong")
}

func TestRunner_JSONHandler(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}
	in := lines(`"1"`, `"ca"`, `"X-9"`, `"3"`, `"n"`, `":quit"`)

	r := runner.New(eng, runner.WithHandler(runner.NewJSONHandler(in, out)))
	require.NoError(t, r.Run(context.Background(), domain.DemoCampaignID))

	dec := json.NewDecoder(out)
	var kinds []string
	var prompts int
	for dec.More() {
		var msg runner.Message
		require.NoError(t, dec.Decode(&msg))
		switch msg.Type {
		case "view":
			kinds = append(kinds, string(msg.View.Kind))
		case "prompt":
			prompts++
		}
	}
	assert.Equal(t, []string{"select_target", "contact_info"}, kinds)
	assert.Equal(t, 6, prompts)
}
