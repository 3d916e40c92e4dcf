package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	calls []Result
	err   error
}

func (r *recordingNotifier) NotifySessionResult(_ context.Context, result Result) error {
	r.calls = append(r.calls, result)
	return r.err
}

func TestResultFromSummarizesResolvedItems(t *testing.T) {
	t.Parallel()
	s := &session.Session{
		ID:          "s1",
		CompanyName: "Acme",
		Quarter:     3,
		Participants: []session.Participant{
			{ID: "p1", AgentName: "Ada", Role: session.RoleCEO, Kind: session.KindHuman},
			{ID: "p2", AgentName: "AI-CFO", Role: session.RoleCFO, Kind: session.KindSubstitute},
		},
		Agenda: []session.AgendaItem{
			{ID: "i1", Title: "Hire", ProposedByRole: session.RoleCEO, Resolved: true, ChosenOption: "Yes", Passed: true, Votes: map[string]string{"p1": "Yes", "p2": "Yes"}},
			{ID: "i2", Title: "Open", Votes: map[string]string{}},
		},
		Messages: []session.Message{
			{Type: session.MessageTypeSystem},
			{Type: session.MessageTypeMessage},
			{Type: session.MessageTypeMessage},
		},
		CompanyState: session.DefaultCompanyState(),
	}
	ended := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	r := ResultFrom(s, ended)
	assert.Equal(t, "Acme", r.CompanyName)
	assert.Equal(t, 3, r.Quarter)
	assert.Equal(t, ended, r.EndedAt)
	require.Len(t, r.Seats, 2)
	assert.Equal(t, session.KindSubstitute, r.Seats[1].Kind)
	require.Len(t, r.Resolutions, 1)
	assert.Equal(t, Resolution{AgendaID: "i1", Title: "Hire", ProposedBy: "CEO", ChosenOption: "Yes", Passed: true, Votes: 2}, r.Resolutions[0])
	assert.Equal(t, 2, r.MessageCount)
}

func TestMultiNotifiesEveryoneAndJoinsErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	first := &recordingNotifier{err: boom}
	second := &recordingNotifier{}

	err := Multi{first, second}.NotifySessionResult(context.Background(), Result{SessionID: "s1"})
	require.ErrorIs(t, err, boom)
	assert.Len(t, first.calls, 1)
	assert.Len(t, second.calls, 1)

	assert.NoError(t, Multi{}.NotifySessionResult(context.Background(), Result{}))
}
