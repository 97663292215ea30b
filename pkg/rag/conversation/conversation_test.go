package conversation

import (
	"sync"
	"testing"

	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newConversation() *Conversation {
	return New("study-notes", logger.NewNopLogger())
}

func intro(content string) rag.Fragment {
	return rag.Fragment{Filename: "intro.pdf", Content: content}
}

func TestSubmit_FromIdle(t *testing.T) {
	c := newConversation()

	ticket, outcome := c.Submit("What is X?")

	require.Equal(t, OutcomeAccepted, outcome)
	assert.Equal(t, StateProcessing, c.State())
	assert.Equal(t, "What is X?", c.Pending())
	assert.Equal(t, "What is X?", ticket.Query)
	assert.Equal(t, "study-notes", ticket.Assistant)
	assert.Empty(t, ticket.History)
}

func TestSubmit_EmptyQueryIsNoop(t *testing.T) {
	c := newConversation()

	for _, q := range []string{"", "   ", "\n\t"} {
		_, outcome := c.Submit(q)
		assert.Equal(t, OutcomeEmptyQuery, outcome)
	}
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Pending())
}

func TestSubmit_SecondQueryWhileProcessingKeepsFirst(t *testing.T) {
	c := newConversation()
	_, outcome := c.Submit("first")
	require.Equal(t, OutcomeAccepted, outcome)

	_, outcome = c.Submit("second")

	assert.Equal(t, OutcomeConcurrentTurnRejected, outcome)
	assert.Equal(t, "first", c.Pending())
	assert.Equal(t, StateProcessing, c.State())
}

// One answered query with two fragments from the same file gives one turn and one file group.
func TestComplete_AppendsTurnAndAttributes(t *testing.T) {
	c := newConversation()
	f1 := intro("X is the first letter of xylophone.")
	f2 := intro("Later chapters expand on X in depth.")

	ticket, _ := c.Submit("What is X?")
	done, outcome := c.Complete(ticket, "X is a letter.", []rag.Fragment{f1, f2})

	require.Equal(t, OutcomeAccepted, outcome)
	require.NotNil(t, done)
	assert.Equal(t, []rag.Fragment{f1, f2}, done.Fragments)
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Pending())
	require.Len(t, c.Turns(), 1)
	assert.Equal(t, Turn{Index: 0, Query: "What is X?", Answer: "X is a letter."}, c.Turns()[0])

	groups := c.GroupedByFile()
	require.Len(t, groups, 1)
	assert.Equal(t, "intro.pdf", groups[0].Filename)
	assert.Equal(t, []rag.Fragment{f1, f2}, groups[0].Fragments)
}

func TestComplete_HistoryOrdersHumanBeforeAI(t *testing.T) {
	c := newConversation()

	t1, _ := c.Submit("q1")
	c.Complete(t1, "a1", nil)
	t2, _ := c.Submit("q2")

	assert.Equal(t, []rag.HistoryEntry{
		{Role: rag.RoleHuman, Text: "q1"},
		{Role: rag.RoleAI, Text: "a1"},
	}, t2.History)

	c.Complete(t2, "a2", nil)
	history := c.History()
	require.Len(t, history, 4)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, rag.RoleHuman, history[i].Role)
		assert.Equal(t, rag.RoleAI, history[i+1].Role)
	}
}

func TestComplete_WhenIdleIsRejected(t *testing.T) {
	c := newConversation()
	ticket, _ := c.Submit("q")
	c.Complete(ticket, "a", nil)

	_, outcome := c.Complete(ticket, "again", nil)

	assert.Equal(t, OutcomeNotProcessing, outcome)
	assert.Len(t, c.Turns(), 1)
}

func TestComplete_OldTicketCannotCompleteNewerTurn(t *testing.T) {
	c := newConversation()
	old, _ := c.Submit("q1")
	c.Complete(old, "a1", nil)
	_, _ = c.Submit("q2")

	_, outcome := c.Complete(old, "late duplicate", nil)

	assert.Equal(t, OutcomeStaleResultDiscarded, outcome)
	assert.Equal(t, "q2", c.Pending())
	assert.Len(t, c.Turns(), 1)
}

func TestReset_DiscardsInFlightResult(t *testing.T) {
	c := newConversation()
	ticket, _ := c.Submit("What is X?")

	c.Reset()
	_, outcome := c.Complete(ticket, "late answer", []rag.Fragment{intro("late fragment")})

	assert.Equal(t, OutcomeStaleResultDiscarded, outcome)
	assert.Empty(t, c.Turns())
	assert.Empty(t, c.History())
	assert.Empty(t, c.GroupedByFile())
	assert.Equal(t, StateIdle, c.State())
}

func TestReset_ClearsEverything(t *testing.T) {
	c := newConversation()
	ticket, _ := c.Submit("q")
	c.Complete(ticket, "a", []rag.Fragment{intro("content")})
	_, err := c.ShowFragments(0, "intro.pdf")
	require.NoError(t, err)

	c.Reset()

	assert.Empty(t, c.Turns())
	assert.Empty(t, c.History())
	assert.Empty(t, c.GroupedByFile())
	assert.Equal(t, 0, c.ReferencedFragments())
	assert.IsType(t, NoDisplay{}, c.Display())
}

// The completion describes the turn it appended even if the conversation moves on before
// the caller reads it.
func TestComplete_ReturnsAppendedTurn(t *testing.T) {
	c := newConversation()
	first, _ := c.Submit("first")
	done, outcome := c.Complete(first, "a1", []rag.Fragment{intro("one")})
	require.Equal(t, OutcomeAccepted, outcome)

	c.Reset()
	second, _ := c.Submit("second")
	c.Complete(second, "a2", nil)

	assert.Equal(t, Turn{Index: 0, Query: "first", Answer: "a1"}, done.Turn)
	assert.Len(t, done.Fragments, 1)
	assert.Equal(t, "second", c.Turns()[0].Query)
}

func TestComplete_StaleTicketHasNoCompletion(t *testing.T) {
	c := newConversation()
	ticket, _ := c.Submit("q")
	c.Reset()

	done, outcome := c.Complete(ticket, "late", nil)

	assert.Nil(t, done)
	assert.Equal(t, OutcomeStaleResultDiscarded, outcome)
}

func TestReset_AllowsNewSubmission(t *testing.T) {
	c := newConversation()
	_, _ = c.Submit("stuck")

	c.Reset()
	ticket, outcome := c.Submit("fresh")

	require.Equal(t, OutcomeAccepted, outcome)
	_, outcome = c.Complete(ticket, "answer", nil)
	assert.Equal(t, OutcomeAccepted, outcome)
	assert.Len(t, c.Turns(), 1)
}

func TestAbort_ReturnsToIdleWithoutTurn(t *testing.T) {
	c := newConversation()
	ticket, _ := c.Submit("q")

	outcome := c.Abort(ticket)

	assert.Equal(t, OutcomeAccepted, outcome)
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Turns())
	assert.Empty(t, c.History())
}

func TestAttributionAcrossTurns(t *testing.T) {
	c := newConversation()
	shared := intro("Shared fragment appearing in both answers")

	t1, _ := c.Submit("q1")
	c.Complete(t1, "a1", []rag.Fragment{shared})
	t2, _ := c.Submit("q2")
	c.Complete(t2, "a2", []rag.Fragment{shared, {Content: "no filename"}})

	assert.Equal(t, 2, c.ReferencedFragments())
	assert.Len(t, c.FragmentsForTurn(0), 1)
	assert.Len(t, c.FragmentsForTurn(1), 2)

	groups := c.TurnGroupedByFile(1)
	require.Len(t, groups, 2)
	assert.Equal(t, rag.UnknownFilename, groups[1].Filename)
}

func TestConcurrentSubmit_ExactlyOneAccepted(t *testing.T) {
	c := newConversation()

	const workers = 32
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, outcome := c.Submit("q"); outcome == OutcomeAccepted {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, StateProcessing, c.State())
}

func TestConcurrentResetAndComplete(t *testing.T) {
	c := newConversation()
	ticket, _ := c.Submit("q")

	var wg sync.WaitGroup
	var outcome Outcome
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, outcome = c.Complete(ticket, "a", []rag.Fragment{intro("frag")})
	}()
	go func() {
		defer wg.Done()
		c.Reset()
	}()
	wg.Wait()

	// Either the turn landed and reset cleared it, or the result was discarded.
	assert.Contains(t, []Outcome{OutcomeAccepted, OutcomeStaleResultDiscarded}, outcome)
	assert.Empty(t, c.Turns())
	assert.Empty(t, c.GroupedByFile())
}
