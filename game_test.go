package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	known map[string]string // word -> meaning
	delay time.Duration
	calls int
	mu    sync.Mutex
}

func (f *fakeValidator) Validate(_ context.Context, word string) ValidationResult {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if len(word) != 5 {
		return ValidationResult{Message: "word must be 5 letters"}
	}

	meaning, ok := f.known[word]
	if !ok {
		return ValidationResult{Message: "word not found in dictionary"}
	}

	return ValidationResult{Valid: true, Meaning: meaning}
}

func (f *fakeValidator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type recordingNotifier struct {
	mu       sync.Mutex
	states   []GameState
	messages []string
}

func (n *recordingNotifier) NotifyState(state GameState) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.states = append(n.states, state)
}

func (n *recordingNotifier) NotifyMessage(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.messages = append(n.messages, text)
}

func (n *recordingNotifier) lastMessage() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.messages) == 0 {
		return ""
	}

	return n.messages[len(n.messages)-1]
}

func (n *recordingNotifier) messageCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.messages)
}

// newTestSession pins the target word by loading a single-entry list.
func newTestSession(target string, validator Validator, notifiers ...Notifier) *Session {
	return NewSession(&WordList{words: []string{target}}, validator, notifiers...)
}

func TestScoreGuess(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		target string
		want   []LetterStatus
	}{
		{
			name:   "all exact",
			guess:  "mobil",
			target: "mobil",
			want:   []LetterStatus{LetterExact, LetterExact, LetterExact, LetterExact, LetterExact},
		},
		{
			name:   "mixed",
			guess:  "rumah",
			target: "murah",
			want:   []LetterStatus{LetterPresent, LetterExact, LetterPresent, LetterExact, LetterExact},
		},
		{
			name:   "all absent",
			guess:  "pintu",
			target: "gelas",
			want:   []LetterStatus{LetterAbsent, LetterAbsent, LetterAbsent, LetterAbsent, LetterAbsent},
		},
		{
			// The coloring deliberately does not count-limit repeats: a
			// letter occurring once in the target marks every stray copy
			// in the guess as present.
			name:   "repeated letters not count-limited",
			guess:  "aaaaa",
			target: "abcde",
			want:   []LetterStatus{LetterExact, LetterPresent, LetterPresent, LetterPresent, LetterPresent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scoreGuess(tt.guess, tt.target)
			require.Len(t, result, 5)

			for i, lr := range result {
				assert.Equal(t, tt.want[i], lr.Status, "position %d", i)
				assert.Equal(t, string(tt.guess[i]), lr.Letter, "position %d", i)
			}
		})
	}
}

func TestSubmitWin(t *testing.T) {
	notifier := &recordingNotifier{}
	validator := &fakeValidator{known: map[string]string{"rumah": "tempat tinggal"}}
	session := newTestSession("rumah", validator, notifier)

	session.Start()
	require.True(t, session.Active())

	session.Submit(context.Background(), "RUMAH", "alice")

	state := session.State()
	require.Len(t, state.Guesses, 1)
	assert.Equal(t, 1, state.CurrentRow)
	assert.Equal(t, "rumah", state.Guesses[0].Word)
	assert.Equal(t, "alice", state.Guesses[0].Author)

	assert.Contains(t, notifier.lastMessage(), "@alice")
	assert.Contains(t, notifier.lastMessage(), "rumah")
	assert.Contains(t, notifier.lastMessage(), "tempat tinggal")

	// The win cleared the target: the session is idle again and further
	// submits are silently ignored.
	assert.False(t, session.Active())
	session.Submit(context.Background(), "rumah", "bob")
	assert.Equal(t, 1, session.State().CurrentRow)
}

func TestSubmitRejectsUnknownWord(t *testing.T) {
	notifier := &recordingNotifier{}
	validator := &fakeValidator{known: map[string]string{}}
	session := newTestSession("mobil", validator, notifier)

	session.Start()
	session.Submit(context.Background(), "zzzzz", "bob")

	state := session.State()
	assert.Empty(t, state.Guesses)
	assert.Equal(t, 0, state.CurrentRow)
	assert.True(t, session.Active())

	assert.Contains(t, notifier.lastMessage(), "bob")
	assert.Contains(t, notifier.lastMessage(), "zzzzz")
}

func TestSubmitGameOverAfterSixRows(t *testing.T) {
	notifier := &recordingNotifier{}
	validator := &fakeValidator{known: map[string]string{"mobil": "kendaraan"}}
	session := newTestSession("rumah", validator, notifier)

	session.Start()
	for i := 0; i < maxRows; i++ {
		session.Submit(context.Background(), "mobil", fmt.Sprintf("bob%d", i))
	}

	state := session.State()
	assert.Equal(t, maxRows, state.CurrentRow)
	assert.Len(t, state.Guesses, maxRows)
	assert.False(t, session.Active())

	assert.Contains(t, notifier.lastMessage(), "Game over")
	assert.Contains(t, notifier.lastMessage(), "rumah")

	// Row seven never happens.
	session.Submit(context.Background(), "mobil", "bob")
	assert.Equal(t, maxRows, session.State().CurrentRow)
}

func TestSubmitBeforeStartIsNoOp(t *testing.T) {
	notifier := &recordingNotifier{}
	validator := &fakeValidator{known: map[string]string{"rumah": "x"}}
	session := newTestSession("rumah", validator, notifier)

	session.Submit(context.Background(), "rumah", "alice")

	assert.Equal(t, 0, session.State().CurrentRow)
	assert.Equal(t, 0, notifier.messageCount())
	assert.Equal(t, 0, validator.callCount())
}

func TestStartResetsMidGame(t *testing.T) {
	notifier := &recordingNotifier{}
	validator := &fakeValidator{known: map[string]string{"mobil": "kendaraan"}}
	session := newTestSession("rumah", validator, notifier)

	session.Start()
	session.Submit(context.Background(), "mobil", "alice")
	require.Equal(t, 1, session.State().CurrentRow)

	session.Start()

	state := session.State()
	assert.Empty(t, state.Guesses)
	assert.Equal(t, 0, state.CurrentRow)
	assert.True(t, session.Active())
}

func TestRowAlwaysMatchesGuessCount(t *testing.T) {
	notifier := &recordingNotifier{}
	validator := &fakeValidator{known: map[string]string{"mobil": "x", "pintu": "y"}}
	session := newTestSession("rumah", validator, notifier)

	session.Start()
	words := []string{"mobil", "zzzzz", "pintu", "abc", "mobil", "qqqqq", "pintu"}
	for i, w := range words {
		session.Submit(context.Background(), w, fmt.Sprintf("user%d", i))

		state := session.State()
		assert.Equal(t, len(state.Guesses), state.CurrentRow)
		assert.LessOrEqual(t, state.CurrentRow, maxRows)
	}
}

func TestConcurrentSubmitsSerialize(t *testing.T) {
	notifier := &recordingNotifier{}
	validator := &fakeValidator{
		known: map[string]string{"mobil": "kendaraan"},
		delay: 10 * time.Millisecond, // simulates a slow dictionary lookup
	}
	session := newTestSession("rumah", validator, notifier)

	session.Start()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Submit(context.Background(), "mobil", "bob")
		}()
	}
	wg.Wait()

	// Exactly six of the ten submits land; each increments the row from
	// the value its predecessor left behind.
	state := session.State()
	assert.Equal(t, maxRows, state.CurrentRow)
	assert.Len(t, state.Guesses, maxRows)
	assert.False(t, session.Active())
}
