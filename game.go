package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

const maxRows = 6

// LetterStatus classifies a single letter of a scored guess.
type LetterStatus string

const (
	LetterExact   LetterStatus = "exact"
	LetterPresent LetterStatus = "present"
	LetterAbsent  LetterStatus = "absent"
)

// LetterResult pairs one guessed letter with its status.
type LetterResult struct {
	Letter string       `json:"letter"`
	Status LetterStatus `json:"status"`
}

// GuessRecord is one accepted guess, its scored result, and who sent it.
type GuessRecord struct {
	Word   string         `json:"word"`
	Result []LetterResult `json:"result"`
	Author string         `json:"author"`
}

// GameState is the snapshot shape shared by the push channel and the
// polling endpoint.
type GameState struct {
	Guesses    []GuessRecord `json:"guesses"`
	CurrentRow int           `json:"currentRow"`
}

// Notifier receives session updates. The hub implements it for viewer
// connections; the chat listener implements it for authenticated replies.
type Notifier interface {
	NotifyState(state GameState)
	NotifyMessage(text string)
}

// Validator reports whether a word is known to the dictionary.
type Validator interface {
	Validate(ctx context.Context, word string) ValidationResult
}

// Session is the single shared game. Every mutating operation holds mu
// for its full duration, dictionary lookup included, so overlapping
// submits apply strictly one after another and each completes through
// its broadcast before the next begins.
type Session struct {
	mu sync.Mutex

	target  string
	guesses []GuessRecord
	row     int

	words     *WordList
	validator Validator
	notifiers []Notifier
}

func NewSession(words *WordList, validator Validator, notifiers ...Notifier) *Session {
	return &Session{
		words:     words,
		validator: validator,
		notifiers: notifiers,
		guesses:   []GuessRecord{},
	}
}

// AddNotifier attaches another update sink. Intended for wiring during
// startup, before traffic arrives.
func (s *Session) AddNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifiers = append(s.notifiers, n)
}

// Start picks a new target word, clears the board, and broadcasts the
// empty state. Always legal, including mid-game.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.target = s.words.Random()
	s.guesses = []GuessRecord{}
	s.row = 0

	log.Debug().Str("target", s.target).Msg("game started")

	s.notifyStateLocked()
}

// State returns a snapshot for polling clients.
func (s *Session) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Active reports whether a game is currently in progress.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.target != ""
}

// Submit runs one guess through dictionary validation, scoring, and the
// win and game-over transitions. Outside an active game, or once six
// rows are filled, it is a silent no-op.
func (s *Session) Submit(ctx context.Context, rawWord, author string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.row >= maxRows || s.target == "" {
		return
	}

	word := strings.ToLower(strings.TrimSpace(rawWord))

	result := s.validator.Validate(ctx, word)
	if !result.Valid {
		log.Debug().Str("author", author).Str("word", word).Msg("guess rejected")
		s.notifyMessageLocked(fmt.Sprintf("%s: %q is not a valid word.", author, word))
		return
	}

	s.guesses = append(s.guesses, GuessRecord{
		Word:   word,
		Result: scoreGuess(word, s.target),
		Author: author,
	})
	s.row++

	log.Info().Str("author", author).Str("word", word).Int("row", s.row).Msg("guess accepted")

	s.notifyStateLocked()

	switch {
	case word == s.target:
		s.notifyMessageLocked(fmt.Sprintf("Congratulations! @%s guessed the word: %s (%s)", author, word, result.Meaning))
		s.target = ""
	case s.row >= maxRows:
		s.notifyMessageLocked(fmt.Sprintf("Game over! The word was: %s", s.target))
		s.target = ""
	}
}

func (s *Session) snapshotLocked() GameState {
	guesses := make([]GuessRecord, len(s.guesses))
	copy(guesses, s.guesses)

	return GameState{
		Guesses:    guesses,
		CurrentRow: s.row,
	}
}

func (s *Session) notifyStateLocked() {
	state := s.snapshotLocked()
	for _, n := range s.notifiers {
		n.NotifyState(state)
	}
}

func (s *Session) notifyMessageLocked(text string) {
	for _, n := range s.notifiers {
		n.NotifyMessage(text)
	}
}

// scoreGuess colors each guess letter against the target: exact when in
// place, present when the target contains it anywhere else, absent
// otherwise. Repeated guess letters are each checked independently, so
// a letter occurring once in the target can be marked present more than
// once. Both inputs must be 5 lowercase letters.
func scoreGuess(guess, target string) []LetterResult {
	result := make([]LetterResult, 0, len(guess))

	for i := 0; i < len(guess); i++ {
		status := LetterAbsent
		switch {
		case guess[i] == target[i]:
			status = LetterExact
		case strings.IndexByte(target, guess[i]) >= 0:
			status = LetterPresent
		}

		result = append(result, LetterResult{
			Letter: string(guess[i]),
			Status: status,
		})
	}

	return result
}
