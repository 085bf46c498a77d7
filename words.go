/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"crypto/rand"
	_ "embed"
	"errors"
	"math/big"
	"os"
	"strings"
)

//go:embed words.txt
var embeddedWords string

// WordList is the fixed pool of target words.
type WordList struct {
	words []string
}

// LoadWords reads one word per line from path, or falls back to the
// embedded default list when path is empty. Entries that are not
// exactly 5 letters after lowercasing are skipped.
func LoadWords(path string) (*WordList, error) {
	var lines []string

	if path == "" {
		lines = strings.Split(embeddedWords, "\n")
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	words := make([]string, 0, len(lines))
	for _, line := range lines {
		word := strings.TrimSpace(strings.ToLower(line))
		if len(word) == 5 && isAlpha(word) {
			words = append(words, word)
		}
	}

	if len(words) == 0 {
		return nil, errors.New("word list is empty")
	}

	return &WordList{words: words}, nil
}

// Random returns a uniformly random target word.
func (w *WordList) Random() string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(w.words))))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	return w.words[n.Int64()]
}

// Len reports the number of loaded words.
func (w *WordList) Len() int {
	return len(w.words)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}

	return true
}
