package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWordsEmbedded(t *testing.T) {
	words, err := LoadWords("")
	require.NoError(t, err)
	require.Greater(t, words.Len(), 0)

	for _, w := range words.words {
		assert.Len(t, w, 5)
		assert.True(t, isAlpha(w), "word %q must be lowercase letters", w)
	}

	// The spec scenarios rely on these two being in the pool.
	assert.Contains(t, words.words, "rumah")
	assert.Contains(t, words.words, "mobil")
}

func TestLoadWordsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "RUMAH\n  mobil \ntiny\ntoolong\nnum8er\n\nkursi\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	words, err := LoadWords(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"rumah", "mobil", "kursi"}, words.words)
}

func TestLoadWordsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("nope\n"), 0o644))

	_, err := LoadWords(path)
	assert.Error(t, err)
}

func TestLoadWordsMissingFile(t *testing.T) {
	_, err := LoadWords(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestRandomReturnsPoolMember(t *testing.T) {
	words := &WordList{words: []string{"rumah", "mobil", "kursi"}}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		w := words.Random()
		assert.Contains(t, words.words, w)
		seen[w] = true
	}

	// Not a distribution test, just a sanity check that more than one
	// word can come out.
	assert.Greater(t, len(seen), 1)
}
