package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/realflash/internal/domain"
)

// Normalize concatenates a question and answer after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them.
func Normalize(question, answer string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return p
	}

	// Joined with a newline so "ab"+"c" and "a"+"bc" hash differently.
	return normalizePart(question) + "\n" + normalizePart(answer)
}

// Hash normalizes a question and answer and returns their SHA-256 hash as a hex string.
func Hash(question, answer string) string {
	hashBytes := sha256.Sum256([]byte(Normalize(question, answer)))
	return fmt.Sprintf("%x", hashBytes)
}

// CardHash is Hash over a flashcard's content. Scheduling state is ignored.
func CardHash(card domain.Flashcard) string {
	return Hash(card.Question, card.Answer)
}
