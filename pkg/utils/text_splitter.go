package utils

import (
	"strings"
	"unicode"
)

// SplitText splits a long string into chunks of approximately 'chunkSize' runes.
// It includes an 'overlap' to preserve context at boundaries, and prefers to cut at
// whitespace in the last fifth of a chunk. Blank input yields no chunks.
func SplitText(text string, chunkSize int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	totalLen := len(runes)
	if chunkSize <= 0 || totalLen <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	var chunks []string
	for i := 0; i < totalLen; {
		end := i + chunkSize
		if end >= totalLen {
			end = totalLen
		} else if cut := lastSpace(runes[i:end], chunkSize/5); cut > 0 {
			end = i + cut
		}

		if chunk := strings.TrimSpace(string(runes[i:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == totalLen {
			break
		}

		next := end - overlap
		if next <= i {
			next = i + step
		}
		i = next
	}

	return chunks
}

// lastSpace returns the index just after the last whitespace within the trailing window of
// chunk, or 0 if there is none.
func lastSpace(chunk []rune, window int) int {
	for j := len(chunk) - 1; j >= len(chunk)-window && j > 0; j-- {
		if unicode.IsSpace(chunk[j]) {
			return j + 1
		}
	}
	return 0
}
