// Package retrieval builds and queries the per-candidate resume index used to
// ground explanations.
package retrieval

import "strings"

// DefaultChunkWords is the chunk size used when none is configured.
const DefaultChunkWords = 500

// ChunkText splits text into consecutive chunks of at most size words.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkWords
	}
	words := strings.Fields(text)
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
