package chunker

import (
	"strconv"
	"strings"

	"ragchat/internal/domain"
)

// Defaults for the recursive splitter, in characters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// MetaStartIndex is the metadata key holding a chunk's rune offset in its page.
const MetaStartIndex = "start_index"

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// span is a half-open rune range [start, end) of a page.
type span struct{ start, end int }

func (s span) len() int { return s.end - s.start }

// RecursiveChunker splits text into overlapping windows, preferring paragraph,
// then line, then word boundaries before a hard character cut.
// Windows are exact substrings of the input, so no character is lost.
type RecursiveChunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewRecursiveChunker(chunkSize, chunkOverlap int) *RecursiveChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}
	return &RecursiveChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split chunks every document in order and assigns ids doc-0, doc-1, ...
// Empty documents contribute no chunks.
func (c *RecursiveChunker) Split(documents []domain.Document) ([]domain.Chunk, []string) {
	var chunks []domain.Chunk
	for _, d := range documents {
		runes := []rune(d.Content)
		if len(runes) == 0 {
			continue
		}
		base := CleanMetadata(d.Metadata)
		for _, w := range c.windows(runes) {
			md := make(map[string]any, len(base)+1)
			for k, v := range base {
				md[k] = v
			}
			md[MetaStartIndex] = w.start
			chunks = append(chunks, domain.Chunk{
				Text:     string(runes[w.start:w.end]),
				Metadata: md,
			})
		}
	}
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = ChunkID(i)
	}
	return chunks, ids
}

// ChunkID returns the primary key of the i-th chunk of an ingestion run.
func ChunkID(i int) string {
	return "doc-" + strconv.Itoa(i)
}

// CleanMetadata drops entries whose value is nil or an empty string.
func CleanMetadata(md map[string]any) map[string]any {
	out := make(map[string]any, len(md))
	for k, v := range md {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func (c *RecursiveChunker) windows(runes []rune) []span {
	if len(runes) == 0 {
		return nil
	}
	pieces := c.pieces(runes, span{0, len(runes)}, c.separators)
	return c.merge(pieces)
}

// pieces cuts s into consecutive spans no longer than chunkSize. Each
// separator stays attached to the end of the piece before it.
func (c *RecursiveChunker) pieces(runes []rune, s span, separators []string) []span {
	if s.len() <= c.chunkSize {
		return []span{s}
	}
	sep, rest := pickSeparator(string(runes[s.start:s.end]), separators)
	var parts []span
	if sep == "" {
		for i := s.start; i < s.end; i++ {
			parts = append(parts, span{i, i + 1})
		}
		return parts
	}
	sepRunes := []rune(sep)
	start := s.start
	for i := s.start; i <= s.end-len(sepRunes); i++ {
		if !hasRunePrefix(runes[i:s.end], sepRunes) {
			continue
		}
		end := i + len(sepRunes)
		parts = append(parts, span{start, end})
		start = end
		i = end - 1
	}
	if start < s.end {
		parts = append(parts, span{start, s.end})
	}

	var out []span
	for _, p := range parts {
		if p.len() <= c.chunkSize {
			out = append(out, p)
			continue
		}
		out = append(out, c.pieces(runes, p, rest)...)
	}
	return out
}

// merge packs pieces into windows of at most chunkSize, carrying trailing
// pieces worth at most chunkOverlap into the next window.
func (c *RecursiveChunker) merge(pieces []span) []span {
	var (
		out     []span
		current []span
		total   int
	)
	for _, p := range pieces {
		l := p.len()
		if total+l > c.chunkSize && len(current) > 0 {
			out = append(out, span{current[0].start, current[len(current)-1].end})
			for total > c.chunkOverlap || (total+l > c.chunkSize && total > 0) {
				total -= current[0].len()
				current = current[1:]
			}
		}
		current = append(current, p)
		total += l
	}
	if len(current) > 0 {
		out = append(out, span{current[0].start, current[len(current)-1].end})
	}
	return out
}

// pickSeparator returns the first separator present in text and the
// separators that remain for further recursion.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

func hasRunePrefix(s, prefix []rune) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}
