package repository

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"airline-assistant-service/internal/domain/entity"
	"airline-assistant-service/internal/domain/repository"

	"github.com/samber/lo"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "of": true, "to": true, "in": true,
	"on": true, "for": true, "and": true, "or": true, "my": true, "i": true, "can": true, "what": true,
	"how": true, "do": true, "does": true, "be": true, "with": true, "it": true, "if": true, "me": true,
	"you": true, "your": true, "at": true, "by": true, "this": true, "that": true, "will": true,
}

type policyChunk struct {
	text   string
	source string
	terms  map[string]int
}

// PolicyIndex is a lexical TF-IDF index over local policy documents. It serves as the
// retriever when no vector search service is configured.
type PolicyIndex struct {
	chunks []policyChunk
	df     map[string]int
}

// NewPolicyIndexFromDir indexes every .md and .txt file under dir, one chunk per paragraph
func NewPolicyIndexFromDir(dir string) (repository.Retriever, error) {
	return NewPolicyIndexFromFS(os.DirFS(dir))
}

// NewPolicyIndexFromFS indexes every .md and .txt file in fsys
func NewPolicyIndexFromFS(fsys fs.FS) (*PolicyIndex, error) {
	idx := &PolicyIndex{df: make(map[string]int)}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || (ext != ".md" && ext != ".txt") {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		idx.add(path, string(data))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// NewPolicyIndex indexes in-memory documents keyed by source name
func NewPolicyIndex(docs map[string]string) *PolicyIndex {
	idx := &PolicyIndex{df: make(map[string]int)}
	sources := lo.Keys(docs)
	sort.Strings(sources)
	for _, source := range sources {
		idx.add(source, docs[source])
	}
	return idx
}

func (idx *PolicyIndex) add(source, text string) {
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		terms := make(map[string]int)
		for _, t := range tokenize(para) {
			terms[t]++
		}
		for t := range terms {
			idx.df[t]++
		}
		idx.chunks = append(idx.chunks, policyChunk{text: para, source: source, terms: terms})
	}
}

func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return lo.Filter(words, func(w string, _ int) bool {
		return len(w) > 1 && !stopwords[w]
	})
}

// Len returns the number of indexed chunks
func (idx *PolicyIndex) Len() int {
	return len(idx.chunks)
}

// Retrieve scores every chunk by TF-IDF overlap with the question
func (idx *PolicyIndex) Retrieve(ctx context.Context, question string, k int) ([]entity.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := lo.Uniq(tokenize(question))
	n := float64(len(idx.chunks))

	passages := make([]entity.Passage, 0, len(idx.chunks))
	for _, c := range idx.chunks {
		var score float64
		for _, t := range query {
			tf := c.terms[t]
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + n/float64(idx.df[t]))
			score += float64(tf) * idf
		}
		if score > 0 {
			passages = append(passages, entity.Passage{Text: c.text, Source: c.source, Score: score})
		}
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages, nil
}
