package embedding

import (
	"context"
	"math"
	"regexp"
	"strings"
)

// Local is the deterministic fallback embedder. It derives a pseudo-embedding
// from word, bigram and sentence statistics of the text and requires no
// network access. The same (text, dimension) input always produces the same
// vector, which makes it usable offline and as a stable test backend.
type Local struct {
	dimension int
}

func NewLocal(dimension int) *Local {
	return &Local{dimension: dimension}
}

func (l *Local) Name() string            { return "local" }
func (l *Local) Eligible(_ Request) bool { return true }
func (l *Local) Dimensions() int         { return l.dimension }

// Embed never fails; it is the floor of the provider chain.
func (l *Local) Embed(_ context.Context, req Request) ([]float32, error) {
	return l.Vector(req.Text), nil
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Vector computes the deterministic local embedding for text.
// Empty or whitespace-only text yields the zero vector.
func (l *Local) Vector(text string) []float32 {
	d := l.dimension
	acc := make([]float64, d)

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return make([]float32, d)
	}

	freq := make(map[string]int, len(words))
	for _, w := range words {
		freq[w]++
	}

	totalWordLen := 0
	for i, word := range words {
		runes := []rune(word)
		totalWordLen += len(runes)
		f := float64(freq[word])
		position := float64(i) / float64(len(words))

		for j, r := range runes {
			c := int(r)
			idx1 := (c + i*7 + j*13) % d
			idx2 := (c*freq[word] + i*17) % d
			acc[idx1] += (1 + math.Log(f)) * (1 - position*0.1)
			acc[idx2] += math.Sin(float64(c)/100) * f
		}

		// Bigram features over the first 10 characters of adjacent word pairs.
		if i < len(words)-1 {
			bigram := []rune(word + words[i+1])
			for k := 0; k < len(bigram) && k < 10; k++ {
				idx := (int(bigram[k])*(k+1) + i) % d
				acc[idx] += 0.5
			}
		}
	}

	sentences := sentenceSplit.Split(text, -1)
	for idx, sentence := range sentences {
		n := len([]rune(sentence))
		weight := 1.0
		if len(sentences) > 1 {
			weight = 1 / float64(len(sentences))
		}
		acc[(n+idx*31)%d] += weight
	}

	// Global scalar features at fixed low indices.
	textLen := len([]rune(text))
	avgWordLen := float64(totalWordLen) / float64(len(words))
	acc[0] += math.Log(float64(textLen)+1) / 10
	acc[1] += avgWordLen / 10
	acc[2] += float64(len(words)) / 100
	acc[3] += float64(len(sentences)) / 10

	var magnitude float64
	for _, v := range acc {
		magnitude += v * v
	}
	magnitude = math.Sqrt(magnitude)

	out := make([]float32, d)
	if magnitude == 0 {
		return out
	}
	for i, v := range acc {
		out[i] = float32(v / magnitude)
	}
	return out
}
