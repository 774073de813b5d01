// Package textclf holds the frozen binary sentiment classifier: boosted
// trees over a bag-of-words vocabulary, both shipped inside one JSON
// artifact. The service only ever loads and evaluates it; training
// exists to produce artifacts offline.
package textclf

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"strings"

	"github.com/rmera/boo"
	"github.com/rmera/boo/utils"
)

type TrainOptions struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
}

type artifact struct {
	Vocabulary []string `json:"vocabulary"`
	ModelText  string   `json:"model_text"`
}

type Model struct {
	vocabulary []string
	vocabIndex map[string]int
	boost      *boo.MultiClass
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Rounds:       40,
		LearningRate: 0.08,
		MaxDepth:     4,
	}
}

// Train fits a binary positive/negative classifier over the given
// vocabulary. Labels are 1 for positive, 0 for negative.
func Train(texts []string, labels []float64, vocabulary []string, opts TrainOptions) (*Model, error) {
	if len(texts) == 0 || len(texts) != len(labels) {
		return nil, errors.New("invalid training dataset")
	}
	if len(vocabulary) == 0 {
		return nil, errors.New("empty vocabulary")
	}

	index := buildIndex(vocabulary)
	samples := make([][]float64, len(texts))
	intLabels := make([]int, len(texts))
	classSet := make(map[int]struct{}, 2)
	for i, text := range texts {
		samples[i] = featurize(text, index, len(vocabulary))
		label := 0
		if labels[i] >= 0.5 {
			label = 1
		}
		intLabels[i] = label
		classSet[label] = struct{}{}
	}
	if len(classSet) < 2 {
		return nil, errors.New("training set requires both classes")
	}

	if opts.Rounds <= 0 {
		opts.Rounds = DefaultTrainOptions().Rounds
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultTrainOptions().MaxDepth
	}

	o := boo.DefaultXOptions()
	o.Rounds = opts.Rounds
	o.LearningRate = opts.LearningRate
	o.MaxDepth = opts.MaxDepth
	o.Verbose = false
	o.EarlyStop = 0

	data := &utils.DataBunch{
		Data:   samples,
		Labels: intLabels,
		Keys:   append([]string(nil), vocabulary...),
	}
	model := boo.NewMultiClass(data, o)
	if model == nil {
		return nil, errors.New("failed to train sentiment classifier")
	}
	return &Model{
		vocabulary: append([]string(nil), vocabulary...),
		vocabIndex: index,
		boost:      model,
	}, nil
}

// PredictProb returns P(positive) for one already-normalized text.
func (m *Model) PredictProb(text string) float64 {
	if m == nil || m.boost == nil {
		return 0.5
	}
	sample := featurize(text, m.vocabIndex, len(m.vocabulary))
	probs := m.boost.PredictSingle(sample)
	labels := m.boost.ClassLabels()
	for i := range labels {
		if labels[i] == 1 {
			return clamp01(probs[i])
		}
	}
	if len(probs) == 0 {
		return 0.5
	}
	return clamp01(probs[len(probs)-1])
}

// ProbPositive scores a batch, one probability per text, satisfying the
// sentiment classifier contract.
func (m *Model) ProbPositive(ctx context.Context, texts []string) ([]float64, error) {
	if m == nil || m.boost == nil {
		return nil, errors.New("sentiment model not loaded")
	}
	out := make([]float64, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out[i] = m.PredictProb(text)
	}
	return out, nil
}

func (m *Model) MarshalBinary() ([]byte, error) {
	if m == nil || m.boost == nil {
		return nil, errors.New("nil model")
	}
	var buf bytes.Buffer
	if err := boo.JSONMultiClass(m.boost, "softmax", &buf); err != nil {
		return nil, err
	}
	return json.Marshal(artifact{
		Vocabulary: m.vocabulary,
		ModelText:  buf.String(),
	})
}

func UnmarshalBinary(blob []byte) (*Model, error) {
	if len(blob) == 0 {
		return nil, errors.New("empty artifact")
	}
	var a artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, err
	}
	if len(a.Vocabulary) == 0 {
		return nil, errors.New("artifact has no vocabulary")
	}
	reader := bufio.NewReader(bytes.NewReader([]byte(a.ModelText)))
	model, err := boo.UnJSONMultiClass(reader)
	if err != nil {
		return nil, err
	}
	return &Model{
		vocabulary: append([]string(nil), a.Vocabulary...),
		vocabIndex: buildIndex(a.Vocabulary),
		boost:      model,
	}, nil
}

// LoadFile reads an artifact from disk.
func LoadFile(path string) (*Model, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalBinary(blob)
}

func (m *Model) Vocabulary() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.vocabulary))
	copy(out, m.vocabulary)
	return out
}

// featurize counts vocabulary token occurrences in the text.
func featurize(text string, index map[string]int, size int) []float64 {
	vec := make([]float64, size)
	for _, token := range strings.Fields(text) {
		if i, ok := index[token]; ok {
			vec[i]++
		}
	}
	return vec
}

func buildIndex(vocabulary []string) map[string]int {
	index := make(map[string]int, len(vocabulary))
	for i, token := range vocabulary {
		index[token] = i
	}
	return index
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
