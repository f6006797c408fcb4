// Package evaluator compares raw answer submissions against a
// question's answer key. Evaluation is deterministic, pure and total:
// malformed or untrusted input never produces an error, it is simply
// incorrect.
package evaluator

import (
	"bytes"
	"encoding/json"
	"strings"

	"quiz-engine/internal/domain"
)

type strategy func(q *domain.Question, raw json.RawMessage) bool

// strategies routes by question type. Types without an entry evaluate
// to incorrect.
var strategies = map[domain.QuestionType]strategy{
	domain.QuestionSingleChoice: evalSingleChoice,
	domain.QuestionMultiSelect:  evalMultiSelect,
	domain.QuestionTrueFalse:    evalTrueFalse,
	domain.QuestionFillBlank:    evalFillBlank,
	domain.QuestionMultiBlank:   evalMultiBlank,
	domain.QuestionMatching:     evalMatching,
	domain.QuestionDragDrop:     evalDragDrop,
}

// Evaluate reports whether the submitted value answers the question
// correctly. It never returns an error: unknown types, empty payloads
// and JSON that does not decode into the expected shape all resolve to
// false.
func Evaluate(q *domain.Question, submitted json.RawMessage) bool {
	if q == nil || len(bytes.TrimSpace(submitted)) == 0 {
		return false
	}
	s, ok := strategies[q.Type]
	if !ok {
		return false
	}
	return s(q, submitted)
}

func evalSingleChoice(q *domain.Question, raw json.RawMessage) bool {
	choice, ok := decodeString(raw)
	if !ok {
		return false
	}
	correct := q.CorrectChoiceIDs()
	return len(correct) == 1 && choice == correct[0]
}

func evalMultiSelect(q *domain.Question, raw json.RawMessage) bool {
	choices, ok := decodeStringSlice(raw)
	if !ok {
		return false
	}
	correct := toSet(q.CorrectChoiceIDs())
	if len(correct) == 0 {
		return false
	}
	// All-or-nothing: the submitted set must equal the key set exactly.
	return setEqual(toSet(choices), correct)
}

func evalTrueFalse(q *domain.Question, raw json.RawMessage) bool {
	if len(q.Blanks) == 0 {
		return false
	}
	value, ok := decodeString(raw)
	if !ok {
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return false
		}
		if b {
			value = "true"
		} else {
			value = "false"
		}
	}
	return strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(q.Blanks[0]))
}

func evalFillBlank(q *domain.Question, raw json.RawMessage) bool {
	if len(q.Blanks) == 0 {
		return false
	}
	value, ok := decodeString(raw)
	if !ok {
		return false
	}
	return blankMatches(value, q.Blanks[0], q.CaseSensitive)
}

func evalMultiBlank(q *domain.Question, raw json.RawMessage) bool {
	values, ok := decodeStringSlice(raw)
	if !ok || len(q.Blanks) == 0 || len(values) != len(q.Blanks) {
		return false
	}
	for i, v := range values {
		if !blankMatches(v, q.Blanks[i], q.CaseSensitive) {
			return false
		}
	}
	return true
}

func evalMatching(q *domain.Question, raw json.RawMessage) bool {
	submitted, ok := decodePairs(raw)
	if !ok || len(q.Pairs) == 0 {
		return false
	}
	key := make(map[pairKey]struct{}, len(q.Pairs))
	for _, p := range q.Pairs {
		key[pairKey{strings.TrimSpace(p.Left), strings.TrimSpace(p.Right)}] = struct{}{}
	}
	got := make(map[pairKey]struct{}, len(submitted))
	for _, p := range submitted {
		got[pairKey{strings.TrimSpace(p.Left), strings.TrimSpace(p.Right)}] = struct{}{}
	}
	if len(got) != len(key) {
		return false
	}
	for k := range got {
		if _, ok := key[k]; !ok {
			return false
		}
	}
	return true
}

func evalDragDrop(q *domain.Question, raw json.RawMessage) bool {
	mapping, ok := decodeMapping(raw)
	if !ok || len(q.Pairs) == 0 {
		return false
	}
	// Every canonical key must map to its exact partner, no extras.
	if len(mapping) != len(q.Pairs) {
		return false
	}
	for _, p := range q.Pairs {
		partner, ok := mapping[p.Left]
		if !ok || partner != p.Right {
			return false
		}
	}
	return true
}

func blankMatches(submitted, key string, caseSensitive bool) bool {
	submitted = strings.TrimSpace(submitted)
	key = strings.TrimSpace(key)
	if caseSensitive {
		return submitted == key
	}
	return strings.EqualFold(submitted, key)
}

type pairKey struct {
	Left  string
	Right string
}

type submittedPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeStringSlice(raw json.RawMessage) ([]string, bool) {
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, false
	}
	return ss, true
}

func decodePairs(raw json.RawMessage) ([]submittedPair, bool) {
	var pairs []submittedPair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, false
	}
	return pairs, true
}

func decodeMapping(raw json.RawMessage) (map[string]string, bool) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
