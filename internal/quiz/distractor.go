package quiz

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/quizforge/quiz-service/internal/models"
)

// OptionCount is the target number of choices for a multiple-choice
// question. Generated option sets always contain the correct answer and
// never exceed this length.
const OptionCount = 4

// Similarity scoring weights. Only relative order matters; candidates with
// a zero score are considered unrelated.
const (
	containmentWeight = 0.5
	tokenWeight       = 0.4
	prefixBonus       = 0.2
	minPrefixLen      = 3
)

// fillerSuffixes are appended to the correct answer to synthesize
// distractors when the bank is too small to supply real wrong answers.
var fillerSuffixes = []string{"(I)", "(II)", "(III)"}

// SimilarityScore rates how plausible candidate is as a distractor for
// target. It rewards substring containment in either direction (weighted by
// the length ratio of the shorter to the longer string), shared tokens as a
// fraction of the target's token count, and a shared prefix of at least
// three characters. Identical or empty folded forms score zero.
func SimilarityScore(target, candidate string) float64 {
	a := foldAnswer(target)
	b := foldAnswer(candidate)
	if a == "" || b == "" || a == b {
		return 0
	}

	score := 0.0

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		score += containmentWeight * float64(len(shorter)) / float64(len(longer))
	}

	targetTokens := strings.Fields(a)
	if len(targetTokens) > 0 {
		candidateTokens := make(map[string]bool)
		for _, tok := range strings.Fields(b) {
			candidateTokens[tok] = true
		}
		shared := 0
		for _, tok := range targetTokens {
			if candidateTokens[tok] {
				shared++
			}
		}
		score += tokenWeight * float64(shared) / float64(len(targetTokens))
	}

	if commonPrefixLen(a, b) >= minPrefixLen {
		score += prefixBonus
	}

	return score
}

func commonPrefixLen(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n := 0
	for n < len(ar) && n < len(br) && ar[n] == br[n] {
		n++
	}
	return n
}

// GenerateOptions builds the choice set for a multiple-choice question.
// Boolean answers short-circuit to a shuffled ["True","False"] pair.
// Preferred options from the record are used first; remaining slots are
// filled with bank answers ranked by similarity, then by random unrelated
// answers, then by synthesized fillers. The correct answer appears exactly
// once by folded-form membership and duplicates are dropped.
func GenerateOptions(q models.QuestionRecord, bankAnswers []string, rng *rand.Rand) []string {
	correct := strings.TrimSpace(q.CorrectAnswer)

	if isBooleanAnswer(correct) {
		options := []string{"True", "False"}
		rng.Shuffle(len(options), func(i, j int) {
			options[i], options[j] = options[j], options[i]
		})
		return options
	}

	options := []string{correct}
	seen := map[string]bool{foldAnswer(correct): true}

	if len(q.Options) > 0 {
		for _, opt := range q.Options {
			if len(options) >= OptionCount {
				break
			}
			key := foldAnswer(opt)
			if seen[key] {
				continue
			}
			seen[key] = true
			options = append(options, opt)
		}
		if len(options) < OptionCount {
			options = append(options, rankedDistractors(correct, bankAnswers, seen, OptionCount-len(options), false, rng)...)
		}
	} else {
		options = append(options, rankedDistractors(correct, bankAnswers, seen, OptionCount-1, true, rng)...)
	}

	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// rankedDistractors selects up to want wrong answers from the bank pool.
// Scored candidates come first in descending similarity; zero-score
// candidates fill remaining slots in shuffled order. When synthesize is set
// and the pool cannot cover the request, filler variants of the correct
// answer make up the difference.
func rankedDistractors(correct string, bankAnswers []string, seen map[string]bool, want int, synthesize bool, rng *rand.Rand) []string {
	if want <= 0 {
		return nil
	}

	type candidate struct {
		text  string
		score float64
	}

	var scored []candidate
	var unrelated []string
	for _, answer := range bankAnswers {
		key := foldAnswer(answer)
		if seen[key] {
			continue
		}
		seen[key] = true
		if s := SimilarityScore(correct, answer); s > 0 {
			scored = append(scored, candidate{text: answer, score: s})
		} else {
			unrelated = append(unrelated, answer)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	picked := make([]string, 0, want)
	for _, c := range scored {
		if len(picked) >= want {
			break
		}
		picked = append(picked, c.text)
	}

	if len(picked) < want {
		rng.Shuffle(len(unrelated), func(i, j int) {
			unrelated[i], unrelated[j] = unrelated[j], unrelated[i]
		})
		for _, answer := range unrelated {
			if len(picked) >= want {
				break
			}
			picked = append(picked, answer)
		}
	}

	if synthesize {
		for _, suffix := range fillerSuffixes {
			if len(picked) >= want {
				break
			}
			filler := correct + " " + suffix
			key := foldAnswer(filler)
			if key == foldAnswer(correct) || seen[key] {
				continue
			}
			seen[key] = true
			picked = append(picked, filler)
		}
	}

	return picked
}

// PickDisplayedStatement chooses the single claim text shown for a
// true/false question. With preferred options present, one is sampled
// uniformly; otherwise a fair coin decides between the correct answer and a
// uniformly sampled wrong answer from the bank. The choice is made once per
// question when the session is organized.
func PickDisplayedStatement(q models.QuestionRecord, bankAnswers []string, rng *rand.Rand) string {
	if len(q.Options) > 0 {
		return q.Options[rng.Intn(len(q.Options))]
	}

	if rng.Intn(2) == 0 {
		return q.CorrectAnswer
	}

	var wrong []string
	for _, answer := range bankAnswers {
		if !equalsFolded(answer, q.CorrectAnswer) {
			wrong = append(wrong, answer)
		}
	}
	if len(wrong) == 0 {
		return q.CorrectAnswer
	}
	return wrong[rng.Intn(len(wrong))]
}

// TableOptionPool assembles the selectable pool for a table question in
// "with options" mode: all distinct correct cell values plus the record's
// decoys, deduplicated by trimmed text and shuffled. Entries stay in the
// pool after assignment and may be reused across cells.
func TableOptionPool(q models.QuestionRecord, rng *rand.Rand) []string {
	seen := make(map[string]bool)
	var pool []string

	add := func(value string) {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" || seen[trimmed] {
			return
		}
		seen[trimmed] = true
		pool = append(pool, trimmed)
	}

	keys := make([]models.CellKey, 0, len(q.Answers))
	for key := range q.Answers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Col < keys[j].Col
	})
	for _, key := range keys {
		add(q.Answers[key])
	}
	for _, decoy := range q.WrongOptions {
		add(decoy)
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool
}
