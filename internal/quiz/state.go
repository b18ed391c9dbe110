package quiz

import "slices"

// Phase is the quiz lifecycle position.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAnswering
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseAnswering:
		return "answering"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Unanswered marks a question without a selection.
const Unanswered = -1

// Result is the verdict of a submitted quiz.
type Result struct {
	Correct int
	Total   int
	Score   float64
	Passed  bool
}

// State holds the answers for one quiz attempt. Methods return a new State
// and never modify the receiver's selections.
type State struct {
	quiz       Quiz
	selections []int
	phase      Phase
	result     Result
}

// NewState returns a fresh attempt for q.
func NewState(q Quiz) State {
	sel := make([]int, len(q.Questions))
	for i := range sel {
		sel[i] = Unanswered
	}
	return State{quiz: q, selections: sel}
}

// Quiz returns the quiz being answered.
func (s State) Quiz() Quiz { return s.quiz }

// Phase returns the lifecycle position.
func (s State) Phase() Phase { return s.phase }

// Selections returns a copy of the selected option per question.
func (s State) Selections() []int { return slices.Clone(s.selections) }

// Selection returns the selected option for question i, or Unanswered.
func (s State) Selection(i int) int {
	if i < 0 || i >= len(s.selections) {
		return Unanswered
	}
	return s.selections[i]
}

// Answered returns how many questions have a selection.
func (s State) Answered() int {
	n := 0
	for _, v := range s.selections {
		if v != Unanswered {
			n++
		}
	}
	return n
}

// Complete reports whether every question has a selection.
func (s State) Complete() bool {
	return len(s.selections) > 0 && s.Answered() == len(s.selections)
}

// Result returns the verdict. Only meaningful once submitted.
func (s State) Result() Result { return s.result }

// Select records optionIndex for questionIndex. It has no effect after
// submission or when either index is out of range.
func (s State) Select(questionIndex, optionIndex int) State {
	if s.phase == PhaseSubmitted {
		return s
	}
	if questionIndex < 0 || questionIndex >= len(s.quiz.Questions) {
		return s
	}
	if optionIndex < 0 || optionIndex >= len(s.quiz.Questions[questionIndex].Options) {
		return s
	}
	sel := slices.Clone(s.selections)
	sel[questionIndex] = optionIndex
	s.selections = sel
	s.phase = PhaseAnswering
	return s
}

// Submit scores the attempt. It is refused (ok == false, state unchanged)
// until every question is answered.
func (s State) Submit() (State, Result, bool) {
	if s.phase == PhaseSubmitted {
		return s, s.result, true
	}
	if !s.Complete() {
		return s, Result{}, false
	}

	correct := 0
	for i, q := range s.quiz.Questions {
		if s.selections[i] == q.AnswerIndex {
			correct++
		}
	}
	total := len(s.quiz.Questions)
	score := float64(correct) / float64(total)

	s.result = Result{
		Correct: correct,
		Total:   total,
		Score:   score,
		Passed:  score >= s.quiz.PassMark,
	}
	s.phase = PhaseSubmitted
	return s, s.result, true
}

// Reset discards all answers, as when the hosting lesson is reloaded.
func (s State) Reset() State {
	return NewState(s.quiz)
}
