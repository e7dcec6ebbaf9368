// Package quiz sequences one test-taker through a timed quiz.
//
// A Session is a value: every transition returns a new Session and leaves
// the receiver unchanged, so a caller can keep the previous state when a
// transition is rejected. Driver wraps a Session with the wall-clock
// behavior (countdown ticker and explanation pause).
package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pavelanni/englishquiz/internal/model"
	"github.com/pavelanni/englishquiz/internal/scoring"
)

// DefaultBudget is the time allowed for one attempt, in seconds.
const DefaultBudget = 300

// State is the lifecycle stage of a session.
type State string

const (
	StateNotStarted State = "not-started"
	StateInProgress State = "in-progress"
	StateFinished   State = "finished"
)

var (
	// ErrNameRequired is returned by Start when the name is blank.
	ErrNameRequired = fmt.Errorf("%w: please enter your name", model.ErrValidation)
	// ErrNoQuestions is returned by Start when no questions are loaded.
	ErrNoQuestions = fmt.Errorf("%w: questions are not ready yet", model.ErrValidation)
	// ErrNoSelection is returned by Next when the current question is unanswered.
	ErrNoSelection = fmt.Errorf("%w: please select an answer", model.ErrValidation)
	// ErrUnknownOption is returned by Select for an option the question does not offer.
	ErrUnknownOption = fmt.Errorf("%w: not an option of this question", model.ErrValidation)

	ErrAtFirstQuestion = errors.New("already at the first question")
	ErrExplaining      = errors.New("explanation is being shown")
	ErrNotInProgress   = errors.New("quiz is not in progress")
	ErrNotFinished     = errors.New("quiz is not finished")
	ErrAlreadyStarted  = errors.New("quiz has already started")
)

// Session is the full per-attempt state.
type Session struct {
	State     State
	Name      string
	Questions []model.Question
	Index     int
	Answers   []model.Answer
	Budget    int
	Remaining int
	// Explaining is set while the current question's explanation is on
	// screen after the test-taker advanced; only Proceed or the countdown
	// move the session on from here.
	Explaining bool
	score      int
}

// New returns a not-started session over questions with the given time
// budget in seconds. A non-positive budget selects DefaultBudget.
func New(questions []model.Question, budget int) Session {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return Session{
		State:     StateNotStarted,
		Questions: questions,
		Answers:   make([]model.Answer, len(questions)),
		Budget:    budget,
		Remaining: budget,
	}
}

// Start begins the attempt for name.
func (s Session) Start(name string) (Session, error) {
	if s.State != StateNotStarted {
		return s, ErrAlreadyStarted
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return s, ErrNameRequired
	}
	if len(s.Questions) == 0 {
		return s, ErrNoQuestions
	}
	next := s.clone()
	next.State = StateInProgress
	next.Name = name
	next.Index = 0
	return next, nil
}

// Current returns the question at the current index. ok is false when the
// session has no questions.
func (s Session) Current() (model.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return model.Question{}, false
	}
	return s.Questions[s.Index], true
}

// Selected returns the answer recorded at the current index, or nil.
func (s Session) Selected() model.Answer {
	if s.Index < 0 || s.Index >= len(s.Answers) {
		return nil
	}
	return s.Answers[s.Index]
}

// Select records option as the answer to the current question.
func (s Session) Select(option string) (Session, error) {
	if err := s.navigable(); err != nil {
		return s, err
	}
	q, _ := s.Current()
	if !q.HasOption(option) {
		return s, ErrUnknownOption
	}
	next := s.clone()
	next.Answers[next.Index] = model.AnswerOf(option)
	return next, nil
}

// NeedsPause reports whether advancing from the current question shows its
// explanation first.
func (s Session) NeedsPause() bool {
	q, ok := s.Current()
	return ok && q.Explanation != ""
}

// Next advances past the current question. When the question carries an
// explanation the session enters the explanation pause instead and the
// caller must call Proceed once the pause is over.
func (s Session) Next() (Session, error) {
	if err := s.navigable(); err != nil {
		return s, err
	}
	if s.Selected() == nil {
		return s, ErrNoSelection
	}
	if s.NeedsPause() {
		next := s.clone()
		next.Explaining = true
		return next, nil
	}
	return s.advance(), nil
}

// Proceed ends the explanation pause and advances.
func (s Session) Proceed() (Session, error) {
	if s.State != StateInProgress {
		return s, ErrNotInProgress
	}
	if !s.Explaining {
		return s, nil
	}
	return s.advance(), nil
}

// Previous moves back one question. Recorded answers are kept.
func (s Session) Previous() (Session, error) {
	if err := s.navigable(); err != nil {
		return s, err
	}
	if s.Index == 0 {
		return s, ErrAtFirstQuestion
	}
	next := s.clone()
	next.Index--
	return next, nil
}

// Tick consumes one second of the countdown and finishes the session when
// it reaches zero. Ticks outside in-progress are ignored.
func (s Session) Tick() Session {
	if s.State != StateInProgress {
		return s
	}
	next := s.clone()
	if next.Remaining > 0 {
		next.Remaining--
	}
	if next.Remaining == 0 {
		return next.Finish()
	}
	return next
}

// Finish ends the attempt with whatever answers are recorded and computes
// the score shown to the test-taker.
func (s Session) Finish() Session {
	if s.State != StateInProgress {
		return s
	}
	next := s.clone()
	next.State = StateFinished
	next.Explaining = false
	next.score = tally(next.Questions, next.Answers)
	return next
}

// Restart discards the attempt and returns to not-started with the same
// questions.
func (s Session) Restart() Session {
	return New(s.Questions, s.Budget)
}

// Score is the number of correct answers once finished.
func (s Session) Score() int {
	return s.score
}

// Percentage is the finished score as a rounded percentage, 0 with no questions.
func (s Session) Percentage() int {
	return scoring.Percentage(s.score, len(s.Questions))
}

// Grade is the label for Percentage.
func (s Session) Grade() string {
	return scoring.Grade(s.Percentage())
}

// Elapsed is the number of seconds used so far.
func (s Session) Elapsed() int {
	if e := s.Budget - s.Remaining; e > 0 {
		return e
	}
	return 0
}

// SubmissionRequest builds the record posted to the server for a finished
// session.
func (s Session) SubmissionRequest() (model.SubmissionRequest, error) {
	if s.State != StateFinished {
		return model.SubmissionRequest{}, ErrNotFinished
	}
	return model.SubmissionRequest{
		StudentName: s.Name,
		Answers:     append([]model.Answer(nil), s.Answers...),
		TimeSpent:   s.Elapsed(),
	}, nil
}

func (s Session) navigable() error {
	if s.State != StateInProgress {
		return ErrNotInProgress
	}
	if s.Explaining {
		return ErrExplaining
	}
	return nil
}

func (s Session) advance() Session {
	next := s.clone()
	next.Explaining = false
	if next.Index+1 >= len(next.Questions) {
		return next.Finish()
	}
	next.Index++
	return next
}

func (s Session) clone() Session {
	s.Answers = append([]model.Answer(nil), s.Answers...)
	return s
}

// tally counts correct answers the way the quiz screen does, from the
// questions the client loaded. The server recomputes the authoritative
// score with scoring.Evaluate.
func tally(questions []model.Question, answers []model.Answer) int {
	n := 0
	for i, a := range answers {
		if i < len(questions) && a != nil && *a == questions[i].Answer {
			n++
		}
	}
	return n
}
