package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quiz-bot/internal/answer"
	"quiz-bot/internal/domain"
)

// HintThreshold is the attempt number from which wrong answers carry a hint.
const HintThreshold = 2

const (
	msgWelcome       = "Привет! Я бот для викторины!\nНажми «Новый вопрос», чтобы начать!"
	msgQuestion      = "Вопрос:\n\n%s"
	msgFinishFirst   = "Сначала закончи текущий вопрос!"
	msgCorrect       = "Правильно! Поздравляю! Для следующего вопроса нажми «Новый вопрос»."
	msgIncorrect     = "Неправильно… Попробуешь ещё раз?"
	msgIncorrectHint = "Неправильно… Попробуешь ещё раз?\n\nПодсказка: %s..."
	msgSurrender     = "Вы сдались!\n\nПравильный ответ: %s"
	msgNotStarted    = "Вы ещё не начали викторину!"
	msgScore         = "Ваш счёт: %d из %d (%.0f%%)"
)

var greetings = map[string]struct{}{
	"привет": {},
	"старт":  {},
	"start":  {},
}

// SessionRepository abstracts where per-user session fields live (Redis, in-memory).
// Reads of absent fields return defaults. Undecodable fields are reported with
// domain.ErrMalformedSession; backend failures with domain.ErrStoreUnavailable.
type SessionRepository interface {
	GetCurrentQuestion(ctx context.Context, userKey string) (domain.Question, bool, error)
	// SetCurrentQuestion stores q and resets attempts to zero.
	SetCurrentQuestion(ctx context.Context, userKey string, q domain.Question) error
	// ClearCurrentQuestion deletes the question and its attempt counter and
	// reports whether a question was present. Of several concurrent calls at
	// most one sees true.
	ClearCurrentQuestion(ctx context.Context, userKey string) (bool, error)
	GetAttempts(ctx context.Context, userKey string) (int, error)
	SetAttempts(ctx context.Context, userKey string, attempts int) error
	IncrementAttempts(ctx context.Context, userKey string) (int, error)
	GetScore(ctx context.Context, userKey string) (int, error)
	IncrementScore(ctx context.Context, userKey string) (int, error)
	GetTotal(ctx context.Context, userKey string) (int, error)
	IncrementTotal(ctx context.Context, userKey string) (int, error)
}

type transition struct {
	state domain.State
	kind  domain.EventKind
}

type handlerFunc func(ctx context.Context, userKey string, current domain.Question, ev domain.Event) (domain.Response, error)

// QuizService is the per-user quiz state machine. It holds no session state
// itself; every call round-trips through the SessionRepository.
type QuizService struct {
	sessions SessionRepository
	bank     *QuestionBank
	logger   *slog.Logger
	table    map[transition]handlerFunc
}

func NewQuizService(store SessionRepository, bank *QuestionBank, logger *slog.Logger) *QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &QuizService{sessions: store, bank: bank, logger: logger}
	s.table = map[transition]handlerFunc{
		{domain.StateIdle, domain.EventStart}:       s.welcome,
		{domain.StateIdle, domain.EventNewQuestion}: s.askQuestion,
		{domain.StateIdle, domain.EventAnswer}:      s.idleText,
		{domain.StateIdle, domain.EventSurrender}:   s.notStarted,
		{domain.StateIdle, domain.EventViewScore}:   s.viewScore,

		{domain.StateAfterAnswer, domain.EventStart}:       s.welcome,
		{domain.StateAfterAnswer, domain.EventNewQuestion}: s.askQuestion,
		{domain.StateAfterAnswer, domain.EventAnswer}:      s.idleText,
		{domain.StateAfterAnswer, domain.EventSurrender}:   s.notStarted,
		{domain.StateAfterAnswer, domain.EventViewScore}:   s.viewScore,

		{domain.StateQuestionActive, domain.EventStart}:       s.restart,
		{domain.StateQuestionActive, domain.EventNewQuestion}: s.finishFirst,
		{domain.StateQuestionActive, domain.EventAnswer}:      s.submitAnswer,
		{domain.StateQuestionActive, domain.EventSurrender}:   s.surrender,
		{domain.StateQuestionActive, domain.EventViewScore}:   s.viewScore,
	}
	return s
}

// Handle applies ev to the session of userKey and returns what to send back.
// Only store failures are returned as errors.
func (s *QuizService) Handle(ctx context.Context, userKey string, ev domain.Event) (domain.Response, error) {
	current, state, err := s.load(ctx, userKey)
	if err != nil {
		return domain.Response{}, err
	}
	h, ok := s.table[transition{state: state, kind: ev.Kind}]
	if !ok {
		return domain.Response{}, fmt.Errorf("no transition for %s in state %s", ev.Kind, state)
	}
	resp, err := h(ctx, userKey, current, ev)
	if err != nil {
		return domain.Response{}, err
	}
	s.logger.Debug("quiz event handled",
		"user", userKey,
		"event", ev.Kind.String(),
		"from", state.String(),
		"to", resp.State.String(),
	)
	return resp, nil
}

// State reports the persisted state of userKey's session.
func (s *QuizService) State(ctx context.Context, userKey string) (domain.State, error) {
	_, state, err := s.load(ctx, userKey)
	return state, err
}

// Score returns the lifetime tally for userKey.
func (s *QuizService) Score(ctx context.Context, userKey string) (domain.Score, error) {
	correct, err := s.sessions.GetScore(ctx, userKey)
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedSession) {
			return domain.Score{}, err
		}
		s.logger.Warn("malformed score, using zero", "user", userKey, "err", err)
		correct = 0
	}
	total, err := s.sessions.GetTotal(ctx, userKey)
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedSession) {
			return domain.Score{}, err
		}
		s.logger.Warn("malformed total, using zero", "user", userKey, "err", err)
		total = 0
	}
	return domain.Score{Correct: correct, Total: total}, nil
}

func (s *QuizService) load(ctx context.Context, userKey string) (domain.Question, domain.State, error) {
	q, ok, err := s.sessions.GetCurrentQuestion(ctx, userKey)
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedSession) {
			return domain.Question{}, domain.StateIdle, err
		}
		s.logger.Warn("malformed current question, treating as idle", "user", userKey, "err", err)
		return domain.Question{}, domain.StateIdle, nil
	}
	if !ok {
		return domain.Question{}, domain.StateIdle, nil
	}
	return q, domain.StateQuestionActive, nil
}

func (s *QuizService) welcome(context.Context, string, domain.Question, domain.Event) (domain.Response, error) {
	return reply(msgWelcome, domain.StateIdle), nil
}

// restart drops the active question without scoring it and greets the user.
func (s *QuizService) restart(ctx context.Context, userKey string, _ domain.Question, _ domain.Event) (domain.Response, error) {
	if _, err := s.sessions.ClearCurrentQuestion(ctx, userKey); err != nil {
		return domain.Response{}, err
	}
	return reply(msgWelcome, domain.StateIdle), nil
}

func (s *QuizService) askQuestion(ctx context.Context, userKey string, _ domain.Question, _ domain.Event) (domain.Response, error) {
	q := s.bank.Pick()
	if err := s.sessions.SetCurrentQuestion(ctx, userKey, q); err != nil {
		return domain.Response{}, err
	}
	return reply(fmt.Sprintf(msgQuestion, q.Question), domain.StateQuestionActive), nil
}

func (s *QuizService) finishFirst(context.Context, string, domain.Question, domain.Event) (domain.Response, error) {
	return reply(msgFinishFirst, domain.StateQuestionActive), nil
}

func (s *QuizService) idleText(_ context.Context, _ string, _ domain.Question, ev domain.Event) (domain.Response, error) {
	if _, ok := greetings[strings.ToLower(strings.TrimSpace(ev.Text))]; ok {
		return reply(msgWelcome, domain.StateIdle), nil
	}
	return reply(ev.Text, domain.StateIdle), nil
}

func (s *QuizService) submitAnswer(ctx context.Context, userKey string, current domain.Question, ev domain.Event) (domain.Response, error) {
	attempts, err := s.sessions.IncrementAttempts(ctx, userKey)
	if err != nil {
		return domain.Response{}, err
	}

	if answer.Match(ev.Text, current.Answer) {
		// Only the submission that removes the question scores it.
		cleared, err := s.sessions.ClearCurrentQuestion(ctx, userKey)
		if err != nil {
			return domain.Response{}, err
		}
		if cleared {
			if _, err := s.sessions.IncrementScore(ctx, userKey); err != nil {
				return domain.Response{}, err
			}
		}
		return reply(msgCorrect, domain.StateAfterAnswer), nil
	}

	if _, err := s.sessions.IncrementTotal(ctx, userKey); err != nil {
		return domain.Response{}, err
	}
	if attempts < HintThreshold {
		return reply(msgIncorrect, domain.StateQuestionActive), nil
	}
	hint := answer.Hint(current.Answer)
	resp := reply(fmt.Sprintf(msgIncorrectHint, hint), domain.StateQuestionActive)
	resp.Hint = true
	resp.HintText = hint
	return resp, nil
}

func (s *QuizService) surrender(ctx context.Context, userKey string, current domain.Question, _ domain.Event) (domain.Response, error) {
	if _, err := s.sessions.ClearCurrentQuestion(ctx, userKey); err != nil {
		return domain.Response{}, err
	}
	return reply(fmt.Sprintf(msgSurrender, current.Answer), domain.StateAfterAnswer), nil
}

func (s *QuizService) notStarted(context.Context, string, domain.Question, domain.Event) (domain.Response, error) {
	return reply(msgNotStarted, domain.StateIdle), nil
}

func (s *QuizService) viewScore(ctx context.Context, userKey string, current domain.Question, _ domain.Event) (domain.Response, error) {
	score, err := s.Score(ctx, userKey)
	if err != nil {
		return domain.Response{}, err
	}
	text := fmt.Sprintf(msgScore, score.Correct, score.Total, score.Percent())
	if current != (domain.Question{}) {
		return reply(text, domain.StateQuestionActive), nil
	}
	resp := reply(text, domain.StateIdle)
	resp.Keyboard = domain.KeyboardAfterAnswer
	return resp, nil
}

func reply(text string, state domain.State) domain.Response {
	kb := domain.KeyboardActive
	if state == domain.StateAfterAnswer {
		kb = domain.KeyboardAfterAnswer
	}
	return domain.Response{Text: text, State: state, Keyboard: kb}
}
