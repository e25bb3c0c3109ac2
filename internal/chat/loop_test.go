package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ragchat/internal/domain"
)

type mockPrompts struct{ mock.Mock }

func (m *mockPrompts) BuildPrompt(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

type mockModel struct{ mock.Mock }

func (m *mockModel) Name() string { return "mock" }

func (m *mockModel) Invoke(ctx context.Context, prompt string) (domain.Response, error) {
	args := m.Called(ctx, prompt)
	return args.Get(0).(domain.Response), args.Error(1)
}

func runLoop(t *testing.T, input string, prompts *mockPrompts, model *mockModel) (string, error) {
	t.Helper()
	t.Setenv("CLICOLOR_FORCE", "")
	var out bytes.Buffer
	l := New(prompts,
		func(context.Context) (domain.ChatModel, error) { return model, nil },
		Options{In: strings.NewReader(input), Out: &out, Logger: zaptest.NewLogger(t)})
	err := l.Run(context.Background())
	return out.String(), err
}

func readyPrompts() *mockPrompts {
	p := &mockPrompts{}
	p.On("BuildPrompt", mock.Anything, "test").Return("prompt", nil).Once()
	return p
}

func TestRun_ExitWord(t *testing.T) {
	for _, word := range []string{"sair", "  SAIR ", "exit", "Quit"} {
		t.Run(word, func(t *testing.T) {
			model := &mockModel{}
			out, err := runLoop(t, word+"\nnever read\n", readyPrompts(), model)
			require.NoError(t, err)
			assert.Equal(t, "🤖 Chat started! Type 'sair' to exit.\n\nQuestion: Goodbye!\n", out)
			model.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
		})
	}
}

func TestRun_EmptyInputReprompts(t *testing.T) {
	out, err := runLoop(t, "\n   \nsair\n", readyPrompts(), &mockModel{})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Please enter a valid question.\n\n"))
	assert.Equal(t, 3, strings.Count(out, "Question: "))
	assert.True(t, strings.HasSuffix(out, "Goodbye!\n"))
}

func TestRun_AnswersQuestion(t *testing.T) {
	prompts := readyPrompts()
	prompts.On("BuildPrompt", mock.Anything, "Qual o prazo?").Return("PROMPT", nil)
	model := &mockModel{}
	model.On("Invoke", mock.Anything, "PROMPT").Return(domain.Response{Content: "30 dias"}, nil)

	out, err := runLoop(t, "  Qual o prazo?  \nsair\n", prompts, model)
	require.NoError(t, err)
	assert.Contains(t, out, "ANSWER: 30 dias\n\n")
	prompts.AssertExpectations(t)
	model.AssertExpectations(t)
}

func TestRun_EmptyRetrievalStillInvokesModel(t *testing.T) {
	refusalPrompt := "\nCONTEXTO:\n\n\nREGRAS:\n..."
	prompts := readyPrompts()
	prompts.On("BuildPrompt", mock.Anything, "What is the capital?").Return(refusalPrompt, nil)
	model := &mockModel{}
	model.On("Invoke", mock.Anything, refusalPrompt).
		Return(domain.Response{Content: "Não tenho informações necessárias para responder sua pergunta."}, nil)

	out, err := runLoop(t, "What is the capital?\nsair\n", prompts, model)
	require.NoError(t, err)
	assert.Contains(t, out, "ANSWER: Não tenho informações necessárias para responder sua pergunta.")
	model.AssertNumberOfCalls(t, "Invoke", 1)
}

func TestRun_TurnErrorContinues(t *testing.T) {
	prompts := readyPrompts()
	prompts.On("BuildPrompt", mock.Anything, "first").Return("", domain.NewProviderError("openai", "embed", errors.New("rate limited")))
	prompts.On("BuildPrompt", mock.Anything, "second").Return("P2", nil)
	model := &mockModel{}
	model.On("Invoke", mock.Anything, "P2").Return(domain.Response{Content: "ok"}, nil)

	out, err := runLoop(t, "first\nsecond\nsair\n", prompts, model)
	require.NoError(t, err)
	assert.Contains(t, out, "Error processing question: openai embed: rate limited\n\n")
	assert.Contains(t, out, "ANSWER: ok\n")
}

func TestRun_UnknownErrorAndPanicContinue(t *testing.T) {
	prompts := readyPrompts()
	prompts.On("BuildPrompt", mock.Anything, "boom").Return("P", nil)
	prompts.On("BuildPrompt", mock.Anything, "odd").Return("", errors.New("odd failure"))
	model := &mockModel{}
	model.On("Invoke", mock.Anything, "P").Run(func(mock.Arguments) { panic("nil map") }).Return(domain.Response{}, nil)

	out, err := runLoop(t, "boom\nodd\nsair\n", prompts, model)
	require.NoError(t, err)
	assert.Contains(t, out, "Error processing question: unexpected error: panic: nil map\n")
	assert.Contains(t, out, "Error processing question: unexpected error: odd failure\n")
	assert.True(t, strings.HasSuffix(out, "Goodbye!\n"))
}

func TestRun_EOFTerminates(t *testing.T) {
	out, err := runLoop(t, "", readyPrompts(), &mockModel{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "Question: \nGoodbye!\n"))
}

func TestRun_SelfCheckFailure(t *testing.T) {
	prompts := &mockPrompts{}
	cfgErr := &domain.ConfigurationError{Keys: []string{"DATABASE_URL"}}
	prompts.On("BuildPrompt", mock.Anything, "test").Return("", cfgErr)

	out, err := runLoop(t, "question\n", prompts, &mockModel{})
	require.ErrorIs(t, err, cfgErr)
	var startErr *StartupError
	require.ErrorAs(t, err, &startErr)
	assert.True(t, startErr.Reported())
	assert.Equal(t, "Could not start chat. Initialization error: environment variable DATABASE_URL is not set\n"+
		"Check if environment variables are configured correctly.\n", out)
	prompts.AssertNumberOfCalls(t, "BuildPrompt", 1)
}

func TestRun_SelfCheckEmptyPrompt(t *testing.T) {
	prompts := &mockPrompts{}
	prompts.On("BuildPrompt", mock.Anything, "test").Return("", nil)

	out, err := runLoop(t, "", prompts, &mockModel{})
	require.Error(t, err)
	assert.Contains(t, out, "Initialization error: error in search function")
}

func TestRun_ModelFactoryFailure(t *testing.T) {
	var out bytes.Buffer
	cfgErr := &domain.ConfigurationError{Keys: []string{"OPENAI_API_KEY", "GOOGLE_API_KEY"}, AnyOf: true}
	prompts := &mockPrompts{}
	l := New(prompts,
		func(context.Context) (domain.ChatModel, error) { return nil, cfgErr },
		Options{In: strings.NewReader("q\n"), Out: &out})

	err := l.Run(context.Background())
	require.ErrorIs(t, err, cfgErr)
	assert.Contains(t, out.String(), "Error starting chat: no provider configured")
	assert.Contains(t, out.String(), "Check if environment variables are configured correctly.")
	prompts.AssertNotCalled(t, "BuildPrompt", mock.Anything, mock.Anything)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	l := New(readyPrompts(),
		func(context.Context) (domain.ChatModel, error) { return &mockModel{}, nil },
		Options{In: strings.NewReader("q\n"), Out: &out})
	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
}
