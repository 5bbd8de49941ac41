package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_collaborators.go -package=mocks safety-insight/internal/service Retriever,CompletionClient,Evaluator,EvalLog
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService safety-insight/internal/service ChatService

import (
	"context"
	"strings"
	"time"

	"safety-insight/internal/contextutil"
	"safety-insight/internal/eval"
	"safety-insight/internal/llm"
	"safety-insight/internal/metrics"
	"safety-insight/internal/rag"
	"safety-insight/internal/storage"
)

// Retriever finds documents relevant to a question. It never fails; an
// unavailable index yields no documents.
type Retriever interface {
	Retrieve(ctx context.Context, question string) []rag.DocumentReference
}

// CompletionClient generates a reply from a system persona and a user prompt.
type CompletionClient interface {
	Complete(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

// Evaluator scores a reply.
type Evaluator interface {
	Evaluate(ctx context.Context, req eval.Request) (eval.Result, error)
}

// EvalLog records evaluated exchanges.
type EvalLog interface {
	Append(ctx context.Context, entry storage.EvalLogEntry) error
}

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	Message string
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Reply string
	// Evaluation is only meaningful when Evaluated is true. It is empty when
	// the evaluator failed.
	Evaluation eval.Result
	Evaluated  bool
}

// ChatService provides chat functionality.
type ChatService interface {
	// ProcessChat answers a question with cited references.
	ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// EvalOptions configures reply evaluation. Evaluation runs only when both an
// Evaluator and a non-empty GroundTruth are set.
type EvalOptions struct {
	Evaluator   Evaluator
	GroundTruth eval.GroundTruth
	// ReferenceField selects which ground-truth field the evaluator compares against.
	ReferenceField string
	// Log is optional.
	Log EvalLog
}

// Enabled reports whether evaluation will run.
func (o EvalOptions) Enabled() bool {
	return o.Evaluator != nil && len(o.GroundTruth) > 0
}

// Options holds the fixed per-process settings of the chat pipeline.
type Options struct {
	Persona     string
	Temperature float32
	Prompt      rag.PromptBuilder
	Eval        EvalOptions
	Metrics     *metrics.Metrics
}

// chatService implements ChatService.
type chatService struct {
	retriever  Retriever
	completion CompletionClient
	opts       Options
}

// NewChatService creates a new ChatService.
func NewChatService(retriever Retriever, completion CompletionClient, opts Options) ChatService {
	return &chatService{
		retriever:  retriever,
		completion: completion,
		opts:       opts,
	}
}

// ProcessChat retrieves references, asks the model, appends citations and
// optionally evaluates the reply. Only a completion failure is returned as an
// error; retrieval and evaluation failures degrade the response instead.
func (s *chatService) ProcessChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)
	m := s.opts.Metrics

	question := strings.TrimSpace(req.Message)
	if question == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		m.RecordChat("invalid")
		return ChatResponse{}, &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}

	start := time.Now()
	refs := s.retriever.Retrieve(ctx, question)
	m.ObserveStage(metrics.StageRetrieve, time.Since(start))
	m.ObserveDocuments(len(refs))

	prompt := s.opts.Prompt.Build(question, refs)

	start = time.Now()
	reply, err := s.completion.Complete(ctx, s.opts.Persona, prompt, s.opts.Temperature)
	m.ObserveStage(metrics.StageComplete, time.Since(start))
	if err != nil {
		logger.ErrorContext(ctx, "failed to get completion", "error", err)
		m.RecordChat("error")
		return ChatResponse{}, wrapExternal(err, "failed to get completion")
	}
	if strings.TrimSpace(reply) == "" {
		reply = llm.NoResponsePlaceholder
	}

	reply = rag.FormatCitations(reply, refs)
	links := len(rag.ExtractLinks(reply))
	m.ObserveCitations(links)

	resp := ChatResponse{Reply: reply}
	if s.opts.Eval.Enabled() {
		resp.Evaluation = s.evaluate(ctx, question, reply)
		resp.Evaluated = true
	}

	m.RecordChat("ok")
	logger.InfoContext(ctx, "chat request processed successfully",
		"question_length", len(question),
		"documents", len(refs),
		"links", links,
		"reply_length", len(reply),
		"evaluated", resp.Evaluated,
	)
	return resp, nil
}

// evaluate scores reply against the matching ground truth. Failures are
// logged and produce an empty result.
func (s *chatService) evaluate(ctx context.Context, question, reply string) eval.Result {
	logger := contextutil.LoggerFromContext(ctx)
	m := s.opts.Metrics
	opts := s.opts.Eval

	groundTruth, matched := opts.GroundTruth.Match(question)
	logger.DebugContext(ctx, "ground truth lookup", "matched", matched)

	start := time.Now()
	result, err := opts.Evaluator.Evaluate(ctx, eval.NewRequest(question, groundTruth.Reference(opts.ReferenceField), reply))
	m.ObserveStage(metrics.StageEvaluate, time.Since(start))
	if err != nil {
		logger.WarnContext(ctx, "evaluation failed", "error", err)
		m.RecordEvaluation("error")
		return eval.Result{}
	}
	if result == nil {
		result = eval.Result{}
	}
	m.RecordEvaluation("ok")

	if opts.Log != nil {
		entry := storage.NewEvalLogEntry(question, groundTruth, reply, result)
		if err := opts.Log.Append(ctx, entry); err != nil {
			logger.ErrorContext(ctx, "failed to append evaluation log", "error", err)
		}
	}
	return result
}
