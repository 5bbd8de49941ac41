package eval

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Completer runs one chat completion.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, temperature float32) (string, error)
}

const judgeSystemPrompt = "You are a strict evaluator of answers about workplace safety. " +
	"Reply with exactly two lines: \"Score: <number between 0 and 1>\" and \"Critique: <one sentence>\"."

var (
	scoreLinePattern    = regexp.MustCompile(`(?i)score\s*[:=]\s*([-+]?[0-9]*\.?[0-9]+)`)
	scorePattern        = regexp.MustCompile(`[-+]?[0-9]*\.?[0-9]+`)
	critiqueLinePattern = regexp.MustCompile(`(?is)critique\s*:\s*(.+)`)
)

// LLMJudge scores each check by asking the chat model.
type LLMJudge struct {
	completer Completer
}

// NewLLMJudge creates a judge backed by completer.
func NewLLMJudge(completer Completer) *LLMJudge {
	return &LLMJudge{completer: completer}
}

// Evaluate runs every check in req. The first failing check aborts the evaluation.
func (j *LLMJudge) Evaluate(ctx context.Context, req Request) (Result, error) {
	if j == nil || j.completer == nil {
		return nil, fmt.Errorf("llm judge completer is nil")
	}

	result := make(Result, len(req.Checks))
	for _, check := range req.Checks {
		prompt, err := judgePrompt(check, req)
		if err != nil {
			return nil, err
		}
		text, err := j.completer.Complete(ctx, judgeSystemPrompt, prompt, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to judge %s: %w", check, err)
		}
		metric, err := parseJudgement(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s judgement: %w", check, err)
		}
		result[string(check)] = metric
	}
	return result, nil
}

func judgePrompt(check Check, req Request) (string, error) {
	switch check {
	case ContextRelevance:
		return fmt.Sprintf("How relevant is the reference context to the question?\n\nQuestion:\n%s\n\nReference:\n%s",
			req.Question, req.Reference), nil
	case FactualAccuracy:
		return fmt.Sprintf("How factually consistent is the response with the reference?\n\nReference:\n%s\n\nResponse:\n%s",
			req.Reference, req.Response), nil
	case ResponseRelevance:
		return fmt.Sprintf("How well does the response address the question?\n\nQuestion:\n%s\n\nResponse:\n%s",
			req.Question, req.Response), nil
	case ToneCritique:
		persona := req.Persona
		if persona == "" {
			persona = TonePersona
		}
		return fmt.Sprintf("How well does the tone of the response match %s?\n\nResponse:\n%s",
			persona, req.Response), nil
	default:
		return "", fmt.Errorf("unknown check %q", check)
	}
}

// parseJudgement extracts the score and critique from a judge reply.
// A bare number is accepted as the score.
func parseJudgement(text string) (Metric, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Metric{}, fmt.Errorf("empty judge response")
	}

	var match string
	if m := scoreLinePattern.FindStringSubmatch(trimmed); m != nil {
		match = m[1]
	} else {
		match = scorePattern.FindString(trimmed)
	}
	if match == "" {
		return Metric{}, fmt.Errorf("no numeric score in response: %q", trimmed)
	}

	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return Metric{}, fmt.Errorf("invalid score %q: %w", match, err)
	}
	if val < 0 || val > 1 {
		return Metric{}, fmt.Errorf("score out of range: %v", val)
	}

	metric := Metric{Score: &val}
	if m := critiqueLinePattern.FindStringSubmatch(trimmed); m != nil {
		metric.Critique = strings.TrimSpace(m[1])
	}
	return metric, nil
}
