package eval

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeCompleter struct {
	replies map[string]string
	err     error
	calls   int
	temps   []float32
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	f.calls++
	f.temps = append(f.temps, temperature)
	if f.err != nil {
		return "", f.err
	}
	for key, reply := range f.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return "Score: 0.5\nCritique: Neutral.", nil
}

func TestLLMJudge_Evaluate(t *testing.T) {
	completer := &fakeCompleter{replies: map[string]string{
		"tone of the response": "Score: 1\nCritique: Matches the persona.",
		"factually consistent": "0.25",
	}}
	judge := NewLLMJudge(completer)

	result, err := judge.Evaluate(context.Background(), NewRequest("q", "ref", "resp"))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if completer.calls != 4 {
		t.Errorf("completer called %d times, want 4", completer.calls)
	}
	for _, temp := range completer.temps {
		if temp != 0 {
			t.Errorf("judge temperature = %v, want 0", temp)
		}
	}
	if len(result) != 4 {
		t.Fatalf("result has %d metrics, want 4", len(result))
	}

	tone := result[string(ToneCritique)]
	if tone.Score == nil || *tone.Score != 1 || tone.Critique != "Matches the persona." {
		t.Errorf("tone_critique = %+v", tone)
	}
	fa := result[string(FactualAccuracy)]
	if fa.Score == nil || *fa.Score != 0.25 || fa.Critique != "" {
		t.Errorf("factual_accuracy = %+v", fa)
	}
}

func TestLLMJudge_Evaluate_CompleterError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("rate limited")}
	if _, err := NewLLMJudge(completer).Evaluate(context.Background(), NewRequest("q", "r", "s")); err == nil {
		t.Error("Evaluate() expected error")
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls)
	}
}

func TestLLMJudge_Evaluate_UnknownCheck(t *testing.T) {
	req := Request{Checks: []Check{"verbosity"}}
	if _, err := NewLLMJudge(&fakeCompleter{}).Evaluate(context.Background(), req); err == nil {
		t.Error("Evaluate() with unknown check should fail")
	}
}

func TestParseJudgement(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantScore    float64
		wantCritique string
		wantErr      bool
	}{
		{name: "score and critique", input: "Score: 0.7\nCritique: Good coverage.", wantScore: 0.7, wantCritique: "Good coverage."},
		{name: "lowercase", input: "score=0.9", wantScore: 0.9},
		{name: "bare number", input: " 0.3 ", wantScore: 0.3},
		{name: "empty", input: "", wantErr: true},
		{name: "no number", input: "Critique: great", wantErr: true},
		{name: "out of range", input: "Score: 7", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseJudgement(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseJudgement(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseJudgement(%q) error = %v", tt.input, err)
			}
			if got.Score == nil || *got.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", got.Score, tt.wantScore)
			}
			if got.Critique != tt.wantCritique {
				t.Errorf("critique = %q, want %q", got.Critique, tt.wantCritique)
			}
		})
	}
}
