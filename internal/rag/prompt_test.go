package rag

import "testing"

func TestPromptBuilder_Build(t *testing.T) {
	tests := []struct {
		name     string
		builder  PromptBuilder
		question string
		refs     []DocumentReference
		want     string
	}{
		{
			name:     "no references",
			builder:  PromptBuilder{},
			question: "Do I need a hard hat?",
			want: "User Query: Do I need a hard hat?\n\n" +
				"Relevant References:\nNone found.\n\n" +
				"Answer the question using the provided references when relevant. " +
				"If the references are not helpful, answer concisely using OSHA workplace safety knowledge.",
		},
		{
			name:     "references listed with raw URLs",
			builder:  PromptBuilder{Domain: "construction safety"},
			question: "Guardrail height?",
			refs: []DocumentReference{
				{Name: "Fall Protection.pdf", Page: 12, URL: "https://blob/Fall Protection.pdf"},
				{Name: "Scaffolds.pdf", Page: 3, URL: "https://blob/scaffolds.pdf"},
			},
			want: "User Query: Guardrail height?\n\n" +
				"Relevant References:\n" +
				"- [Fall Protection.pdf, Page 12](https://blob/Fall Protection.pdf)\n" +
				"- [Scaffolds.pdf, Page 3](https://blob/scaffolds.pdf)\n\n" +
				"Answer the question using the provided references when relevant. " +
				"If the references are not helpful, answer concisely using construction safety knowledge.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.builder.Build(tt.question, tt.refs)
			if got != tt.want {
				t.Errorf("Build() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestPromptBuilder_Build_Deterministic(t *testing.T) {
	b := PromptBuilder{}
	refs := []DocumentReference{{Name: "a.pdf", Page: 1, URL: "u"}}
	if b.Build("q", refs) != b.Build("q", refs) {
		t.Error("Build() should be deterministic")
	}
}
