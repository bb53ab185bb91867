package ai

import (
	"errors"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"prose around", "Sure! Here it is: {\"a\": {\"b\": 2}} hope that helps", `{"a": {"b": 2}}`},
		{"fenced", "```json\n{\"taskType\":\"regression\"}\n```", `{"taskType":"regression"}`},
		{"think block", "<think>maybe {x}</think>{\"ok\":true}", `{"ok":true}`},
		{"braces in strings", `{"s":"a } b {"}`, `{"s":"a } b {"}`},
		{"skips invalid", `{not json} then {"v":1}`, `{"v":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractJSONObjectNone(t *testing.T) {
	for _, in := range []string{"", "no json here", "[1,2,3]", `{"unterminated": 1`} {
		if _, err := ExtractJSONObject(in); !errors.Is(err, ErrNoJSON) {
			t.Fatalf("%q: expected ErrNoJSON, got %v", in, err)
		}
	}
}

func TestParseJSONResponse(t *testing.T) {
	type out struct {
		TaskType   string  `json:"taskType"`
		Confidence float64 `json:"confidence"`
	}
	got, err := ParseJSONResponse[out]("answer: {\"taskType\":\"clustering\",\"confidence\":0.7}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TaskType != "clustering" || got.Confidence != 0.7 {
		t.Fatalf("unexpected: %+v", got)
	}
}
