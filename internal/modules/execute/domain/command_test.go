package domain_test

import (
	"reflect"
	"testing"

	"magickd/internal/modules/execute/domain"
)

func TestParseScriptGrammar(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		script string
		want   []domain.Command
	}{
		{
			name:   "single line",
			script: "convert rose: out.png",
			want:   []domain.Command{{"convert", "rose:", "out.png"}},
		},
		{
			name:   "multiple lines in source order",
			script: "convert rose: a.png\nconvert a.png b.png",
			want: []domain.Command{
				{"convert", "rose:", "a.png"},
				{"convert", "a.png", "b.png"},
			},
		},
		{
			name:   "comment lines dropped",
			script: "# prelude\nconvert rose: a.png\n   # indented comment\nidentify a.png",
			want: []domain.Command{
				{"convert", "rose:", "a.png"},
				{"identify", "a.png"},
			},
		},
		{
			name:   "continuation joined",
			script: "convert rose: \\\n  -resize 50% a.png",
			want:   []domain.Command{{"convert", "rose:", "-resize", "50%", "a.png"}},
		},
		{
			name:   "single quotes keep embedded whitespace",
			script: "convert 'a b.png' c.png",
			want:   []domain.Command{{"convert", "a b.png", "c.png"}},
		},
		{
			name:   "blank logical lines skipped",
			script: "\n\nconvert rose: a.png\n   \n",
			want:   []domain.Command{{"convert", "rose:", "a.png"}},
		},
		{
			name:   "whitespace only yields empty batch",
			script: "   \n\t\n",
			want:   []domain.Command{},
		},
		{
			name:   "comments only yields empty batch",
			script: "# one\n  # two",
			want:   []domain.Command{},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := domain.ParseScript(tc.script)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseScript(%q) = %v, want %v", tc.script, got, tc.want)
			}
		})
	}
}

func TestParseScriptCommentAndContinuationRoundTrip(t *testing.T) {
	t.Parallel()
	decorated := "# generate the rose\nconvert rose: \\\n  a.png\nidentify a.png"
	plain := "convert rose: a.png\nidentify a.png"
	if !reflect.DeepEqual(domain.ParseScript(decorated), domain.ParseScript(plain)) {
		t.Fatalf("decorated script must normalize like the plain one:\n%v\n%v",
			domain.ParseScript(decorated), domain.ParseScript(plain))
	}
}

func TestParseScriptTrailingContinuation(t *testing.T) {
	t.Parallel()
	got := domain.ParseScript("convert rose: \\")
	want := []domain.Command{{"convert", "rose:"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("trailing continuation: got %v, want %v", got, want)
	}
}

func TestCommandString(t *testing.T) {
	t.Parallel()
	command := domain.Command{"convert", "rose:", "out.png"}
	if command.String() != "convert rose: out.png" {
		t.Fatalf("unexpected string: %q", command.String())
	}
}
