package command

import (
	"browser_agent/domain/entities"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  entities.Action
	}{
		{name: "click", reply: "CLICK 3", want: entities.Click(3)},
		{name: "click with surrounding whitespace", reply: "  CLICK\t3 \n", want: entities.Click(3)},
		{name: "click ignores trailing tokens", reply: "CLICK 3 please", want: entities.Click(3)},
		{name: "answer", reply: `ANSWER "done"`, want: entities.Answer("done")},
		{name: "answer multi word", reply: `ANSWER "Found cat pictures."`, want: entities.Answer("Found cat pictures.")},
		{name: "answer without quotes", reply: "ANSWER done", want: entities.Answer("done")},
		{name: "answer collapses spaces", reply: `ANSWER "a   b"`, want: entities.Answer("a b")},
		{name: "empty answer", reply: "ANSWER", want: entities.Answer("")},
		{name: "type", reply: `TYPE 2 "hello world"`, want: entities.TypeSubmit(2, "hello world")},
		{name: "type without text", reply: "TYPE 2", want: entities.TypeSubmit(2, "")},
		{name: "inner quotes are kept", reply: `TYPE 0 "say "hi" now"`, want: entities.TypeSubmit(0, `say "hi" now`)},
		{name: "no escape processing", reply: `TYPE 1 "a\nb"`, want: entities.TypeSubmit(1, `a\nb`)},
		{name: "typesubmit alias", reply: `TYPESUBMIT 4 "cats"`, want: entities.TypeSubmit(4, "cats")},
		{name: "end alias", reply: `END "bye"`, want: entities.Answer("bye")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		reason error
		token  string
	}{
		{name: "empty", reply: "", reason: ErrNoCommand},
		{name: "whitespace only", reply: " \n\t", reason: ErrNoCommand},
		{name: "unknown keyword", reply: "FOO bar", reason: ErrUnknownCommand, token: "FOO"},
		{name: "keywords are case sensitive", reply: "click 3", reason: ErrUnknownCommand, token: "click"},
		{name: "prose reply", reply: "I will click the search box", reason: ErrUnknownCommand, token: "I"},
		{name: "click without id", reply: "CLICK", reason: ErrMissingID, token: "CLICK"},
		{name: "type without id", reply: "TYPE", reason: ErrMissingID, token: "TYPE"},
		{name: "non numeric id", reply: "CLICK three", reason: ErrInvalidID, token: "three"},
		{name: "negative id", reply: "CLICK -1", reason: ErrInvalidID, token: "-1"},
		{name: "quoted id", reply: `TYPE "hello"`, reason: ErrInvalidID, token: `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.reply)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.reason)
			assert.ErrorIs(t, err, entities.ErrProtocol)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.token, perr.Token)
			if tt.token != "" {
				assert.Contains(t, err.Error(), tt.token)
			}
		})
	}
}

func TestParse_RoundTripsCanonicalForm(t *testing.T) {
	// interior quotes and backslashes are plain text to the grammar
	word := rapid.StringMatching(`[A-Za-z0-9.,!?]([A-Za-z0-9.,!?"\\]{0,6}[A-Za-z0-9.,!?])?`)

	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.IntRange(0, 10000).Draw(rt, "id")
		words := rapid.SliceOfN(word, 0, 6).Draw(rt, "words")
		text := strings.Join(words, " ")

		var want entities.Action
		switch rapid.IntRange(0, 2).Draw(rt, "kind") {
		case 0:
			want = entities.Click(id)
		case 1:
			want = entities.TypeSubmit(id, text)
		default:
			want = entities.Answer(text)
		}

		got, err := Parse(want.String())
		if err != nil {
			rt.Fatalf("parse %q: %v", want.String(), err)
		}
		if got != want {
			rt.Fatalf("parse %q = %+v, want %+v", want.String(), got, want)
		}
	})
}

func TestParse_EmbeddedQuotes(t *testing.T) {
	tests := []entities.Action{
		entities.TypeSubmit(0, `say "hi" now`),
		entities.TypeSubmit(3, `C:\temp\notes`),
		entities.Answer(`the sign reads "open"!`),
	}

	for _, want := range tests {
		t.Run(want.String(), func(t *testing.T) {
			got, err := Parse(want.String())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	assert.Equal(t, `TYPE 0 "say "hi" now"`, tests[0].String())
}

func ExampleParse() {
	action, err := Parse(`TYPE 0 "cats"`)
	fmt.Println(action.Type, action.ID, action.Text, err)
	// Output: type_submit 0 cats <nil>
}
