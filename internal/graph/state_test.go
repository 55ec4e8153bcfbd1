package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/weather-pdf-agent/internal/llm"
)

func TestState_WriteOnce(t *testing.T) {
	t.Parallel()

	s := NewState("q")
	require.NoError(t, s.SetRoute(RoutePDF))
	require.ErrorIs(t, s.SetRoute(RouteWeather), ErrFieldAlreadySet)

	require.NoError(t, s.SetContext("ctx"))
	require.ErrorIs(t, s.SetContext("other"), ErrFieldAlreadySet)

	require.NoError(t, s.SetAnswer("a"))
	require.ErrorIs(t, s.SetAnswer("b"), ErrFieldAlreadySet)

	route, _ := s.Route()
	require.Equal(t, RoutePDF, route)
	c, _ := s.Context()
	require.Equal(t, "ctx", c)
	a, _ := s.Answer()
	require.Equal(t, "a", a)
}

func TestState_Order(t *testing.T) {
	t.Parallel()

	s := NewState("q")
	require.ErrorIs(t, s.SetContext("ctx"), ErrOutOfOrder)
	require.ErrorIs(t, s.SetAnswer("a"), ErrOutOfOrder)

	require.NoError(t, s.SetRoute(RouteWeather))
	require.NoError(t, s.SetAnswer("a"))
	require.ErrorIs(t, s.SetContext("late"), ErrOutOfOrder)
}

func TestState_Display(t *testing.T) {
	t.Parallel()

	s := NewState("q")
	require.Equal(t, "", s.Display())

	require.NoError(t, s.SetRoute(RouteWeather))
	require.NoError(t, s.SetContext("Sorry, I couldn’t fetch the weather right now: timeout"))
	require.Equal(t, "Sorry, I couldn’t fetch the weather right now: timeout", s.Display())

	require.NoError(t, s.SetAnswer("It is sunny."))
	require.Equal(t, "It is sunny.", s.Display())
}

func TestState_MarshalJSON(t *testing.T) {
	t.Parallel()

	s := NewState("Will it rain?")
	require.NoError(t, s.SetRoute(RouteWeather))

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, "Will it rain?", got["question"])
	require.Equal(t, "weather", got["route"])
	require.Equal(t, s.RunID.String(), got["run_id"])
	require.NotContains(t, got, "context")
	require.NotContains(t, got, "answer")
}

func TestRouteFromReply(t *testing.T) {
	t.Parallel()

	tests := map[string]Route{
		"weather":                 RouteWeather,
		"  Weather\n":             RouteWeather,
		"This is about WEATHER.":  RouteWeather,
		"pdf":                     RoutePDF,
		"":                        RoutePDF,
		"I am not sure, maybe...": RoutePDF,
	}
	for reply, want := range tests {
		require.Equal(t, want, routeFromReply(reply), "reply %q", reply)
	}
}

func TestDecider(t *testing.T) {
	t.Parallel()

	var seen []llm.Message
	d := Decider{LLM: llm.Func(func(_ context.Context, messages []llm.Message) (string, error) {
		seen = messages
		return "maybe?", nil
	})}

	first, err := d.Classify(context.Background(), "hmm")
	require.NoError(t, err)
	second, err := d.Classify(context.Background(), "hmm")
	require.NoError(t, err)
	require.Equal(t, RoutePDF, first)
	require.Equal(t, first, second)

	require.Equal(t, []llm.Message{llm.System(decisionPrompt), llm.Human("hmm")}, seen)
}

func TestDecider_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("unauthorized")
	d := Decider{LLM: llm.Func(func(context.Context, []llm.Message) (string, error) { return "", boom })}
	_, err := d.Classify(context.Background(), "q")
	require.ErrorIs(t, err, boom)
}

func TestAnswerPrompt(t *testing.T) {
	t.Parallel()

	require.Equal(t, openPrompt, answerPrompt(""))
	require.Equal(t, openPrompt, answerPrompt(" \n\t"))
	require.Equal(t,
		"You are a helpful assistant. The following context contains the exact answer to the user's question. "+
			"Use the context directly and DO NOT reply with 'I don't know'. Respond concisely.\n\nContext:\nabc\n\n",
		answerPrompt("abc"))
}

func TestGenerateAnswer_Trims(t *testing.T) {
	t.Parallel()

	lm := llm.Func(func(context.Context, []llm.Message) (string, error) { return "  Paris.\n", nil })
	got, err := GenerateAnswer(context.Background(), lm, "capital?", "")
	require.NoError(t, err)
	require.Equal(t, "Paris.", got)
}

func TestRoute_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, RouteWeather.Valid())
	require.True(t, RoutePDF.Valid())
	require.False(t, Route("").Valid())
	require.False(t, Route("Weather").Valid())
}
