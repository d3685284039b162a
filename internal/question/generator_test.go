package question_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/domain"
	"github.com/tranvk/fanarena/internal/question"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *question.Generator {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return question.NewGenerator(question.GeneratorConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestGenerator_GenerateQuestions(t *testing.T) {
	tests := map[string]struct {
		handler func(t *testing.T) http.HandlerFunc
		assert  func(t *testing.T, qs []question.Generated, err error)
	}{
		"well formed response parses": {
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					require.Equal(t, "/chat/completions", r.URL.Path)
					require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

					chatReply(t, w, `{"questions":[
  {"question":"City?","options":["LA","SF","NY","SD"],"correct_answer":"LA","explanation":"LA."},
  {"question":"Colors?","options":["Red","Purple and gold","Blue","Green"],"correct_answer":"Purple and gold","explanation":""}
]}`)
				}
			},
			assert: func(t *testing.T, qs []question.Generated, err error) {
				require.NoError(t, err)
				require.Len(t, qs, 2)
				require.Equal(t, "LA", qs[0].CorrectAnswer)
				require.Len(t, qs[1].Options, 4)
			},
		},

		"non-json content fails": {
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					chatReply(t, w, "Sure! Here are your questions: ...")
				}
			},
			assert: func(t *testing.T, qs []question.Generated, err error) {
				require.Error(t, err)
			},
		},

		"wrong option count fails": {
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					chatReply(t, w, `{"questions":[{"question":"?","options":["a","b"],"correct_answer":"a"}]}`)
				}
			},
			assert: func(t *testing.T, qs []question.Generated, err error) {
				require.Error(t, err)
			},
		},

		"upstream error status fails": {
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					http.Error(w, "rate limited", http.StatusTooManyRequests)
				}
			},
			assert: func(t *testing.T, qs []question.Generated, err error) {
				require.Error(t, err)
			},
		},

		"empty choices fails": {
			handler: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"choices": []any{}}))
				}
			},
			assert: func(t *testing.T, qs []question.Generated, err error) {
				require.Error(t, err)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			g := chatServer(t, tt.handler(t))

			qs, err := g.GenerateQuestions(context.Background(), "Lakers", domain.LevelEasy, 2)
			tt.assert(t, qs, err)
		})
	}
}

func TestGenerator_Complete(t *testing.T) {
	g := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "The Lakers won 17 championships.")
	})

	reply, err := g.Complete(context.Background(), "How many titles do the Lakers have?")
	require.NoError(t, err)
	require.Equal(t, "The Lakers won 17 championships.", reply)
}
