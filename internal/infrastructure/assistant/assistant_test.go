package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthbench/reagent/internal/config"
	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/pkg/errors"
)

func TestParseComponentArray(t *testing.T) {
	raw := "Here are the components:\n```json\n" + `[
		{"name": "ethanol", "cas": "64-17-5", "aliases": ["EtOH"], "quantity": 5, "unit": "g", "role": "reactant", "coefficient": 1},
		{"name": "acetic acid", "quantity": "3.1", "unit": "g", "role": "Edukt"},
		{"name": "ethyl acetate", "quantity": null, "unit": "", "role": "produkt", "coefficient": 0},
		{"name": "", "cas": ""}
	]` + "\n```\nLet me know if you need anything else."

	components, err := parseComponentArray(raw)
	require.NoError(t, err)
	require.Len(t, components, 3)

	assert.Equal(t, "ethanol", components[0].Name)
	assert.Equal(t, "64-17-5", components[0].CASNumber)
	require.NotNil(t, components[0].Quantity)
	assert.Equal(t, 5.0, *components[0].Quantity)
	assert.Equal(t, reaction.RoleReactant, components[0].Role)
	assert.NotEmpty(t, components[0].ID)

	// Quoted quantity and German role are tolerated.
	require.NotNil(t, components[1].Quantity)
	assert.Equal(t, 3.1, *components[1].Quantity)
	assert.Equal(t, reaction.RoleReactant, components[1].Role)

	// Zero coefficient defaults to 1; null quantity stays nil.
	assert.Equal(t, reaction.RoleProduct, components[2].Role)
	assert.Equal(t, 1.0, components[2].Coefficient)
	assert.Nil(t, components[2].Quantity)
}

func TestParseComponentArray_NoArray(t *testing.T) {
	_, err := parseComponentArray("I could not find any components, sorry.")
	require.Error(t, err)
	assert.Equal(t, errors.CodeAssistantParseError, errors.GetCode(err))
}

func TestParseComponentArray_MalformedArray(t *testing.T) {
	_, err := parseComponentArray(`[{"name": "ethanol"`)
	require.Error(t, err)
	assert.Equal(t, errors.CodeAssistantParseError, errors.GetCode(err))
}

func TestCleanSuggestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"4-ethylphenol", "4-ethylphenol"},
		{"  `p-ethylphenol`  ", "p-ethylphenol"},
		{`"ethyl alcohol"`, "ethyl alcohol"},
		{"Name: benzene-1,2-diol", "benzene-1,2-diol"},
		{"I would suggest trying the name para-ethylphenol instead of this one.", ""},
		{"one\ntwo", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanSuggestion(tt.in), "input %q", tt.in)
	}
}

func TestDisabledClient(t *testing.T) {
	c, err := NewClient(config.AssistantConfig{}, nil, nil)
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	_, err = c.ExtractComponents(context.Background(), "5 g ethanol")
	assert.Equal(t, errors.CodeAssistantUnavailable, errors.GetCode(err))

	_, err = c.SuggestAlternativeName(context.Background(), "ethanol", nil, "")
	assert.Equal(t, errors.CodeAssistantUnavailable, errors.GetCode(err))
}

// completionServer fakes an OpenAI-compatible chat completion endpoint.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		resp := map[string]interface{}{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAssistant(t *testing.T, content string) *Client {
	t.Helper()
	srv := completionServer(t, content)
	c, err := NewClient(config.AssistantConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
	}, nil, nil)
	require.NoError(t, err)
	require.True(t, c.Enabled())
	return c
}

func TestExtractComponents_EndToEnd(t *testing.T) {
	c := newTestAssistant(t, `[{"name": "ethanol", "quantity": 5, "unit": "g", "role": "reactant", "coefficient": 1}]`)

	components, err := c.ExtractComponents(context.Background(), "5 g ethanol")
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "ethanol", components[0].Name)
}

func TestSuggestAlternativeName_SkipsAlreadyTried(t *testing.T) {
	c := newTestAssistant(t, "Ethanol")

	attempts := []reaction.Attempt{{Candidate: "ethanol", Outcome: "miss"}}
	suggestion, err := c.SuggestAlternativeName(context.Background(), "ethanole", attempts, "")
	require.NoError(t, err)
	assert.Empty(t, suggestion)
}

func TestSuggestAlternativeName_ReturnsNewName(t *testing.T) {
	c := newTestAssistant(t, "4-ethylphenol")

	suggestion, err := c.SuggestAlternativeName(context.Background(), "p-ethyl phenol",
		[]reaction.Attempt{{Candidate: "p-ethyl phenol", Outcome: "miss"}}, "esterification")
	require.NoError(t, err)
	assert.Equal(t, "4-ethylphenol", suggestion)
}

func TestNarrativePromptIncludesComponents(t *testing.T) {
	var captured string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, m := range req.Messages {
			for _, part := range m.Content {
				captured += part.Text
			}
		}
		fmt.Fprint(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Looks plausible."},"finish_reason":"stop"}]}`)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(config.AssistantConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}, nil, nil)
	require.NoError(t, err)

	eq := 1.0
	comp := &reaction.ResolvedComponent{
		RawComponent: reaction.RawComponent{Name: "ethanol", Role: reaction.RoleReactant},
		Compound:     &reaction.Compound{Formula: "C2H6O", MolarMass: 46.07},
		Equivalents:  &eq,
	}
	narrative, err := c.Narrative(context.Background(), []*reaction.ResolvedComponent{comp}, "Limiting reagent: ethanol")
	require.NoError(t, err)
	assert.Equal(t, "Looks plausible.", narrative)
	assert.Contains(t, captured, "ethanol")
	assert.Contains(t, captured, "C2H6O")
}
