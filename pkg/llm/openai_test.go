package llm

import (
	"testing"

	"conversation-recall/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidates(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []models.NameCandidate
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"names":[{"name":"Carol","confidence":"high"}]}`,
			want:    []models.NameCandidate{{Name: "Carol", Confidence: models.ConfidenceHigh}},
		},
		{
			name: "fenced json",
			content: "```json\n" +
				`{"names":[{"name":"Bob","confidence":"medium"}]}` +
				"\n```",
			want: []models.NameCandidate{{Name: "Bob", Confidence: models.ConfidenceMedium}},
		},
		{
			name:    "empty names",
			content: `{"names":[]}`,
			want:    []models.NameCandidate{},
		},
		{
			name:    "blank name skipped",
			content: `{"names":[{"name":"  ","confidence":"high"}]}`,
			want:    []models.NameCandidate{},
		},
		{
			name:    "unknown confidence is malformed",
			content: `{"names":[{"name":"Eve","confidence":"certain"}]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: `I found Carol in the transcript.`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCandidates(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSummary(t *testing.T) {
	result, err := parseSummary(`{"summary":"Caught up on the move","topics":["moving"],"key_points":["new city"]}`)
	require.NoError(t, err)
	assert.Equal(t, "Caught up on the move", result.Summary)
	assert.Equal(t, []string{"moving"}, result.Topics)

	_, err = parseSummary(`{"topics":["x"]}`)
	assert.Error(t, err, "an empty summary is malformed, not a silent success")

	_, err = parseSummary("total garbage")
	assert.Error(t, err)
}

func TestNewOpenAIExtractorRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewOpenAIExtractor("", "", "", 0)
	assert.Error(t, err)

	t.Setenv("OPENAI_API_KEY", "env-key")
	ext, err := NewOpenAIExtractor("", "", "", 0)
	require.NoError(t, err)
	assert.NotNil(t, ext)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
