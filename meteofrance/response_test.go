package meteofrance

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" xml:"name"`
	Count int    `json:"count" xml:"count"`
}

func response(contentType, body string) *Response {
	return &Response{
		Endpoint:   testPath,
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {contentType}},
		Body:       []byte(body),
	}
}

func TestResponse_Decode(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var got sample
		require.NoError(t, response("application/json; charset=utf-8", `{"name":"vent","count":3}`).Decode(&got))
		assert.Equal(t, sample{Name: "vent", Count: 3}, got)
	})

	t.Run("xml", func(t *testing.T) {
		var got sample
		require.NoError(t, response("application/xml", `<sample><name>pluie</name><count>2</count></sample>`).Decode(&got))
		assert.Equal(t, sample{Name: "pluie", Count: 2}, got)
	})

	t.Run("missing content type falls back to json", func(t *testing.T) {
		var got sample
		require.NoError(t, response("", `{"name":"orages"}`).Decode(&got))
		assert.Equal(t, "orages", got.Name)
	})
}

func TestResponse_Decode_Failures(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"empty body", "application/json", ""},
		{"whitespace body", "application/json", "  \n"},
		{"truncated json", "application/json", `{"name":"vent","cou`},
		{"truncated xml", "text/xml", `<sample><name>vent</na`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			err := response(tt.contentType, tt.body).Decode(&got)

			var upErr *UpstreamError
			require.ErrorAs(t, err, &upErr)
			assert.Equal(t, testPath, upErr.Endpoint)
			assert.Equal(t, http.StatusOK, upErr.StatusCode)
		})
	}
}

func TestResponse_PayloadError(t *testing.T) {
	err := response("application/json", `{}`).PayloadError("missing product")
	assert.True(t, IsUpstreamError(err))
	assert.Contains(t, err.Error(), "missing product")
}
