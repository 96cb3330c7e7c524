package decode

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRejectsUnknownFieldsAndTrailingData(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	var dst payload
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"a"}`))
	require.NoError(t, JSON(req, &dst))
	assert.Equal(t, "a", dst.Name)

	for _, body := range []string{``, `{"unknown":1}`, `{"name":"a"}{"name":"b"}`} {
		req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		assert.Error(t, JSON(req, &payload{}), "body: %s", body)
	}
}

func TestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders/12", nil)
	req.SetPathValue("id", "12")
	id, err := ID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, raw := range []string{"", "abc", "0", "-4"} {
		req = httptest.NewRequest(http.MethodGet, "/orders/x", nil)
		req.SetPathValue("id", raw)
		_, err = ID(req, "id")
		assert.Error(t, err, "raw: %q", raw)
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/clients?limit=30", nil)
	v, err := QueryInt(req, "limit", 100)
	require.NoError(t, err)
	assert.Equal(t, 30, v)

	v, err = QueryInt(req, "offset", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	req = httptest.NewRequest(http.MethodGet, "/clients?limit=-1", nil)
	_, err = QueryInt(req, "limit", 100)
	assert.Error(t, err)
}
