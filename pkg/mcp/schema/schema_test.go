package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

func TestClassify(t *testing.T) {
	assert := assert.New(t)

	kind, err := schema.Classify([]byte(`{"jsonrpc":"2.0","id":"a","method":"ping"}`))
	assert.NoError(err)
	assert.Equal(schema.KindRequest, kind)

	kind, err = schema.Classify([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.NoError(err)
	assert.Equal(schema.KindNotification, kind)

	kind, err = schema.Classify([]byte(`{"jsonrpc":"2.0","id":"a","result":{}}`))
	assert.NoError(err)
	assert.Equal(schema.KindResponse, kind)
}

func TestCapabilitiesRoundTrip(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	in := schema.ClientCapabilities{
		Roots:       &schema.RootsCapability{ListChanged: true},
		Sampling:    &schema.SamplingCapability{},
		Elicitation: &schema.ElicitationCapability{Form: true, URL: true},
		Tasks: &schema.TasksCapability{
			List:     true,
			Cancel:   true,
			Requests: []string{"tools/call"},
		},
		Experimental: map[string]any{"x": "y"},
	}

	data, err := json.Marshal(in)
	require.NoError(err)

	var out schema.ClientCapabilities
	require.NoError(json.Unmarshal(data, &out))
	assert.Equal(in, out)
}

func TestRootRoundTrip(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	in := schema.Root{URI: "file:///tmp/project", Name: "project"}
	data, err := json.Marshal(in)
	require.NoError(err)

	var out schema.Root
	require.NoError(json.Unmarshal(data, &out))
	assert.Equal(in, out)
}

func TestErrorMessages(t *testing.T) {
	assert := assert.New(t)

	err := schema.NewError(schema.ErrorCodeMethodNotFound, "")
	assert.Equal("Method not found", err.Message)
	assert.Equal(-32601, err.Code)

	err2 := schema.NewError(schema.ErrorCodeMethodNotFound, "")
	assert.True(err.Is(err2))
}

func TestNewRequest(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	req, err := schema.NewRequest(schema.MethodPing, nil)
	require.NoError(err)
	assert.Equal(schema.RPCVersion, req.Version)
	assert.NotEmpty(req.ID)
	assert.Equal(schema.MethodPing, req.Method)
}
