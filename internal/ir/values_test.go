package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueJSONShapes(t *testing.T) {
	data, err := json.Marshal(Values{
		"name":  Scalar("x"),
		"items": List("a"),
		"none":  List(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","items":["a"],"none":[]}`, string(data))
}

func TestValueUnmarshal(t *testing.T) {
	var vs Values
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1","b":["2","3"]}`), &vs))

	assert.Equal(t, Scalar("1"), vs["a"])
	assert.Equal(t, List("2", "3"), vs["b"])

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`42`), &v))
}

func TestValuesMap(t *testing.T) {
	m := Values{"a": Scalar("1"), "b": List("2")}.Map()
	assert.Equal(t, "1", m["a"])
	assert.Equal(t, []string{"2"}, m["b"])
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+FF61 sorts after U+1F600 in UTF-8 but before it in UTF-16.
	vs := Values{"\U0001F600": Scalar(""), "\uff61": Scalar(""), "a": Scalar("")}
	assert.Equal(t, []string{"a", "\U0001F600", "\uff61"}, vs.SortedKeys())
}
