package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListValue(t *testing.T) {
	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = StringList{"Thai", "Mediterranean"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["Thai","Mediterranean"]`, v)
}

func TestStringListScan(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan(`["c"]`))
	assert.Equal(t, StringList{"c"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Equal(t, StringList{}, l)

	assert.Error(t, l.Scan(42))
}
