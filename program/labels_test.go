// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type labelSet map[string]bool

func (l labelSet) Label(name string) (string, error) {
	if name == "explode" {
		panic("lookup blew up")
	}
	if !l[name] {
		return "", errors.New("no label " + name)
	}
	return "label:" + name, nil
}

func TestResolveEntrypoint(t *testing.T) {
	require := require.New(t)
	labels := labelSet{"double": true, "default": true}

	label, err := ResolveEntrypoint(labels, map[string]interface{}{"function": "double"})
	require.NoError(err)
	require.Equal("label:double", label)

	for _, params := range []map[string]interface{}{
		{"function": "pow"},
		{"function": nil},
		{"function": int64(12)},
		{"function": "explode"},
		{},
		nil,
	} {
		label, err = ResolveEntrypoint(labels, params)
		require.NoError(err)
		require.Equal("label:default", label)
	}
}

func TestResolveEntrypointSurfacesDefaultFailure(t *testing.T) {
	require := require.New(t)

	_, err := ResolveEntrypoint(labelSet{"double": true}, map[string]interface{}{"function": "pow"})
	require.EqualError(err, "no label default")
}
