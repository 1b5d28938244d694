package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobEmptyIncludePassesEverythingNotExcluded(t *testing.T) {
	g, err := NewGlob(nil, []string{"information_schema"}, false)
	require.NoError(t, err)

	assert.NoError(t, g.Evaluate("sakila"))
	assert.Error(t, g.Evaluate("information_schema"))
}

func TestGlobIncludeListRejectsNonMatch(t *testing.T) {
	g, err := NewGlob([]string{"sakila.*"}, nil, false)
	require.NoError(t, err)

	assert.NoError(t, g.Evaluate("sakila.actor"))

	err = g.Evaluate("other.actor")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFilteredItem))
}

func TestGlobExcludeWinsOverInclude(t *testing.T) {
	g, err := NewGlob([]string{"sakila.*"}, []string{"sakila.secret"}, false)
	require.NoError(t, err)

	assert.NoError(t, g.Evaluate("sakila.actor"))
	assert.Error(t, g.Evaluate("sakila.secret"))
}

func TestGlobEngineNamesAreCaseInsensitive(t *testing.T) {
	g, err := NewGlob(nil, []string{"innodb"}, true)
	require.NoError(t, err)

	err = g.Evaluate("InnoDB")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFilteredItem))
}
