package stealth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyRotatorEmpty(t *testing.T) {
	assert.Nil(t, NewProxyRotator(""))
	assert.Nil(t, NewProxyRotator(" , ,"))
	assert.Equal(t, 0, NewProxyRotator("").Size())
}

func TestNewProxyRotatorDropsBadEntries(t *testing.T) {
	r := NewProxyRotator("http://proxy1.example.com:8080, ://broken, socks5://proxy2.example.com:1080")
	require.NotNil(t, r)
	assert.Equal(t, 2, r.Size())
}

func TestProxyRotatorCycles(t *testing.T) {
	r := NewProxyRotator("http://a.example.com:8080,http://b.example.com:8080")
	require.NotNil(t, r)

	first := r.Next()
	second := r.Next()
	assert.NotSame(t, first, second)
	assert.Same(t, first, r.Next())
}
