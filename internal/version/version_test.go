package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertEngineVersion_good(t *testing.T) {
	for _, tup := range [][2]string{
		{"=1.2.3", "v1.2.3"},
		{">=1.2.3", "v1.2.3"},
		{">=1.2.3", "v1.2.4"},
		{">1.2.3", "v1.2.4"},
		{">=1.1", "1.1.0"},
		{">=1.1", "1.2.0"},
		{">=1", "1.0.0"},
		{">1", "2.0.0"},
	} {
		t.Run(fmt.Sprintf("%v", tup), func(t *testing.T) {
			assert.NoError(t, AssertEngineVersion(tup[0], tup[1]))
		})
	}
}

func TestAssertEngineVersion_bad(t *testing.T) {
	for _, tup := range [][2]string{
		{"=1.2.3", "v1.2.0"},
		{">2", "v1.2.0"},
		{">1.2", "v1.2.0"},
	} {
		t.Run(fmt.Sprintf("%v", tup), func(t *testing.T) {
			err := AssertEngineVersion(tup[0], tup[1])
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "does not satisfy required constraint")
		})
	}
}

func TestAssertEngineVersion_invalidConstraint(t *testing.T) {
	err := AssertEngineVersion("not-a-constraint", "1.0.0")
	assert.Error(t, err)
}

func TestAssertEngineVersion_invalidCurrent(t *testing.T) {
	err := AssertEngineVersion(">=1.0.0", "not-a-version")
	assert.Error(t, err)
}
