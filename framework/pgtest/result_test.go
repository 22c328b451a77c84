package pgtest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pgraph-tests/pgraph-harness/framework/progress"
)

func TestTestIDString(t *testing.T) {
	assert.Equal(t, "", TestID{}.String())
	assert.Equal(t, "Window clip", TestID{Suite: "Window clip"}.String())
	assert.Equal(t, "Window clip::E_x0y0", TestID{Suite: "Window clip", Test: "E_x0y0"}.String())
}

func TestTestIDRef(t *testing.T) {
	assert.Equal(t, progress.TestRef{Suite: "A", Test: "b"}, TestID{Suite: "A", Test: "b"}.Ref())
}

func TestResultsOK(t *testing.T) {
	var r Results
	assert.True(t, r.OK())
	assert.NoError(t, r.Err())

	r.add(TestResult{TestID: testID("A", "skipped"), Skipped: true})
	assert.True(t, r.OK())
	assert.Len(t, r.Tests, 0)

	failure := errors.New("bad pixel")
	r.add(TestResult{TestID: testID("A", "t"), Errors: []error{failure}})
	assert.False(t, r.OK())
	assert.ErrorIs(t, r.Err(), failure)
	assert.EqualError(t, r.Err(), "[A::t]: bad pixel")

	assert.False(t, Results{Aborted: true}.OK())
}
