package pgtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func nop(*T) {}

func TestSuiteTestNamesKeepDeclarationOrder(t *testing.T) {
	s := NewSuite("A", Test{"z", nop}, Test{"a", nop})
	s.Add("m", nop)
	assert.Equal(t, "A", s.Name())
	assert.Equal(t, []string{"z", "a", "m"}, s.TestNames())

	names := s.TestNames()
	names[0] = "changed"
	assert.Equal(t, []string{"z", "a", "m"}, s.TestNames())
}

func TestSuiteRejectsDuplicateNames(t *testing.T) {
	assert.Panics(t, func() { NewSuite("A", Test{"t", nop}, Test{"t", nop}) })
	assert.Panics(t, func() { NewSuite("A").Add("", nop) })
	assert.Panics(t, func() { NewSuite("A").Add("t", nil) })
}

func TestSuiteDisableTests(t *testing.T) {
	s := NewSuite("A", Test{"t1", nop}, Test{"t2", nop}, Test{"t3", nop})
	s.DisableTests("t2", "nope")
	assert.True(t, s.IsDisabled("t2"))
	assert.False(t, s.IsDisabled("nope"))
	assert.Equal(t, []string{"t1", "t2", "t3"}, s.TestNames())
	assert.Equal(t, []string{"t1", "t3"}, s.EnabledTestNames())
}

func TestSuiteSuspectedCrashesAreSubsetOfRegistered(t *testing.T) {
	s := NewSuite("A", Test{"t1", nop}, Test{"t2", nop})
	s.SetSuspectedCrashes("t2", "ghost", "t1")
	assert.Equal(t, []string{"t1", "t2"}, s.SuspectedCrashes())
	assert.False(t, s.IsSuspectedCrash("ghost"))
	assert.False(t, s.IsDisabled("t2"))

	s.SetSuspectedCrashes()
	assert.Empty(t, s.SuspectedCrashes())
}
