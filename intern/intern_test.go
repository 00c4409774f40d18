package intern_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsrun-lang/tsrun/intern"
)

func TestInternReturnsSameBackingString(t *testing.T) {
	tbl := intern.NewTable()

	a := tbl.Intern("hello")
	b := tbl.Intern("hello")
	require.Equal(t, a, b)
	require.Equal(t, 1, tbl.Len())
}

func TestInternDistinctStrings(t *testing.T) {
	tbl := intern.NewTable()
	tbl.Intern("foo")
	tbl.Intern("bar")
	require.Equal(t, 2, tbl.Len())
	require.True(t, tbl.Has("foo"))
	require.False(t, tbl.Has("baz"))
}

func TestInternConcurrentUse(t *testing.T) {
	tbl := intern.NewTable()
	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func() {
			tbl.Intern("shared")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 16; i++ {
		<-done
	}
	require.Equal(t, 1, tbl.Len())
}
