package commands

import (
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	args, ok := Parse("cmd blur --passes 4")
	assert.True(t, ok)
	assert.Equal(t, []string{"blur", "--passes", "4"}, args)

	args, ok = Parse("cmd   ")
	assert.True(t, ok)
	assert.Nil(t, args)

	_, ok = Parse("hello there")
	assert.False(t, ok)
	_, ok = Parse("CMD blur")
	assert.False(t, ok)
}

func TestExecute(t *testing.T) {
	r := NewRegistry()
	fs := flag.NewFlagSet("", flag.ExitOnError)
	passes := fs.Int("passes", 10, "blur iterations")
	var ran int
	r.Register("blur", "--passes N", fs, func() error {
		ran = *passes
		return nil
	})
	r.Register("fail", "always fails", flag.NewFlagSet("", flag.ExitOnError), func() error {
		return errors.New("boom")
	})

	require.NoError(t, r.Execute([]string{"blur", "--passes", "3"}))
	assert.Equal(t, 3, ran)

	assert.ErrorIs(t, r.Execute(nil), ErrMissingCommand)
	assert.ErrorIs(t, r.Execute([]string{"nope"}), ErrUnknownCommand)
	assert.ErrorContains(t, r.Execute([]string{"blur", "--passes", "x"}), "blur:")
	assert.EqualError(t, r.Execute([]string{"fail"}), "boom")

	assert.Equal(t, []string{"blur", "fail"}, r.Names())
	assert.Equal(t, []string{"blur - --passes N", "fail - always fails"}, r.Help())
}

func TestExecuteResetsFlags(t *testing.T) {
	r := NewRegistry()
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	force := fs.Bool("force", false, "")
	var seen []bool
	r.Register("cull", "[--force]", fs, func() error {
		seen = append(seen, *force)
		return nil
	})

	require.NoError(t, r.Execute([]string{"cull", "--force"}))
	require.NoError(t, r.Execute([]string{"cull"}))
	assert.Equal(t, []bool{true, false}, seen)
}
