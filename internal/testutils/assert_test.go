package testutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingT captures assertion failures instead of failing the test.
type recordingT struct {
	failures []string
}

func (r *recordingT) Helper() {}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func TestTextAsserter(t *testing.T) {
	rt := &recordingT{}
	ta := NewTextAsserter(rt)

	assert.True(t, ta.Assert("a  \nb\n\n", "a\nb"), "trailing whitespace MUST be ignored")
	assert.Empty(t, rt.failures)

	assert.False(t, ta.Assert("a\nc", "a\nb"))
	assert.Len(t, rt.failures, 1)
	assert.Contains(t, rt.failures[0], "-b")
	assert.Contains(t, rt.failures[0], "+c")
}

func TestTextAsserterColors(t *testing.T) {
	diff := NewTextAsserter(&recordingT{}).WithColors(true).Diff("x", "y")
	assert.Contains(t, diff, "\x1b[")
}

func TestJSONAsserter(t *testing.T) {
	rt := &recordingT{}
	ja := NewJSONAsserter(rt)

	assert.True(t, ja.Assert(`{"b":2,"a":1}`, `{"a":1,"b":2}`), "key order MUST NOT matter")
	assert.True(t, ja.Assert(`[{"a":1,"t":"2026"}]`, `[{"a":1,"t":"<<PRESENCE>>"}]`))
	assert.False(t, ja.Assert(`{"a":1,"extra":true}`, `{"a":1}`), "extra keys MUST fail by default")
	assert.True(t, ja.WithIgnoreExtraKeys(true).Assert(`{"a":1,"extra":true}`, `{"a":1}`))
	assert.Len(t, rt.failures, 1)

	assert.False(t, NewJSONAsserter(rt).Assert(`{"a":1}`, `{"a":"<<PRESENCE>>","b":2}`), "missing keys MUST fail")
	assert.Contains(t, NewJSONAsserter(rt).Diff(`not json`, `{}`), "invalid actual JSON")
}
