package jsoncodec

import (
	"testing"

	"github.com/jaksonlabs/carbonfmt/field"
	"github.com/jaksonlabs/carbonfmt/record"
	"github.com/stretchr/testify/require"
)

func TestFromJSONThenToJSONRoundTripsScalarsAndNesting(t *testing.T) {
	src := `[1, "two", true, null, {"name": "alice", "age": 30}, [1, 2, 3]]`

	rec, err := FromJSON([]byte(src), record.NoKey, field.UnsortedMultiset)
	require.NoError(t, err)

	out, err := ToJSON(rec)
	require.NoError(t, err)
	require.JSONEq(t, src, string(out))
}

func TestFromJSONRejectsNonArrayTopLevel(t *testing.T) {
	_, err := FromJSON([]byte(`{"a": 1}`), record.NoKey, field.UnsortedMultiset)
	require.Error(t, err)
}

func TestFromJSONWidensFloats(t *testing.T) {
	rec, err := FromJSON([]byte(`[1.5]`), record.NoKey, field.UnsortedMultiset)
	require.NoError(t, err)

	out, err := ToJSON(rec)
	require.NoError(t, err)
	require.JSONEq(t, `[1.5]`, string(out))
}
