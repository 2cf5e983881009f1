package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordOrderAndEquality(t *testing.T) {
	a := FromPairs("Name", "Chan Tai Man", "Capacity", "Director", "Shares", "100")
	require.Equal(t, []string{"Name", "Capacity", "Shares"}, a.Fields())

	b := FromPairs("Capacity", "Director", "Shares", "100", "Name", "Chan Tai Man")
	// field order is presentational, identity ignores it
	require.True(t, a.Equal(b))
	require.Equal(t, a.Key(), b.Key())

	c := FromPairs("Name", "Chan Tai Man", "Capacity", "Director", "Shares", "150")
	require.False(t, a.Equal(c))
	require.NotEqual(t, a.Key(), c.Key())
}

func TestAbsentFieldIsNotEmptyString(t *testing.T) {
	with := FromPairs("Name", "A", "Number of Debentures", "")
	without := FromPairs("Name", "A")
	require.False(t, with.Equal(without))
	require.False(t, without.Equal(with))
}

func TestRecordJSONRoundTrip(t *testing.T) {
	r := FromPairs(
		"Name", "Wong Siu Ming",
		"Nature of Interest", "Beneficial owner",
		"Date of Notice", "02/01/2025",
	)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	// column order survives serialization
	require.Equal(
		t,
		`{"Name":"Wong Siu Ming","Nature of Interest":"Beneficial owner","Date of Notice":"02/01/2025"}`,
		string(data),
	)

	var back Record
	err = json.Unmarshal(data, &back)
	require.NoError(t, err)
	require.Equal(t, r.Fields(), back.Fields())
	require.True(t, r.Equal(back))
}

func TestRecordJSONNullField(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"Name":"A","Number of Debentures":null}`), &r)
	require.NoError(t, err)
	_, present := r.Get("Number of Debentures")
	require.False(t, present)
	require.Equal(t, 1, r.Len())
}

func TestRecordJSONNumericField(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"Shares":150}`), &r)
	require.NoError(t, err)
	v, ok := r.Get("Shares")
	require.True(t, ok)
	require.Equal(t, "150", v)
}

func TestTableColumnsAndContains(t *testing.T) {
	a := NewTable("Name", "Capacity")
	b := NewTable("Capacity", "Name")
	c := NewTable("Name", "Capacity", "Extra")
	require.True(t, a.SameColumns(b))
	require.False(t, a.SameColumns(c))

	a.Append(FromPairs("Name", "A", "Capacity", "Director"))
	require.True(t, a.Contains(FromPairs("Capacity", "Director", "Name", "A")))
	require.False(t, a.Contains(FromPairs("Name", "B", "Capacity", "Director")))
}
