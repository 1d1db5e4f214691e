package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDListSetSemantics(t *testing.T) {
	l := IDList{}
	l = l.Insert("a")
	l = l.Insert("b")
	l = l.Insert("a")
	assert.Equal(t, IDList{"a", "b"}, l, "inserting twice keeps one copy")

	l = l.Without("a")
	assert.Equal(t, IDList{"b"}, l)
	l = l.Without("missing")
	assert.Equal(t, IDList{"b"}, l)

	assert.True(t, l.Intersects(IDList{"x", "b"}))
	assert.False(t, l.Intersects(IDList{"x", "y"}))
}

func TestIDListColumnRoundTrip(t *testing.T) {
	v, err := IDList{"a", "b"}.Value()
	require.NoError(t, err)

	var back IDList
	require.NoError(t, back.Scan(v))
	assert.Equal(t, IDList{"a", "b"}, back)

	var fromNull IDList
	require.NoError(t, fromNull.Scan(nil))
	assert.Empty(t, fromNull, "a NULL column reads as an empty set")

	nilValue, err := IDList(nil).Value()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(nilValue.([]byte)), "nil lists store as empty arrays")
}

func TestContentJSONHidesInternals(t *testing.T) {
	c := Content{
		ID:             "r1",
		Type:           TypeRally,
		Title:          "Ride",
		ConfirmedUsers: IDList{"host"},
		Members:        IDList{"a"},
		Requests:       IDList{"b"},
		Declined:       IDList{"c"},
		VoteList:       IDList{"d"},
		RequestCount:   3,
		DeclinedCount:  1,
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	for _, hidden := range []string{"confirmedUsers", "members", "requests", "declined", "voteList", "requestCount", "declinedCount"} {
		assert.NotContains(t, out, hidden)
	}
	assert.Equal(t, "rally", out["type"])
}

func TestUserFirstName(t *testing.T) {
	assert.Equal(t, "Ada", (&User{Name: "Ada Lovelace"}).FirstName())
	assert.Equal(t, "Prince", (&User{Name: "Prince"}).FirstName())
}
