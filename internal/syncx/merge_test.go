package syncx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	ID   string
	Body string
}

func byID(r rec) string { return r.ID }

func TestMerge_DisjointKeysIsUnion(t *testing.T) {
	local := []rec{{"k1", "local"}}
	remote := []rec{{"k2", "remote"}}

	res := Merge(local, remote, byID, nil)

	assert.Equal(t, []rec{{"k2", "remote"}, {"k1", "local"}}, res.Items)
	assert.Equal(t, []rec{{"k1", "local"}}, res.LocalOnly)
	assert.Empty(t, res.Repaired)
}

func TestMerge_ConflictRemoteWins(t *testing.T) {
	local := []rec{{"k", "local"}, {"only-local", "x"}}
	remote := []rec{{"k", "remote"}}

	res := Merge(local, remote, byID, RemoteWins[rec]())

	require.Len(t, res.Items, 2)
	assert.Equal(t, rec{"k", "remote"}, res.Items[0])
	assert.Equal(t, rec{"only-local", "x"}, res.Items[1])
}

func TestMerge_CustomResolverReportsRepairs(t *testing.T) {
	longer := func(l, r rec) (rec, bool) {
		if len(l.Body) > len(r.Body) {
			r.Body = l.Body
			return r, true
		}
		return r, false
	}
	local := []rec{{"a", "rich local body"}, {"b", "x"}}
	remote := []rec{{"a", "thin"}, {"b", "remote body"}}

	res := Merge(local, remote, byID, longer)

	assert.Equal(t, []rec{{"a", "rich local body"}, {"b", "remote body"}}, res.Items)
	assert.Equal(t, []rec{{"a", "rich local body"}}, res.Repaired)
	assert.Empty(t, res.LocalOnly)
}

func TestMerge_Idempotent(t *testing.T) {
	local := []rec{{"1", "l1"}, {"2", "l2"}, {"3", "l3"}}
	remote := []rec{{"2", "r2"}, {"4", "r4"}}

	first := Merge(local, remote, byID, nil)
	second := Merge(first.Items, remote, byID, nil)

	assert.Equal(t, first.Items, second.Items)
}

func TestMerge_EmptySides(t *testing.T) {
	assert.Empty(t, Merge[rec, string](nil, nil, byID, nil).Items)

	onlyLocal := Merge([]rec{{"a", "1"}}, nil, byID, nil)
	assert.Equal(t, []rec{{"a", "1"}}, onlyLocal.Items)

	onlyRemote := Merge(nil, []rec{{"b", "2"}}, byID, nil)
	assert.Equal(t, []rec{{"b", "2"}}, onlyRemote.Items)
}

func TestMerge_DuplicateKeysKeepFirst(t *testing.T) {
	remote := []rec{{"a", "first"}, {"a", "second"}}
	local := []rec{{"b", "l1"}, {"b", "l2"}}

	res := Merge(local, remote, byID, nil)
	assert.Equal(t, []rec{{"a", "first"}, {"b", "l1"}}, res.Items)
}
