package dedupe

import (
	"fmt"
	"testing"

	"github.com/olehluchkiv/ifacegen/internal/decl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func fn(name string, params ...decl.Param) decl.Member {
	return decl.Member{Name: name, Kind: decl.KindFunction, Params: params}
}

func wild(name, typ string) decl.Param {
	return decl.Param{Label: decl.Wildcard, Name: name, Type: typ}
}

func labelled(label, name, typ string) decl.Param {
	return decl.Param{Label: label, Name: name, Type: typ}
}

func TestAssign_UniqueNameUnchanged(t *testing.T) {
	m := Assign([]decl.Member{fn("performRequest"), fn("cancel", wild("id", "UUID"))})
	assert.Equal(t, []string{"performRequest", "cancel"}, m.Names())
}

func TestAssign_WildcardUsesInternalName(t *testing.T) {
	m := Assign([]decl.Member{
		fn("log", wild("error", "SomeError")),
		fn("log", wild("checkpoint", "SomeCheckpoint")),
	})
	assert.Equal(t, "log", m.Name(0))
	assert.Equal(t, "logCheckpoint", m.Name(1))
}

func TestAssign_ExtendsOneLabelAtATime(t *testing.T) {
	members := []decl.Member{
		fn("reportError", wild("error", "Error")),
		fn("reportError", wild("error", "Error"), labelled("description", "description", "String")),
		fn("reportError", wild("error", "Error"), labelled("metadata", "metadata", "[String: Any]?")),
		fn("reportError", wild("error", "Error"), labelled("metadata", "metadata", "[String: Any]?"),
			labelled("completion", "completion", "@escaping () -> Void")),
	}
	m := Assign(members)
	assert.Equal(t, []string{
		"reportError",
		"reportErrorError",
		"reportErrorErrorMetadata",
		"reportErrorErrorMetadataCompletion",
	}, m.Names())
}

func TestAssign_FewerParamsFirst(t *testing.T) {
	m := Assign([]decl.Member{
		fn("fetch", labelled("url", "url", "URL"), labelled("timeout", "timeout", "Int")),
		fn("fetch", labelled("url", "url", "URL")),
	})
	assert.Equal(t, "fetchUrl", m.Name(0))
	assert.Equal(t, "fetch", m.Name(1))
}

func TestAssign_SetOverloads(t *testing.T) {
	forKey := labelled("forKey", "defaultName", "String")
	members := []decl.Member{
		fn("set", wild("value", "Any?"), forKey),
		fn("set", wild("url", "URL?"), forKey),
		fn("set", wild("value", "Int"), forKey),
		fn("set", wild("value", "Bool"), forKey),
		fn("set", wild("value", "Double"), forKey),
	}
	m := Assign(members)
	assert.Equal(t, []string{"set", "setUrl", "setValue", "setValueForKey", "setValueForKey1"}, m.Names())

	// Types are not part of the identity: four members share one.
	assert.Equal(t,
		[]string{"set", "setValue", "setValueForKey", "setValueForKey1"},
		m.Lookup(members[3].Identity()))
	assert.Equal(t, []string{"setUrl"}, m.Lookup(members[1].Identity()))
}

func TestAssign_NumericSuffixCountsPerBase(t *testing.T) {
	m := Assign([]decl.Member{
		fn("reset"),
		fn("reset"),
		fn("reset"),
		fn("log", wild("value", "Int")),
		fn("log", wild("value", "Int")),
		fn("log", wild("value", "Int")),
	})
	assert.Equal(t, []string{"reset", "reset1", "reset2", "log", "logValue", "logValue1"}, m.Names())
}

func TestAssign_CrossNameCollision(t *testing.T) {
	m := Assign([]decl.Member{
		fn("logCheckpoint"),
		fn("log", wild("error", "SomeError")),
		fn("log", wild("checkpoint", "SomeCheckpoint")),
	})
	// The non-overloaded member keeps its name; the overload steps around it.
	assert.Equal(t, "logCheckpoint", m.Name(0))
	assert.Equal(t, "log", m.Name(1))
	assert.Equal(t, "logCheckpoint1", m.Name(2))
}

func TestAssign_SingleOccurrenceKeepsName(t *testing.T) {
	members := []decl.Member{
		fn("sendData"),
		fn("send", wild("data", "Data")),
		fn("send", wild("data", "Data"), labelled("to", "peer", "Peer")),
		fn("sendDataTo", labelled("peer", "peer", "Peer")),
		fn("send"),
		fn("send1"),
		fn("flush"),
		{Name: "sendDataPeer", Kind: decl.KindProperty, Returns: "Peer"},
	}
	m := Assign(members)

	count := make(map[string]int)
	for _, member := range members {
		count[member.Name]++
	}
	seen := make(map[string]bool)
	for i, member := range members {
		if count[member.Name] == 1 {
			assert.Equal(t, member.Name, m.Name(i), "member %d", i)
		}
		assert.False(t, seen[m.Name(i)], "identifier %q assigned twice", m.Name(i))
		seen[m.Name(i)] = true
	}
	assert.Equal(t, "send", m.Name(4))
}

func TestAssign_Properties(t *testing.T) {
	m := Assign([]decl.Member{
		{Name: "title", Kind: decl.KindProperty, Returns: "String"},
		{Name: "count", Kind: decl.KindProperty, Returns: "Int"},
	})
	assert.Equal(t, []string{"title", "count"}, m.Names())
	assert.Equal(t, []string{"title"}, m.Lookup("title"))
}

func TestAssign_Empty(t *testing.T) {
	m := Assign(nil)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Names())
	assert.Nil(t, m.Lookup("missing()"))
}

func TestAssign_TotalUniqueDeterministic(t *testing.T) {
	var members []decl.Member
	for i := range 6 {
		members = append(members, fn("send"))
		members = append(members, fn("send", wild("data", "Data")))
		members = append(members, fn("send", wild("data", "Data"), labelled("to", fmt.Sprintf("peer%d", i), "Peer")))
		members = append(members, fn("sendData", labelled("to", "peer", "Peer")))
	}

	first := Assign(members)
	require.Equal(t, len(members), first.Len())

	seen := make(map[string]bool)
	for i := range first.Len() {
		name := first.Name(i)
		assert.NotEmpty(t, name)
		assert.False(t, seen[name], "identifier %q assigned twice", name)
		seen[name] = true
	}

	second := Assign(members)
	assert.Equal(t, first.Names(), second.Names())
}

func TestCapitalize(t *testing.T) {
	upper := cases.Upper(language.Und)
	tests := []struct {
		in, want string
	}{
		{"checkpoint", "Checkpoint"},
		{"forKey", "ForKey"},
		{"Already", "Already"},
		{"éclair", "Éclair"},
		{"_private", "_private"},
		{"9lives", "9lives"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, capitalize(upper, tt.in))
		})
	}
}
