package identity_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lineage/pkg/identity"
)

const (
	alice     = "alice@x"
	aliceWork = "alice@work"
	bob       = "bob@x"
	carol     = "carol@x"
)

func TestAliases_ResolveChain(t *testing.T) {
	t.Parallel()

	aliases := identity.New()
	aliases.Set(alice, aliceWork)

	require.NoError(t, aliases.Validate())
	assert.Equal(t, aliceWork, aliases.Resolve(alice))
	assert.Equal(t, bob, aliases.Resolve(bob))

	aliases.Set(aliceWork, carol)
	assert.Equal(t, carol, aliases.Resolve(alice))
	assert.Equal(t, carol, aliases.Resolve(aliceWork))
}

func TestAliases_ResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	aliases := identity.New()
	aliases.Merge(map[string]string{alice: aliceWork, aliceWork: carol, bob: carol})
	require.NoError(t, aliases.Validate())

	for _, who := range []string{alice, aliceWork, bob, carol, "dave@x"} {
		once := aliases.Resolve(who)
		assert.Equal(t, once, aliases.Resolve(once), who)
	}
}

func TestAliases_ValidateDetectsCycles(t *testing.T) {
	t.Parallel()

	aliases := identity.New()
	aliases.Merge(map[string]string{alice: bob, bob: alice})

	err := aliases.Validate()
	require.ErrorIs(t, err, identity.ErrAliasCycle)
	assert.Contains(t, err.Error(), "author loop detected containing")

	self := identity.New()
	self.Set(carol, carol)

	err = self.Validate()
	require.ErrorIs(t, err, identity.ErrAliasCycle)
	assert.Contains(t, err.Error(), carol)
}

func TestAliases_ValidateAcceptsSharedTails(t *testing.T) {
	t.Parallel()

	aliases := identity.New()
	aliases.Merge(map[string]string{"a": "c", "b": "c", "c": "d", "e": "a"})

	require.NoError(t, aliases.Validate())
	assert.Equal(t, "d", aliases.Resolve("e"))
}

func TestAliases_ResolveTerminatesOnCycle(t *testing.T) {
	t.Parallel()

	aliases := identity.New()
	aliases.Merge(map[string]string{alice: bob, bob: alice})

	assert.Contains(t, []string{alice, bob}, aliases.Resolve(alice))
}

func TestParseRename(t *testing.T) {
	t.Parallel()

	from, to, err := identity.ParseRename("alice@x = alice@work")
	require.NoError(t, err)
	assert.Equal(t, alice, from)
	assert.Equal(t, aliceWork, to)

	for _, bad := range []string{"alice", "=x", "x=", ""} {
		_, _, err = identity.ParseRename(bad)
		require.ErrorIs(t, err, identity.ErrInvalidRename, bad)
	}
}

func TestBuild_Precedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("alice@x: bob@x\ncarol@x: bob@x\n"), 0o600))

	aliases, err := identity.Build(
		map[string]string{alice: carol, "dave@x": bob},
		[]string{path},
		[]string{"alice@x=alice@work"},
	)
	require.NoError(t, err)

	assert.Equal(t, aliceWork, aliases.Resolve(alice))
	assert.Equal(t, bob, aliases.Resolve(carol))
	assert.Equal(t, bob, aliases.Resolve("dave@x"))
	assert.Equal(t, 3, aliases.Len())
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	_, err := identity.Build(map[string]string{alice: alice}, nil, nil)
	require.ErrorIs(t, err, identity.ErrAliasCycle)

	_, err = identity.Build(nil, []string{filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	require.Error(t, err)

	_, err = identity.Build(nil, nil, []string{"nope"})
	require.ErrorIs(t, err, identity.ErrInvalidRename)
}
