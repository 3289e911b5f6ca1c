package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicpipe/deidentify/internal/piikind"
	"github.com/forensicpipe/deidentify/internal/profile"
)

func baseDoc() []byte {
	return []byte(`
name: default
version: "1.0"
default_style:
  kind: solid
  color: "#000000"
confidence_floor: 0.5
pii_rules:
  person_name:
    enabled: true
    min_confidence: 0.7
  email:
    enabled: true
    min_confidence: 0.6
  phone:
    enabled: true
    min_confidence: 0.6
`)
}

func childDoc() []byte {
	return []byte(`
name: no_email
base: default
pii_rules:
  email:
    enabled: false
    min_confidence: 0.6
`)
}

func TestResolveInheritance(t *testing.T) {
	store, err := profile.LoadStore([][]byte{baseDoc(), childDoc()})
	require.NoError(t, err)

	eff, err := store.Resolve("no_email")
	require.NoError(t, err)

	assert.False(t, eff.EffectiveRule(piikind.Email).Enabled)
	assert.True(t, eff.EffectiveRule(piikind.PersonName).Enabled)
	assert.Equal(t, 0.7, eff.EffectiveRule(piikind.PersonName).MinConfidence)
}

func TestResolveClampsToConfidenceFloor(t *testing.T) {
	doc := []byte(`
name: strict
confidence_floor: 0.9
pii_rules:
  email:
    enabled: true
    min_confidence: 0.5
`)
	store, err := profile.LoadStore([][]byte{doc})
	require.NoError(t, err)

	eff, err := store.Resolve("strict")
	require.NoError(t, err)
	assert.Equal(t, 0.9, eff.EffectiveRule(piikind.Email).MinConfidence)
}

func TestResolveDetectsCycle(t *testing.T) {
	a := []byte("name: a\nbase: b\n")
	b := []byte("name: b\nbase: a\n")
	store, err := profile.LoadStore([][]byte{a, b})
	require.NoError(t, err)

	_, err = store.Resolve("a")
	assert.Error(t, err)
}

func TestLoadRejectsUnknownOption(t *testing.T) {
	doc := []byte("name: x\nbogus_option: true\n")
	_, err := profile.Load(doc)
	assert.Error(t, err)
}

func TestResolveRejectsUnknownKind(t *testing.T) {
	doc := []byte(`
name: x
pii_rules:
  not_a_real_kind:
    enabled: true
    min_confidence: 0.5
`)
	store, err := profile.LoadStore([][]byte{doc})
	require.NoError(t, err)
	_, err = store.Resolve("x")
	assert.Error(t, err)
}
