package forensic_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicpipe/deidentify/internal/forensic"
	"github.com/forensicpipe/deidentify/internal/profile"
)

func TestPersistAndLoadRecordRoundTrip(t *testing.T) {
	signer := newECSignerForTest(t)
	verifier, err := forensic.NewVerifierFromSigner(signer)
	require.NoError(t, err)

	output := []byte("document output")
	record, err := forensic.Build(forensic.BuildInput{
		InputFingerprint:  forensic.HashBytes([]byte("in")),
		OutputFingerprint: forensic.HashBytes(output),
		Profile:           profile.EffectiveProfile{Name: "p"},
	}, signer)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, record.Persist(&buf))

	loaded, err := forensic.LoadRecord(&buf)
	require.NoError(t, err)

	report := forensic.Validate(loaded, verifier, output, nil)
	assert.True(t, report.Valid)
}
