package forensic_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicpipe/deidentify/internal/forensic"
	"github.com/forensicpipe/deidentify/internal/profile"
)

func newECSignerForTest(t *testing.T) *forensic.Signer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	signer, err := forensic.NewSignerFromPEM(pemBytes)
	require.NoError(t, err)
	return signer
}

func TestBuildAndValidateRoundTrip(t *testing.T) {
	signer := newECSignerForTest(t)
	verifier, err := forensic.NewVerifierFromSigner(signer)
	require.NoError(t, err)

	output := []byte("final redacted document bytes")
	in := forensic.BuildInput{
		InputFingerprint:  forensic.HashBytes([]byte("raw input")),
		OutputFingerprint: forensic.HashBytes(output),
		Profile:           profile.EffectiveProfile{Name: "default", Version: "1.0"},
		StartedAt:         time.Unix(1000, 0),
		FinishedAt:        time.Unix(1001, 0),
		Sequence:          1,
	}
	record, err := forensic.Build(in, signer)
	require.NoError(t, err)
	assert.Equal(t, signer.KeyID(), record.SignerKeyID)

	report := forensic.Validate(record, verifier, output, nil)
	assert.True(t, report.Valid)
	assert.True(t, report.SignatureVerified)
	assert.True(t, report.OutputFingerprintOK)
}

func TestValidateDetectsTamperedOutput(t *testing.T) {
	signer := newECSignerForTest(t)
	verifier, err := forensic.NewVerifierFromSigner(signer)
	require.NoError(t, err)

	output := []byte("original bytes")
	in := forensic.BuildInput{
		InputFingerprint:  forensic.HashBytes([]byte("raw input")),
		OutputFingerprint: forensic.HashBytes(output),
		Profile:           profile.EffectiveProfile{Name: "default"},
	}
	record, err := forensic.Build(in, signer)
	require.NoError(t, err)

	tampered := []byte("tampered bytes")
	report := forensic.Validate(record, verifier, tampered, nil)
	assert.False(t, report.Valid)
	assert.Contains(t, report.FirstMismatch, "output_fingerprint")
}

func TestValidateDetectsTamperedSignature(t *testing.T) {
	signer := newECSignerForTest(t)
	verifier, err := forensic.NewVerifierFromSigner(signer)
	require.NoError(t, err)

	in := forensic.BuildInput{
		InputFingerprint:  forensic.HashBytes([]byte("raw input")),
		OutputFingerprint: forensic.HashBytes([]byte("out")),
		Profile:           profile.EffectiveProfile{Name: "default"},
	}
	record, err := forensic.Build(in, signer)
	require.NoError(t, err)

	record.ToolVersion = record.ToolVersion + "-tampered" // mutate a signed field post-hoc
	report := forensic.Validate(record, verifier, nil, nil)
	assert.False(t, report.Valid)
	assert.Contains(t, report.FirstMismatch, "signature")
}
