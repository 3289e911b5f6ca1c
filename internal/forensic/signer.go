package forensic

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

// SignatureAlgorithm enumerates the two signing schemes spec.md §4.7
// permits.
type SignatureAlgorithm string

const (
	AlgorithmRSAPSSSHA256   SignatureAlgorithm = "RSA-PSS-SHA256"
	AlgorithmECDSAP256SHA256 SignatureAlgorithm = "ECDSA-P256-SHA256"
)

// Signer holds a private key scoped to one signing operation and signs
// the SHA-256 digest of the canonical bytes it is given. Grounded on the teacher's PDFSigner
// (internal/pdf/signature.go): PEM/x509/PKCS8 key loading generalized from
// RSA-only to an RSA-PSS/ECDSA-P256 dual-algorithm signer, since the
// teacher signs CMS/PKCS#7 structures and this signs a JCS-canonicalized
// audit record instead.
type Signer struct {
	algorithm SignatureAlgorithm
	keyID     string
	rsaKey    *rsa.PrivateKey
	ecKey     *ecdsa.PrivateKey
}

// NewSignerFromPEM parses a PEM-encoded PKCS8 private key and derives the
// signer's algorithm from its concrete key type: RSA keys sign
// RSA-PSS-SHA256, P-256 EC keys sign ECDSA-P256-SHA256.
func NewSignerFromPEM(pemBytes []byte) (*Signer, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in key material")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pkcs8 private key: %w", err)
	}

	switch k := key.(type) {
	case *rsa.PrivateKey:
		keyID, err := spkiKeyID(&k.PublicKey)
		if err != nil {
			return nil, err
		}
		return &Signer{algorithm: AlgorithmRSAPSSSHA256, keyID: keyID, rsaKey: k}, nil
	case *ecdsa.PrivateKey:
		if k.Curve != elliptic.P256() {
			return nil, fmt.Errorf("unsupported EC curve %s: only P-256 is supported", k.Curve.Params().Name)
		}
		keyID, err := spkiKeyID(&k.PublicKey)
		if err != nil {
			return nil, err
		}
		return &Signer{algorithm: AlgorithmECDSAP256SHA256, keyID: keyID, ecKey: k}, nil
	default:
		return nil, fmt.Errorf("unsupported private key type %T", key)
	}
}

// Algorithm reports which SignatureAlgorithm this signer will produce.
func (s *Signer) Algorithm() SignatureAlgorithm { return s.algorithm }

// KeyID is the signer_key_id spec.md §4.7 requires: a truncated SHA-256 of
// the key's SPKI DER encoding, stable across process restarts for the same
// key and independent of any certificate wrapping it.
func (s *Signer) KeyID() string { return s.keyID }

// Sign computes the digest of canonical (the JCS-canonicalized record
// bytes) and signs it per the signer's algorithm.
func (s *Signer) Sign(canonical []byte) ([]byte, error) {
	digest := sha256.Sum256(canonical)
	switch s.algorithm {
	case AlgorithmRSAPSSSHA256:
		return rsa.SignPSS(rand.Reader, s.rsaKey, crypto.SHA256, digest[:], &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	case AlgorithmECDSAP256SHA256:
		return ecdsa.SignASN1(rand.Reader, s.ecKey, digest[:])
	default:
		return nil, fmt.Errorf("signer holds no usable key")
	}
}

// Zero overwrites the key-handle's in-memory secret material. Go's garbage
// collector does not guarantee prompt reclamation, so this only bounds how
// long the bytes are readable, not that they are unrecoverable the instant
// Zero returns.
func (s *Signer) Zero() {
	if s.rsaKey != nil {
		s.rsaKey.D.SetInt64(0)
		for _, p := range s.rsaKey.Primes {
			p.SetInt64(0)
		}
	}
	if s.ecKey != nil {
		s.ecKey.D.SetInt64(0)
	}
}

// Verifier holds a public key for signature verification, looked up by
// signer_key_id during audit validation.
type Verifier struct {
	algorithm SignatureAlgorithm
	keyID     string
	rsaPub    *rsa.PublicKey
	ecPub     *ecdsa.PublicKey
}

// NewVerifierFromSigner derives the public-key counterpart of s, the
// common case where the same process that signed also validates.
func NewVerifierFromSigner(s *Signer) (*Verifier, error) {
	switch s.algorithm {
	case AlgorithmRSAPSSSHA256:
		return &Verifier{algorithm: s.algorithm, keyID: s.keyID, rsaPub: &s.rsaKey.PublicKey}, nil
	case AlgorithmECDSAP256SHA256:
		return &Verifier{algorithm: s.algorithm, keyID: s.keyID, ecPub: &s.ecKey.PublicKey}, nil
	default:
		return nil, fmt.Errorf("signer holds no usable key")
	}
}

// NewVerifierFromPublicKeyPEM parses a PEM-encoded SPKI public key for
// out-of-process audit validation (spec.md §4.7 Validate, step 1).
func NewVerifierFromPublicKeyPEM(pemBytes []byte, algorithm SignatureAlgorithm) (*Verifier, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in key material")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	switch k := pub.(type) {
	case *rsa.PublicKey:
		keyID, err := spkiKeyID(k)
		if err != nil {
			return nil, err
		}
		return &Verifier{algorithm: AlgorithmRSAPSSSHA256, keyID: keyID, rsaPub: k}, nil
	case *ecdsa.PublicKey:
		keyID, err := spkiKeyID(k)
		if err != nil {
			return nil, err
		}
		return &Verifier{algorithm: AlgorithmECDSAP256SHA256, keyID: keyID, ecPub: k}, nil
	default:
		_ = algorithm
		return nil, fmt.Errorf("unsupported public key type %T", pub)
	}
}

// KeyID matches the signer_key_id a Signer produced from the same key.
func (v *Verifier) KeyID() string { return v.keyID }

// Verify checks signature over canonical's SHA-256 digest.
func (v *Verifier) Verify(canonical, signature []byte) error {
	digest := sha256.Sum256(canonical)
	switch v.algorithm {
	case AlgorithmRSAPSSSHA256:
		return rsa.VerifyPSS(v.rsaPub, crypto.SHA256, digest[:], signature, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	case AlgorithmECDSAP256SHA256:
		if !ecdsa.VerifyASN1(v.ecPub, digest[:], signature) {
			return fmt.Errorf("ecdsa signature verification failed")
		}
		return nil
	default:
		return fmt.Errorf("verifier holds no usable key")
	}
}

// spkiKeyID derives signer_key_id as a truncated SHA-256 over the key's
// SubjectPublicKeyInfo DER encoding (spec.md §4.7), independent of any
// certificate that might wrap the key.
func spkiKeyID(pub any) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:16]), nil
}
