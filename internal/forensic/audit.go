// Package forensic implements the cryptographic primitives and Forensic
// Audit Engine (spec.md §4.7, §3 AuditRecord, components H/I): content
// hashing, RSA-PSS/ECDSA-P256 signing over an RFC 8785 canonical form, and
// the construction/validation of the signed, chainable AuditRecord every
// processed document produces exactly one of.
package forensic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/forensicpipe/deidentify/internal/model"
	"github.com/forensicpipe/deidentify/internal/profile"
)

// ToolVersion identifies the pipeline build that produced an AuditRecord.
// Overridable at link time in a real build pipeline; fixed here since this
// module has no build-info injection step of its own.
var ToolVersion = "deidentify-core/dev"

// ProfileSnapshot inlines the resolved profile an AuditRecord binds to, so
// the record is self-contained even if the named profile is later edited.
type ProfileSnapshot struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	ConfidenceFloor float64  `json:"confidence_floor"`
	PrecedenceNotes []string `json:"precedence_notes,omitempty"`
}

// DegradedRedaction records one box that fell back to Solid/black because
// its configured style failed to render (spec.md §4.6 failure model).
type DegradedRedaction struct {
	PageIndex   int    `json:"page_index"`
	DetectionID string `json:"detection_id"`
	Kind        string `json:"kind"`
	Reason      string `json:"reason"`
}

// Timestamps captures wall-clock start/finish plus a monotonic sequence
// counter, so two audit records produced within the same wall-clock
// second remain orderable (spec.md §4.7 "monotonic wall-clock + a
// monotonic counter").
type Timestamps struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Sequence   uint64    `json:"sequence"`
}

// AuditRecord is the signed, tamper-evident record of one document's
// processing (spec.md §4.7). Every field but Signature is covered by the
// signature; Signature is computed last over the canonical JSON of all
// preceding fields.
type AuditRecord struct {
	DocumentID               string              `json:"document_id"`
	InputFingerprint         string              `json:"input_fingerprint"`
	OutputFingerprint        string              `json:"output_fingerprint"`
	PerPageOutputFingerprints []string           `json:"per_page_output_fingerprints"`
	Profile                   ProfileSnapshot    `json:"profile"`
	Detections                []model.Detection  `json:"detections"`
	DegradedRedactions        []DegradedRedaction `json:"degraded_redactions,omitempty"`
	Timestamps                Timestamps         `json:"timestamps"`
	ToolVersion               string             `json:"tool_version"`
	ModelTags                 []string           `json:"model_tags"`
	PreviousAuditID           string             `json:"previous_audit_id,omitempty"`
	SignerKeyID               string             `json:"signer_key_id"`
	SignatureAlgorithm        SignatureAlgorithm `json:"signature_algorithm"`

	Signature []byte `json:"signature,omitempty"`
}

// signingFields returns the AuditRecord with Signature cleared, the exact
// byte-for-byte shape the signature is computed over and must be
// reconstructed for verification.
func (a AuditRecord) signingFields() AuditRecord {
	a.Signature = nil
	return a
}

// BuildInput carries everything Build needs to assemble one AuditRecord.
type BuildInput struct {
	InputFingerprint          [32]byte
	OutputFingerprint         [32]byte
	PerPageOutputFingerprints [][32]byte
	Profile                   profile.EffectiveProfile
	Detections                []model.Detection
	// DegradedRedactions is pre-filtered by the caller to entries that
	// actually degraded (redact.Report/AppliedBox carries page index at
	// the Report level, which the Processor attaches before passing
	// entries here).
	DegradedRedactions        []DegradedRedaction
	StartedAt                 time.Time
	FinishedAt                time.Time
	Sequence                  uint64
	ModelTags                 []string
	PreviousAuditID           string
}

// Build assembles and signs a new AuditRecord with signer. It never
// mutates a prior record (spec.md §4.7 chain of custody): reprocessing a
// document produces a new record whose PreviousAuditID links backward.
func Build(in BuildInput, signer *Signer) (AuditRecord, error) {
	pageFps := make([]string, len(in.PerPageOutputFingerprints))
	for i, fp := range in.PerPageOutputFingerprints {
		pageFps[i] = hex.EncodeToString(fp[:])
	}

	record := AuditRecord{
		DocumentID:                uuid.NewString(),
		InputFingerprint:          hex.EncodeToString(in.InputFingerprint[:]),
		OutputFingerprint:         hex.EncodeToString(in.OutputFingerprint[:]),
		PerPageOutputFingerprints: pageFps,
		Profile: ProfileSnapshot{
			Name:            in.Profile.Name,
			Version:         in.Profile.Version,
			ConfidenceFloor: in.Profile.ConfidenceFloor,
			PrecedenceNotes: in.Profile.PrecedenceNotes,
		},
		Detections:         in.Detections,
		DegradedRedactions: in.DegradedRedactions,
		Timestamps: Timestamps{
			StartedAt:  in.StartedAt,
			FinishedAt: in.FinishedAt,
			Sequence:   in.Sequence,
		},
		ToolVersion:         ToolVersion,
		ModelTags:           in.ModelTags,
		PreviousAuditID:     in.PreviousAuditID,
		SignerKeyID:         signer.KeyID(),
		SignatureAlgorithm:  signer.Algorithm(),
	}

	canonical, err := canonicalSigningInput(record.signingFields())
	if err != nil {
		return AuditRecord{}, fmt.Errorf("canonicalize audit record: %w", err)
	}
	sig, err := signer.Sign(canonical)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("sign audit record: %w", err)
	}
	record.Signature = sig
	return record, nil
}

// HashBytes returns the SHA-256 digest of b, the fingerprint primitive
// used for both input_fingerprint and output_fingerprint (spec.md §4.7).
func HashBytes(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// HashReader streams r through SHA-256 without buffering its full
// contents, for the "stream through a hasher" input path spec.md §4.8
// step 1 describes.
func HashReader(r io.Reader) ([32]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// ValidationReport is the structured diagnostic spec.md §4.7 Validate
// requires: it names what failed without echoing back Detection.Text or
// other sensitive payload content.
type ValidationReport struct {
	Valid              bool   `json:"valid"`
	FirstMismatch      string `json:"first_mismatch,omitempty"`
	SignatureVerified  bool   `json:"signature_verified"`
	OutputFingerprintOK bool  `json:"output_fingerprint_ok"`
	PagesChecked       int    `json:"pages_checked"`
	PageMismatches     []int  `json:"page_mismatches,omitempty"`
}

// Validate runs the four checks spec.md §4.7 "Validation" names, in order,
// stopping at (and reporting) the first mismatch.
func Validate(record AuditRecord, verifier *Verifier, outputBytes []byte, perPageRasterBytes [][]byte) ValidationReport {
	if verifier.KeyID() != record.SignerKeyID {
		return ValidationReport{FirstMismatch: "signer_key_id does not match supplied verifier"}
	}

	canonical, err := canonicalSigningInput(record.signingFields())
	if err != nil {
		return ValidationReport{FirstMismatch: "failed to canonicalize record for verification"}
	}
	if err := verifier.Verify(canonical, record.Signature); err != nil {
		return ValidationReport{FirstMismatch: "signature verification failed", SignatureVerified: false}
	}

	report := ValidationReport{SignatureVerified: true}

	if outputBytes != nil {
		sum := HashBytes(outputBytes)
		if hex.EncodeToString(sum[:]) != record.OutputFingerprint {
			report.FirstMismatch = "output_fingerprint mismatch"
			return report
		}
		report.OutputFingerprintOK = true
	}

	for i, raster := range perPageRasterBytes {
		report.PagesChecked++
		if i >= len(record.PerPageOutputFingerprints) {
			break
		}
		sum := HashBytes(raster)
		if hex.EncodeToString(sum[:]) != record.PerPageOutputFingerprints[i] {
			report.PageMismatches = append(report.PageMismatches, i)
		}
	}
	if len(report.PageMismatches) > 0 {
		report.FirstMismatch = fmt.Sprintf("per-page fingerprint mismatch at page %d", report.PageMismatches[0])
		return report
	}

	report.Valid = true
	return report
}
