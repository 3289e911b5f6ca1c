package forensic

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// envelope is the on-disk wire shape spec.md §6 "Audit Record on-disk
// format" names: the canonicalizable record nested under "record", with
// its signature and the key/algorithm needed to check it promoted to the
// envelope's outer level so a verifier can locate them without first
// parsing the inner object.
type envelope struct {
	Record             AuditRecord        `json:"record"`
	Signature          string             `json:"signature"`
	SignerKeyID        string             `json:"signer_key_id"`
	SignatureAlgorithm SignatureAlgorithm `json:"signature_algorithm"`
}

// Persist writes a to w in the envelope format spec.md §6 defines.
func (a AuditRecord) Persist(w io.Writer) error {
	env := envelope{
		Record:             a.signingFields(),
		Signature:          base64.StdEncoding.EncodeToString(a.Signature),
		SignerKeyID:        a.SignerKeyID,
		SignatureAlgorithm: a.SignatureAlgorithm,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// LoadRecord parses the envelope format back into an AuditRecord, the
// form Validate operates on.
func LoadRecord(r io.Reader) (AuditRecord, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return AuditRecord{}, fmt.Errorf("decode audit envelope: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(env.Signature)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("decode signature: %w", err)
	}
	record := env.Record
	record.Signature = sig
	record.SignerKeyID = env.SignerKeyID
	record.SignatureAlgorithm = env.SignatureAlgorithm
	return record, nil
}
