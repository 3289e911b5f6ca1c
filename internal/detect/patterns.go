package detect

import (
	"regexp"

	"github.com/forensicpipe/deidentify/internal/piikind"
)

// textPattern pairs a regex with the PIIKind it claims to find and a base
// confidence before any checksum validation runs. Grounded on
// rmasci-piiredact's Patterns map, generalized to the full textual kind
// enumeration this spec requires: ssn/credit_card/ip/dob/email/phone carry
// over near verbatim (national_id matches the US SSN shape only), while
// person_name/postal_address/medical_record_number/license_plate are new patterns written in
// the same terse single-regex style since no example repo covers them.
type textPattern struct {
	kind       piikind.Kind
	re         *regexp.Regexp
	baseConf   float64
	validate   func(string) bool // optional checksum; nil means pattern match alone is the signal
	confBoost  float64           // added to baseConf when validate passes
}

var textPatterns = []textPattern{
	{
		kind:     piikind.PersonName,
		re:       regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z]\.)?\s[A-Z][a-z]+\b`),
		baseConf: 0.3,
	},
	{
		kind:     piikind.Email,
		re:       regexp.MustCompile(`[\w.%+-]+@[\w.-]+\.\w{2,}`),
		baseConf: 0.85,
	},
	{
		kind:     piikind.Phone,
		re:       regexp.MustCompile(`(?i)\b(?:\+?1[\s\-.]?)?\(?\d{3}\)?[\s\-.]?\d{3}[\s\-.]?\d{4}\b`),
		baseConf: 0.6,
	},
	{
		kind:      piikind.NationalID,
		re:        regexp.MustCompile(`\b\d{3}[\s\-.]?\d{2}[\s\-.]?\d{4}\b`),
		baseConf:  0.4,
		validate:  validateSSN,
		confBoost: 0.4,
	},
	{
		kind:      piikind.FinancialAccount,
		re:        regexp.MustCompile(`\b(?:\d[\s-]?){13,16}\b`),
		baseConf:  0.35,
		validate:  validateLuhn,
		confBoost: 0.45,
	},
	{
		kind:     piikind.IPAddress,
		re:       regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`),
		baseConf: 0.7,
	},
	{
		kind:     piikind.DateOfBirth,
		re:       regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[\s\-.]?\d{1,2},?[\s\-.]?\d{2,4}\b`),
		baseConf: 0.55,
	},
	{
		kind:     piikind.PostalAddress,
		re:       regexp.MustCompile(`\b\d{1,5}\s+[A-Za-z0-9.\s]{3,30}\s(?:St|Street|Ave|Avenue|Rd|Road|Blvd|Dr|Drive|Ln|Lane)\b`),
		baseConf: 0.45,
	},
	{
		kind:     piikind.MedicalRecordNumber,
		re:       regexp.MustCompile(`(?i)\bMRN[\s:#-]*\d{5,10}\b`),
		baseConf: 0.75,
	},
	{
		kind:     piikind.LicensePlate,
		re:       regexp.MustCompile(`\b[A-Z]{1,3}[\s-]?\d{3,4}[A-Z]?\b`),
		baseConf: 0.3,
	},
}
