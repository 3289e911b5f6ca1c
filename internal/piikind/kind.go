// Package piikind defines the closed enumeration of personally identifiable
// information kinds the pipeline can detect and redact (spec.md §3).
package piikind

// Kind is a stable string tag used in profiles, logs, and on-wire records.
type Kind string

// Visual kinds are produced only by a Visual Detector.
const (
	Face            Kind = "face"
	Signature       Kind = "signature"
	Barcode         Kind = "barcode"
	QRCode          Kind = "qr_code"
	PhotoIDPortrait Kind = "photo_id_portrait"
)

// Textual kinds are produced only by a Text Detector.
const (
	PersonName          Kind = "person_name"
	Email               Kind = "email"
	Phone               Kind = "phone"
	PostalAddress       Kind = "postal_address"
	NationalID          Kind = "national_id"
	MedicalRecordNumber Kind = "medical_record_number"
	FinancialAccount    Kind = "financial_account"
	DateOfBirth         Kind = "date_of_birth"
	IPAddress           Kind = "ip_address"
	LicensePlate        Kind = "license_plate"
)

// Visual is the set of visual kinds, in a stable order.
var Visual = []Kind{Face, Signature, Barcode, QRCode, PhotoIDPortrait}

// Textual is the set of textual kinds, in a stable order.
var Textual = []Kind{
	PersonName, Email, Phone, PostalAddress, NationalID,
	MedicalRecordNumber, FinancialAccount, DateOfBirth, IPAddress, LicensePlate,
}

// All is Visual followed by Textual.
var All = append(append([]Kind{}, Visual...), Textual...)

var known = func() map[Kind]bool {
	m := make(map[Kind]bool, len(All))
	for _, k := range All {
		m[k] = true
	}
	return m
}()

var visualSet = func() map[Kind]bool {
	m := make(map[Kind]bool, len(Visual))
	for _, k := range Visual {
		m[k] = true
	}
	return m
}()

// Known reports whether k is one of the closed set of recognized kinds.
func Known(k Kind) bool { return known[k] }

// IsVisual reports whether k belongs to the visual group.
func IsVisual(k Kind) bool { return visualSet[k] }

// IsTextual reports whether k belongs to the textual group.
func IsTextual(k Kind) bool { return known[k] && !visualSet[k] }
