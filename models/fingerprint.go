package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is what two pending requests must share to be duplicates:
// the same type, the same subject or executable, and equal values for Fields.
type Fingerprint struct {
	Type        RequestType
	SubjectType *string
	SubjectID   *string
	Executable  *string
	Fields      map[string]any
}

// Identity hashes everything except Fields. It is stored on the request
// so candidates can be narrowed by index before comparing payload values.
func (f Fingerprint) Identity() string {
	h := sha256.New()
	h.Write([]byte(f.Type))
	for _, part := range []*string{f.SubjectType, f.SubjectID, f.Executable} {
		h.Write([]byte{'\n'})
		if part != nil {
			h.Write([]byte{1})
			h.Write([]byte(*part))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IdentityOf returns the identity hash for the columns already set on r.
func IdentityOf(r *Request) string {
	return Fingerprint{
		Type:        r.Type,
		SubjectType: r.SubjectType,
		SubjectID:   r.SubjectID,
		Executable:  r.Executable,
	}.Identity()
}
