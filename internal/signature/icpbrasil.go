package signature

import (
	"crypto/x509"
	"encoding/asn1"
	"strings"

	"github.com/rezonia/fiscal-br/internal/document"
)

var (
	oidSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}
	// ICP-Brasil otherName carrying the CNPJ of a legal-entity certificate
	oidICPBrasilCNPJ = asn1.ObjectIdentifier{2, 16, 76, 1, 3, 3}
)

// SignerName returns the holder name of an ICP-Brasil certificate. e-CNPJ
// common names have the form "RAZAO SOCIAL:CNPJ"; the suffix is dropped.
func SignerName(cert *x509.Certificate) string {
	cn := cert.Subject.CommonName
	if i := strings.LastIndexByte(cn, ':'); i >= 0 && len(document.Clean(cn[i+1:])) == document.CNPJLength {
		return strings.TrimSpace(cn[:i])
	}
	return cn
}

// SignerCNPJ extracts the CNPJ of an e-CNPJ certificate, from the ICP-Brasil
// subject alternative name when present, otherwise from the common name.
// It returns "" for certificates that carry no CNPJ.
func SignerCNPJ(cert *x509.Certificate) string {
	if cnpj := cnpjFromSAN(cert); cnpj != "" {
		return cnpj
	}

	cn := cert.Subject.CommonName
	if i := strings.LastIndexByte(cn, ':'); i >= 0 {
		if digits := document.Clean(cn[i+1:]); len(digits) == document.CNPJLength {
			return digits
		}
	}
	return ""
}

func cnpjFromSAN(cert *x509.Certificate) string {
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(oidSubjectAltName) {
			continue
		}

		var names asn1.RawValue
		if _, err := asn1.Unmarshal(ext.Value, &names); err != nil {
			return ""
		}

		rest := names.Bytes
		for len(rest) > 0 {
			var name asn1.RawValue
			var err error
			if rest, err = asn1.Unmarshal(rest, &name); err != nil {
				return ""
			}
			// otherName is [0]
			if name.Class != asn1.ClassContextSpecific || name.Tag != 0 {
				continue
			}
			if cnpj := otherNameCNPJ(name.Bytes); cnpj != "" {
				return cnpj
			}
		}
	}
	return ""
}

// otherNameCNPJ decodes "type-id OID, [0] EXPLICIT value"
func otherNameCNPJ(der []byte) string {
	var typeID asn1.ObjectIdentifier
	rest, err := asn1.Unmarshal(der, &typeID)
	if err != nil || !typeID.Equal(oidICPBrasilCNPJ) {
		return ""
	}

	var wrapper asn1.RawValue
	if _, err := asn1.Unmarshal(rest, &wrapper); err != nil {
		return ""
	}
	var value asn1.RawValue
	if _, err := asn1.Unmarshal(wrapper.Bytes, &value); err != nil {
		return ""
	}

	digits := document.Clean(string(value.Bytes))
	if len(digits) != document.CNPJLength {
		return ""
	}
	return digits
}
