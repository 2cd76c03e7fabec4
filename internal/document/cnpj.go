package document

// ValidateCNPJ checks a CNPJ. Punctuation is ignored.
func ValidateCNPJ(cnpj string) Result {
	clean := Clean(cnpj)

	if len(clean) != CNPJLength {
		return invalid(clean, ErrCNPJLength)
	}
	if allSameDigit(clean) {
		return invalid(clean, ErrCNPJRepeated)
	}
	if mod11CheckDigit(clean[:12]) != digitAt(clean, 12) {
		return invalid(clean, ErrFirstCheckDigit)
	}
	if mod11CheckDigit(clean[:13]) != digitAt(clean, 13) {
		return invalid(clean, ErrSecondCheckDigit)
	}

	return Result{Valid: true, Formatted: FormatCNPJ(clean)}
}

// FormatCNPJ renders 14 digits as ##.###.###/####-##. Other input is returned as is.
func FormatCNPJ(digits string) string {
	if len(digits) != CNPJLength {
		return digits
	}
	return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
}
