package document

// ValidateCPF checks a CPF. Punctuation is ignored.
func ValidateCPF(cpf string) Result {
	clean := Clean(cpf)

	if len(clean) != CPFLength {
		return invalid(clean, ErrCPFLength)
	}
	if allSameDigit(clean) {
		return invalid(clean, ErrCPFRepeated)
	}
	if cpfCheckDigit(clean[:9]) != digitAt(clean, 9) {
		return invalid(clean, ErrFirstCheckDigit)
	}
	if cpfCheckDigit(clean[:10]) != digitAt(clean, 10) {
		return invalid(clean, ErrSecondCheckDigit)
	}

	return Result{Valid: true, Formatted: FormatCPF(clean)}
}

// FormatCPF renders 11 digits as ###.###.###-##. Other input is returned as is.
func FormatCPF(digits string) string {
	if len(digits) != CPFLength {
		return digits
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}
