package document

// mod11Weights returns the weights for an n-digit prefix under the modulo-11
// scheme shared by CNPJ and NF-e keys: the rightmost digit gets 2, weights grow
// leftward up to 9 and then wrap back to 2.
//
// For n=12 this yields 5,4,3,2,9,8,7,6,5,4,3,2.
func mod11Weights(n int) []int {
	weights := make([]int, n)
	for i := 0; i < n; i++ {
		weights[n-1-i] = 2 + i%8
	}
	return weights
}

// mod11CheckDigit computes the check digit of digits: remainder < 2 gives 0,
// otherwise 11 - remainder.
func mod11CheckDigit(digits string) int {
	weights := mod11Weights(len(digits))
	sum := 0
	for i := range digits {
		sum += digitAt(digits, i) * weights[i]
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

// cpfCheckDigit computes a CPF check digit over digits with descending
// weights starting at len(digits)+1.
func cpfCheckDigit(digits string) int {
	n := len(digits)
	sum := 0
	for i := 0; i < n; i++ {
		sum += digitAt(digits, i) * (n + 1 - i)
	}
	rem := (sum * 10) % 11
	if rem == 10 || rem == 11 {
		return 0
	}
	return rem
}
