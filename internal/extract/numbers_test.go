package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("numberToken", func() {
	It("accepts a digit run", func() {
		value, ok := numberToken(" 1234567 ")

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("1234567"))
	})

	It("accepts a digit run with an alphanumeric tail", func() {
		_, ok := numberToken("123456B2")

		Expect(ok).To(BeTrue())
	})

	It("rejects anything shorter than four characters", func() {
		_, ok := numberToken("123")

		Expect(ok).To(BeFalse())
	})

	It("rejects values that do not start with a digit", func() {
		_, ok := numberToken("A1234567")

		Expect(ok).To(BeFalse())
	})

	It("rejects values with separators", func() {
		_, ok := numberToken("12-34-56")

		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("fallbackNumberTokens", func() {
	It("collects digit runs of six or more", func() {
		Expect(fallbackNumberTokens("REPUBLIC 98765432 SAMPLE")).To(Equal([]string{"98765432"}))
	})

	It("collects letter-prefixed digit runs", func() {
		Expect(fallbackNumberTokens("passport P1234567 holder")).To(Equal([]string{"P1234567"}))
	})

	It("collects alphanumerics carrying five or more digits", func() {
		Expect(fallbackNumberTokens("AB12345 and AB1234")).To(Equal([]string{"AB12345"}))
	})

	It("keeps text order", func() {
		Expect(fallbackNumberTokens("111111 then 222222")).To(Equal([]string{"111111", "222222"}))
	})

	It("excludes tokens with date separators", func() {
		Expect(fallbackNumberTokens("11/10/2020 and 2020-06-15")).To(BeEmpty())
	})

	It("trims surrounding punctuation", func() {
		Expect(fallbackNumberTokens("(12345678).")).To(Equal([]string{"12345678"}))
	})
})

var _ = Describe("extractNumber", func() {
	var extractor *Extractor

	BeforeEach(func() {
		extractor = newTestExtractor()
	})

	It("resolves a labelled number at full confidence", func() {
		lines := []string{"Licence Number: 1234567"}
		spec := FieldSpec{Key: "licence number", Type: FieldNumber, MinLength: 7, MaxLength: 8}

		result := extractor.extractNumber(lines, lines[0], spec)

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("1234567"))
		Expect(result.Confidence).To(BeNumerically("==", 0.8))
	})

	It("rejects a labelled value with too few digits", func() {
		lines := []string{"Licence Number: 12AB"}

		result := extractor.extractNumber(lines, lines[0], FieldSpec{Key: "licence number", Type: FieldNumber})

		Expect(result.Found).To(BeFalse())
		Expect(result.Value).To(BeEmpty())
	})

	It("falls back to the first id-shaped token in the text", func() {
		lines := []string{"UTOPIA SPECIMEN", "serial 87654321 printed"}

		result := extractor.extractNumber(lines, "UTOPIA SPECIMEN\nserial 87654321 printed", FieldSpec{Key: "document number", Type: FieldNumber})

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("87654321"))
		Expect(result.Confidence).To(BeNumerically("==", 0.5))
	})

	It("honors length bounds in the fallback scan", func() {
		result := extractor.extractNumber([]string{"ref 999999999"}, "ref 999999999", FieldSpec{Key: "card number", Type: FieldNumber, MaxLength: 8})

		Expect(result.Found).To(BeFalse())
	})

	It("skips a too-short labelled value but keeps scanning", func() {
		lines := []string{"Card Number: 123", "backup 87654321"}
		spec := FieldSpec{Key: "card number", Type: FieldNumber, MinLength: 8}

		result := extractor.extractNumber(lines, "Card Number: 123\nbackup 87654321", spec)

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("87654321"))
		Expect(result.Confidence).To(BeNumerically("==", 0.5))
	})

	It("treats id fields the same as number fields", func() {
		lines := []string{"Personal No. 55555555"}

		result := extractor.extractNumber(lines, lines[0], FieldSpec{Key: "personal no.", Type: FieldID})

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("55555555"))
	})
})
