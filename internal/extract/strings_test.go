package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("stringToken", func() {
	It("accepts short prose", func() {
		value, ok := stringToken(" DOE ")

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("DOE"))
	})

	It("rejects single characters", func() {
		_, ok := stringToken("J")

		Expect(ok).To(BeFalse())
	})

	It("rejects purely numeric values", func() {
		_, ok := stringToken("1990")

		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("stripLabelEcho", func() {
	It("removes an exact label prefix", func() {
		Expect(stripLabelEcho("Surname DOE", "surname")).To(Equal("DOE"))
	})

	It("removes a label read without its spaces", func() {
		Expect(stripLabelEcho("GIVENNAMES JANE", "given names")).To(Equal("JANE"))
	})

	It("removes label words in any order", func() {
		Expect(stripLabelEcho("Names: Given JANE ANN", "given names")).To(Equal("JANE ANN"))
	})

	It("leaves a value without an echo alone", func() {
		Expect(stripLabelEcho("DOE SMITH", "surname")).To(Equal("DOE SMITH"))
	})

	It("collapses runs of whitespace", func() {
		Expect(stripLabelEcho("JANE   ANN", "surname")).To(Equal("JANE ANN"))
	})
})

var _ = Describe("acceptString", func() {
	var extractor *Extractor

	BeforeEach(func() {
		extractor = newTestExtractor()
	})

	It("accepts ordinary prose", func() {
		Expect(extractor.acceptString("SPRINGFIELD", FieldSpec{Key: "place of birth", Type: FieldString})).To(BeTrue())
	})

	It("rejects machine readable zone residue", func() {
		Expect(extractor.acceptString("P<UTODOE", FieldSpec{Key: "place of birth", Type: FieldString})).To(BeFalse())
	})

	It("rejects id-prefixed values", func() {
		Expect(extractor.acceptString("AB1234567", FieldSpec{Key: "address", Type: FieldString})).To(BeFalse())
	})

	It("rejects mostly numeric values", func() {
		Expect(extractor.acceptString("12345 X", FieldSpec{Key: "address", Type: FieldString})).To(BeFalse())
	})

	It("rejects bare boilerplate", func() {
		Expect(extractor.acceptString("PASSPORT", FieldSpec{Key: "remarks", Type: FieldString})).To(BeFalse())
	})

	It("limits nationality to three words of letters", func() {
		nationality := FieldSpec{Key: "nationality", Type: FieldString}

		Expect(extractor.acceptString("BRITISH CITIZEN", nationality)).To(BeTrue())
		Expect(extractor.acceptString("ONE TWO THREE FOUR", nationality)).To(BeFalse())
		Expect(extractor.acceptString("GBR1", nationality)).To(BeFalse())
	})

	It("requires two real words for name fields", func() {
		surname := FieldSpec{Key: "surname", Type: FieldString}

		Expect(extractor.acceptString("DOE JANE", surname)).To(BeTrue())
		Expect(extractor.acceptString("DOE", surname)).To(BeFalse())
		Expect(extractor.acceptString("J DOE", surname)).To(BeFalse())
	})
})

var _ = Describe("potentialName", func() {
	var extractor *Extractor

	BeforeEach(func() {
		extractor = newTestExtractor()
	})

	It("recognizes an all-caps name line", func() {
		Expect(extractor.potentialName("JANE MARY DOE")).To(BeTrue())
	})

	It("rejects mixed case", func() {
		Expect(extractor.potentialName("Jane Doe")).To(BeFalse())
	})

	It("rejects lines that are too short", func() {
		Expect(extractor.potentialName("JD")).To(BeFalse())
	})

	It("rejects machine readable zone residue", func() {
		Expect(extractor.potentialName("JANE<DOE")).To(BeFalse())
	})

	It("rejects digit-heavy lines", func() {
		Expect(extractor.potentialName("JANE 12345")).To(BeFalse())
	})

	It("rejects lines carrying boilerplate words", func() {
		Expect(extractor.potentialName("PASSPORT JANE")).To(BeFalse())
	})

	It("does not mistake boilerplate inside a longer word", func() {
		Expect(extractor.potentialName("RICARDO MARTINEZ")).To(BeTrue())
	})

	It("needs at least two words of two letters", func() {
		Expect(extractor.potentialName("J DOE")).To(BeFalse())
	})
})

var _ = Describe("extractString", func() {
	var extractor *Extractor

	BeforeEach(func() {
		extractor = newTestExtractor()
	})

	It("resolves a labelled value at full confidence", func() {
		result := extractor.extractString([]string{"Surname: DOE SMITH"}, FieldSpec{Key: "surname", Type: FieldString})

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("DOE SMITH"))
		Expect(result.Confidence).To(BeNumerically("==", 0.8))
	})

	It("strips a label echo off a lookahead value", func() {
		lines := []string{"Given Names", "Given Names JANE ANN"}

		result := extractor.extractString(lines, FieldSpec{Key: "given names", Type: FieldString})

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("JANE ANN"))
	})

	It("falls back to a printed name line for name fields", func() {
		lines := []string{"REPUBLIC OF UTOPIA", "P<UTODOE<<JANE<<<<", "JANE MARY DOE"}

		result := extractor.extractString(lines, FieldSpec{Key: "full name", Type: FieldString})

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("JANE MARY DOE"))
		Expect(result.Confidence).To(BeNumerically("==", 0.7))
	})

	It("uses the name fallback when the labelled value is unusable", func() {
		lines := []string{"Surname", "P<UTODOE<<JANE<<<<", "DOE JANE"}

		result := extractor.extractString(lines, FieldSpec{Key: "surname", Type: FieldString})

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("DOE JANE"))
		Expect(result.Confidence).To(BeNumerically("==", 0.7))
	})

	It("offers no fallback for non-name fields", func() {
		result := extractor.extractString([]string{"JANE MARY DOE"}, FieldSpec{Key: "address", Type: FieldString})

		Expect(result.Found).To(BeFalse())
	})

	It("consults alternative keys", func() {
		lines := []string{"Apellidos: DOE SMITH"}
		spec := FieldSpec{Key: "surname", Type: FieldString, AlternativeKeys: []string{"apellidos"}}

		result := extractor.extractString(lines, spec)

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("DOE SMITH"))
	})
})
