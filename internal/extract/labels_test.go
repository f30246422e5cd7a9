package extract

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("lineContainsKey", func() {
	It("matches every key word as a substring, case-insensitively", func() {
		Expect(lineContainsKey("SURNAME DOE", "surname")).To(BeTrue())
		Expect(lineContainsKey("Surnames", "surname")).To(BeTrue())
		Expect(lineContainsKey("GIVEN NAMES", "surname")).To(BeFalse())
	})

	It("requires all words of a multi-word key", func() {
		Expect(lineContainsKey("Date of Birth: 12/05/1990", "date of birth")).To(BeTrue())
		Expect(lineContainsKey("Date of Issue", "date of birth")).To(BeFalse())
	})

	It("accepts spelling variants of licence", func() {
		Expect(lineContainsKey("DRIVER LICENSE", "licence")).To(BeTrue())
		Expect(lineContainsKey("DRIVER LICENCE", "license")).To(BeTrue())
	})

	It("counts abbreviations as the word number", func() {
		Expect(lineContainsKey("Licence No. 123456", "licence number")).To(BeTrue())
		Expect(lineContainsKey("Licence Num. 123456", "licence number")).To(BeTrue())
		Expect(lineContainsKey("Licence # 123456", "licence number")).To(BeTrue())
		Expect(lineContainsKey("Licence plate", "licence number")).To(BeFalse())
	})

	It("counts dt as the word date", func() {
		Expect(lineContainsKey("EXPIRY DT 01/01/2030", "expiry date")).To(BeTrue())
	})
})

var _ = Describe("labelValuePattern", func() {
	It("captures the rest of the line after the key", func() {
		m := labelValuePattern("surname").FindStringSubmatch("Surname: DOE SMITH")

		Expect(m).NotTo(BeNil())
		Expect(m[1]).To(Equal("DOE SMITH"))
	})

	It("tolerates a dash separator", func() {
		m := labelValuePattern("date of birth").FindStringSubmatch("Date of Birth - 12/05/1990")

		Expect(m).NotTo(BeNil())
		Expect(m[1]).To(Equal("12/05/1990"))
	})

	It("matches abbreviated number labels", func() {
		m := labelValuePattern("licence number").FindStringSubmatch("Licence No. 1234567")

		Expect(m).NotTo(BeNil())
		Expect(m[1]).To(Equal("1234567"))
	})

	It("does not split a longer word to find the key", func() {
		m := labelValuePattern("name").FindStringSubmatch("Names: JANE")

		Expect(m).To(BeNil())
	})

	It("returns nil for a blank key", func() {
		Expect(labelValuePattern("   ")).To(BeNil())
	})
})

var _ = Describe("searchLabel", func() {
	var extractor *Extractor

	anyValue := func(s string) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	BeforeEach(func() {
		extractor = newTestExtractor()
	})

	It("finds a same-line value at full confidence", func() {
		value, confidence, ok := extractor.searchLabel([]string{"Licence No. 1234567"}, "licence number", anyValue)

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("1234567"))
		Expect(confidence).To(BeNumerically("==", 0.8))
	})

	It("looks ahead to the next line at reduced confidence", func() {
		value, confidence, ok := extractor.searchLabel([]string{"Licence Number", "1234567"}, "licence number", anyValue)

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("1234567"))
		Expect(confidence).To(BeNumerically("~", 0.7, 1e-9))
	})

	It("charges skipped blank lines against the confidence", func() {
		_, confidence, ok := extractor.searchLabel([]string{"Licence Number", "", "1234567"}, "licence number", anyValue)

		Expect(ok).To(BeTrue())
		Expect(confidence).To(BeNumerically("~", 0.6, 1e-9))
	})

	It("skips lines that carry their own label", func() {
		value, _, ok := extractor.searchLabel([]string{"Place of Birth", "Type: P", "SPRINGFIELD"}, "place of birth", anyValue)

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("SPRINGFIELD"))
	})

	It("skips bare boilerplate lines", func() {
		value, _, ok := extractor.searchLabel([]string{"Surname", "PASSPORT", "DOE JANE"}, "surname", anyValue)

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("DOE JANE"))
	})

	It("gives up past the lookahead window", func() {
		_, _, ok := extractor.searchLabel([]string{"Number", "", "", "", "1234567"}, "number", anyValue)

		Expect(ok).To(BeFalse())
	})

	It("moves to a later label line when the first yields nothing", func() {
		value, confidence, ok := extractor.searchLabel(
			[]string{"Issue Date stamp", "x", "y", "z", "Issue Date: 01/01/2020"},
			"issue date", dateToken)

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("01/01/2020"))
		Expect(confidence).To(BeNumerically("==", 0.8))
	})

	It("falls through to lookahead when the same-line value is rejected", func() {
		value, confidence, ok := extractor.searchLabel([]string{"Expiry Date none", "01/01/2030"}, "expiry date", dateToken)

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("01/01/2030"))
		Expect(confidence).To(BeNumerically("~", 0.7, 1e-9))
	})

	It("reports not found when no line contains the key", func() {
		_, _, ok := extractor.searchLabel([]string{"nothing relevant"}, "surname", anyValue)

		Expect(ok).To(BeFalse())
	})
})
