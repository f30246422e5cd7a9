package extract

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("dateToken", func() {
	It("pulls the first delimited numeric date", func() {
		value, ok := dateToken("issued 01/02/2020 expires 01/02/2030")

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("01/02/2020"))
	})

	It("picks the earliest match across delimiter styles", func() {
		value, ok := dateToken("2020-01-02 then 03/04/2021")

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("2020-01-02"))
	})

	It("ignores month-name dates", func() {
		_, ok := dateToken("born 12 Mar 1990")

		Expect(ok).To(BeFalse())
	})

	It("ignores short year fragments", func() {
		_, ok := dateToken("ref 12/05/99")

		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("parseDate", func() {
	var extractor *Extractor

	BeforeEach(func() {
		extractor = newTestExtractor()
	})

	It("reads delimited dates day-first by default", func() {
		parsed, ok := extractor.parseDate("05/04/2021", "")

		Expect(ok).To(BeTrue())
		Expect(parsed).To(Equal(time.Date(2021, time.April, 5, 0, 0, 0, 0, time.UTC)))
	})

	It("tries the hint layout before the defaults", func() {
		parsed, ok := extractor.parseDate("05/04/2021", "01/02/2006")

		Expect(ok).To(BeTrue())
		Expect(parsed).To(Equal(time.Date(2021, time.May, 4, 0, 0, 0, 0, time.UTC)))
	})

	It("reads year-first dates", func() {
		parsed, ok := extractor.parseDate("1990-05-12", "")

		Expect(ok).To(BeTrue())
		Expect(parsed).To(Equal(time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)))
	})

	It("reads upper-case month names with stray dots", func() {
		parsed, ok := extractor.parseDate("12 MAR. 1990", "")

		Expect(ok).To(BeTrue())
		Expect(parsed).To(Equal(time.Date(1990, time.March, 12, 0, 0, 0, 0, time.UTC)))
	})

	It("rejects years before 1900", func() {
		_, ok := extractor.parseDate("01/01/1899", "")

		Expect(ok).To(BeFalse())
	})

	It("rejects years further than fifty ahead of the clock", func() {
		_, ok := extractor.parseDate("01/01/2077", "")

		Expect(ok).To(BeFalse())
	})

	It("rejects impossible calendar dates", func() {
		_, ok := extractor.parseDate("31/02/2020", "")

		Expect(ok).To(BeFalse())
	})

	It("rejects text that is not a date", func() {
		_, ok := extractor.parseDate("SPECIMEN", "")

		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("corpusDates", func() {
	var extractor *Extractor

	BeforeEach(func() {
		extractor = newTestExtractor()
	})

	It("returns parseable dates in text order", func() {
		candidates := extractor.corpusDates(
			"expires 01/01/2030, born 12 Mar 1990, issued 2020-06-15",
			"", DefaultDateFormat, map[string]struct{}{})

		Expect(candidates).To(HaveLen(3))
		Expect(candidates[0].value).To(Equal("01/01/2030"))
		Expect(candidates[1].value).To(Equal("12/03/1990"))
		Expect(candidates[2].value).To(Equal("15/06/2020"))
	})

	It("drops dates already assigned to another field", func() {
		used := map[string]struct{}{"01/01/2030": {}}

		candidates := extractor.corpusDates("01/01/2030 01/01/2020", "", DefaultDateFormat, used)

		Expect(candidates).To(HaveLen(1))
		Expect(candidates[0].value).To(Equal("01/01/2020"))
	})

	It("drops values outside the plausible year range", func() {
		candidates := extractor.corpusDates("01/01/1850 01/01/2020", "", DefaultDateFormat, map[string]struct{}{})

		Expect(candidates).To(HaveLen(1))
		Expect(candidates[0].value).To(Equal("01/01/2020"))
	})
})

var _ = Describe("chooseDate", func() {
	var extractor *Extractor

	BeforeEach(func() {
		extractor = newTestExtractor()
	})

	It("prefers the nearest date after a label occurrence", func() {
		text := "01/01/2010 expiry date\n01/01/2030 and later 01/01/2035"
		candidates := extractor.corpusDates(text, "", DefaultDateFormat, map[string]struct{}{})

		chosen, confidence := chooseDate(candidates, text, FieldSpec{Key: "expiry date", Type: FieldDate})

		Expect(chosen.value).To(Equal("01/01/2030"))
		Expect(confidence).To(BeNumerically("==", 0.7))
	})

	It("takes the latest date for expiry-flavored fields without a label", func() {
		text := "stamped 01/01/2015 01/01/2035 01/01/2025"
		candidates := extractor.corpusDates(text, "", DefaultDateFormat, map[string]struct{}{})

		chosen, confidence := chooseDate(candidates, text, FieldSpec{Key: "expiry date", Type: FieldDate})

		Expect(chosen.value).To(Equal("01/01/2035"))
		Expect(confidence).To(BeNumerically("==", 0.7))
	})

	It("takes the earliest date for everything else without a label", func() {
		text := "stamped 01/01/2015 01/01/2035 01/01/2025"
		candidates := extractor.corpusDates(text, "", DefaultDateFormat, map[string]struct{}{})

		chosen, confidence := chooseDate(candidates, text, FieldSpec{Key: "date of birth", Type: FieldDate})

		Expect(chosen.value).To(Equal("01/01/2015"))
		Expect(confidence).To(BeNumerically("==", 0.6))
	})

	It("treats valid-until fields as expiry-flavored", func() {
		text := "stamped 01/01/2015 01/01/2035"
		candidates := extractor.corpusDates(text, "", DefaultDateFormat, map[string]struct{}{})

		chosen, _ := chooseDate(candidates, text, FieldSpec{Key: "valid until", Type: FieldDate})

		Expect(chosen.value).To(Equal("01/01/2035"))
	})
})

var _ = Describe("extractDate", func() {
	var (
		extractor *Extractor
		used      map[string]struct{}
	)

	BeforeEach(func() {
		extractor = newTestExtractor()
		used = map[string]struct{}{}
	})

	It("resolves a labelled date at full label confidence", func() {
		lines := []string{"Date of Birth: 12/05/1990"}

		result := extractor.extractDate(lines, lines[0], FieldSpec{Key: "date of birth", Type: FieldDate}, used)

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("12/05/1990"))
		Expect(result.Confidence).To(BeNumerically("==", 0.8))
	})

	It("renders the value in the configured output format", func() {
		lines := []string{"Date of Birth: 12/05/1990"}
		spec := FieldSpec{Key: "date of birth", Type: FieldDate, OutputDateFormat: "2006-01-02"}

		result := extractor.extractDate(lines, lines[0], spec, used)

		Expect(result.Value).To(Equal("1990-05-12"))
	})

	It("falls back to the corpus when the labelled date is already taken", func() {
		lines := []string{"Expiry Date 01/01/2020 01/01/2030"}
		used["01/01/2020"] = struct{}{}

		result := extractor.extractDate(lines, lines[0], FieldSpec{Key: "expiry date", Type: FieldDate}, used)

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("01/01/2030"))
	})

	It("finds month-name dates through the corpus scan", func() {
		lines := []string{"Born 12 MAR 1990 in Springfield"}

		result := extractor.extractDate(lines, lines[0], FieldSpec{Key: "date of birth", Type: FieldDate}, used)

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("12/03/1990"))
		Expect(result.Confidence).To(BeNumerically("==", 0.6))
	})

	It("consults alternative keys when the primary label is absent", func() {
		lines := []string{"DOB: 12/05/1990"}
		spec := FieldSpec{Key: "date of birth", Type: FieldDate, AlternativeKeys: []string{"dob"}}

		result := extractor.extractDate(lines, lines[0], spec, used)

		Expect(result.Found).To(BeTrue())
		Expect(result.Value).To(Equal("12/05/1990"))
		Expect(result.Confidence).To(BeNumerically("==", 0.8))
	})

	It("reports not found when nothing date-shaped survives", func() {
		lines := []string{"NO DATES HERE"}

		result := extractor.extractDate(lines, lines[0], FieldSpec{Key: "date of birth", Type: FieldDate}, used)

		Expect(result.Found).To(BeFalse())
		Expect(result.Value).To(BeEmpty())
	})
})
