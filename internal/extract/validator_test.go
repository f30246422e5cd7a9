package extract

import (
	"github.com/zombor/idscan/internal/scanning"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Validator", func() {
	keywords := []string{"passport", "republic", "utopia", "nationality", "holder"}

	Describe("Validate", func() {
		It("accepts when exactly the threshold fraction matches", func() {
			text := textResult("PASSPORT\nREPUBLIC")

			Expect(Validator{}.Validate(text, keywords)).To(BeTrue())
		})

		It("rejects below the threshold", func() {
			text := textResult("PASSPORT ONLY")

			Expect(Validator{}.Validate(text, keywords)).To(BeFalse())
		})

		It("matches keywords case-insensitively", func() {
			text := textResult("passport republic")

			Expect(Validator{}.Validate(text, []string{"PASSPORT", "Republic"})).To(BeTrue())
		})

		It("accepts trivially on an empty keyword list", func() {
			Expect(Validator{}.Validate(textResult(""), nil)).To(BeTrue())
		})

		It("matches nothing against nil text", func() {
			Expect(Validator{}.Validate(nil, keywords)).To(BeFalse())
		})

		It("honors a custom threshold", func() {
			text := textResult("PASSPORT REPUBLIC")

			Expect(Validator{Threshold: 0.6}.Validate(text, keywords)).To(BeFalse())
			Expect(Validator{Threshold: 0.2}.Validate(text, keywords)).To(BeTrue())
		})

		It("reads the recognized lines when the full text is absent", func() {
			text := &scanning.Result{Lines: []scanning.Line{
				{Text: "PASSPORT"},
				{Text: "REPUBLIC"},
			}}

			Expect(Validator{}.Validate(text, keywords)).To(BeTrue())
		})
	})
})
