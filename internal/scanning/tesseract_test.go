package scanning

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error
	name   string
	args   []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.name = name
	r.args = args
	return r.stdout, r.stderr, r.err
}

const tsvHeader = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext"

var _ = Describe("parseTSV", func() {
	var (
		input  string
		result *Result
	)

	JustBeforeEach(func() {
		result = parseTSV(input)
	})

	When("parsing word rows", func() {
		BeforeEach(func() {
			input = strings.Join([]string{
				tsvHeader,
				"1\t1\t0\t0\t0\t0\t0\t0\t600\t400\t-1\t",
				"2\t1\t1\t0\t0\t0\t40\t30\t300\t64\t-1\t",
				"4\t1\t1\t1\t1\t0\t40\t30\t300\t28\t-1\t",
				"5\t1\t1\t1\t1\t1\t40\t30\t140\t28\t96.5\tDRIVER",
				"5\t1\t1\t1\t1\t2\t190\t30\t150\t28\t93.5\tLICENSE",
				"5\t1\t1\t1\t2\t1\t40\t70\t60\t24\t91.0\tNO.",
				"5\t1\t1\t1\t2\t2\t110\t70\t110\t24\t88.0\t123456",
				"5\t1\t2\t1\t1\t1\t40\t120\t60\t24\t85.0\tDOB",
				"5\t1\t2\t1\t1\t2\t110\t120\t120\t24\t-1\t01/01/1990",
			}, "\n")
		})

		It("groups words into lines", func() {
			Expect(result.Lines).To(HaveLen(3))
			Expect(result.Lines[0].Text).To(Equal("DRIVER LICENSE"))
			Expect(result.Lines[1].Text).To(Equal("NO. 123456"))
			Expect(result.Lines[2].Text).To(Equal("DOB 01/01/1990"))
		})

		It("groups lines into blocks", func() {
			Expect(result.Blocks).To(HaveLen(2))
			Expect(result.Blocks[0].Lines).To(HaveLen(2))
			Expect(result.Blocks[1].Lines).To(HaveLen(1))
		})

		It("separates blocks with a blank line in the text", func() {
			Expect(result.Text).To(Equal("DRIVER LICENSE\nNO. 123456\n\nDOB 01/01/1990"))
		})

		It("averages word confidence per line on a 0-1 scale", func() {
			Expect(result.Lines[0].Confidence).To(BeNumerically("~", 0.95, 0.001))
		})

		It("excludes negative-confidence words from the average", func() {
			Expect(result.Lines[2].Confidence).To(BeNumerically("~", 0.85, 0.001))
		})

		It("unions word boxes into line boxes", func() {
			Expect(result.Lines[0].Box).To(Equal(Box{X: 40, Y: 30, Width: 300, Height: 28}))
		})
	})

	When("the output is empty", func() {
		BeforeEach(func() {
			input = ""
		})

		It("returns an empty result", func() {
			Expect(result.Text).To(BeEmpty())
			Expect(result.Lines).To(BeEmpty())
		})
	})

	When("rows are malformed", func() {
		BeforeEach(func() {
			input = strings.Join([]string{
				tsvHeader,
				"5\t1\t1",
				"5\t1\t1\t1\t1\t1\t40\t30\t140\t28\t96.5\t ",
				"5\t1\t1\t1\t1\t2\t190\t30\t150\t28\t93.5\tLICENSE",
			}, "\n")
		})

		It("skips them", func() {
			Expect(result.Lines).To(HaveLen(1))
			Expect(result.Lines[0].Text).To(Equal("LICENSE"))
		})
	})
})

var _ = Describe("Tesseract", func() {
	var (
		runner    *fakeRunner
		engine    *Tesseract
		imageData []byte
	)

	BeforeEach(func() {
		runner = &fakeRunner{
			stdout: []byte(strings.Join([]string{
				tsvHeader,
				"5\t1\t1\t1\t1\t1\t40\t30\t140\t28\t96.0\tPASSPORT",
			}, "\n")),
		}
		engine = NewTesseractWithRunner(runner, "")

		var buf bytes.Buffer
		Expect(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)))).To(Succeed())
		imageData = buf.Bytes()
	})

	It("runs one TSV pass over a temp file", func() {
		result, err := engine.Recognize(context.Background(), imageData, "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Text).To(Equal("PASSPORT"))

		Expect(runner.name).To(Equal("tesseract"))
		Expect(runner.args[0]).To(HaveSuffix(".png"))
		Expect(runner.args[1]).To(Equal("stdout"))
		Expect(runner.args).To(ContainElements("-l", "eng", "tsv"))
	})

	It("surfaces command failures", func() {
		runner.err = errors.New("exit status 1")
		runner.stderr = []byte("could not load language")

		_, err := engine.Recognize(context.Background(), imageData, "image/png")
		Expect(err).To(MatchError(ContainSubstring("tesseract")))
		Expect(err.Error()).To(ContainSubstring("could not load language"))
	})
})
