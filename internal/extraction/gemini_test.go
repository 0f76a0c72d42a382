package extraction

import (
	"errors"

	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("candidateText", func() {
	var (
		resp *genai.GenerateContentResponse
		text string
		err  error
	)

	JustBeforeEach(func() {
		text, err = candidateText(resp)
	})

	When("the candidate carries text parts", func() {
		BeforeEach(func() {
			resp = &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{
						Parts: []genai.Part{genai.Text(`{"value": 150.5`), genai.Text(`}`)},
					},
				}},
			}
		})

		It("should concatenate the parts in order", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(`{"value": 150.5}`))
		})
	})

	When("the response has no candidates", func() {
		BeforeEach(func() {
			resp = &genai.GenerateContentResponse{}
		})

		It("should return a malformed response error", func() {
			Expect(errors.Is(err, ErrMalformedResponse)).To(BeTrue())
		})
	})

	When("the candidate has nil content", func() {
		BeforeEach(func() {
			resp = &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content:      nil,
					FinishReason: genai.FinishReasonSafety,
				}},
			}
		})

		It("should return a malformed response error instead of panicking", func() {
			Expect(errors.Is(err, ErrMalformedResponse)).To(BeTrue())
		})
	})

	When("the candidate content has no parts", func() {
		BeforeEach(func() {
			resp = &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
			}
		})

		It("should return a malformed response error", func() {
			Expect(errors.Is(err, ErrMalformedResponse)).To(BeTrue())
		})
	})
})
