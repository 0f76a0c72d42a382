package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Extractor interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	// Constrain the response to machine-parseable JSON with all four fields
	// present in the schema. Fields may still come back null; the record
	// builder substitutes defaults.
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"value":   {Type: genai.TypeNumber, Description: "O valor total do boleto"},
			"dueDate": {Type: genai.TypeString, Description: "Data de vencimento no formato YYYY-MM-DD"},
			"barcode": {Type: genai.TypeString, Description: "Linha digitável ou código de barras completo"},
			"issuer":  {Type: genai.TypeString, Description: "Nome da empresa emissora"},
		},
		Required: []string{"value", "dueDate", "barcode", "issuer"},
	}

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// Extract analyzes a boleto document and returns the structured fields.
// PDFs are sent to Gemini as-is; the service does its own document parsing.
func (g *Gemini) Extract(ctx context.Context, data []byte, contentType string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	inlineData, mimeType, err := prepareInlineData(data, contentType)
	if err != nil {
		return nil, err
	}

	parts := []genai.Part{
		genai.Blob{MIMEType: mimeType, Data: inlineData},
		genai.Text(extractionPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("%w: generating content: %v", ErrTransport, err)
	}

	responseText, err := candidateText(resp)
	if err != nil {
		return nil, err
	}

	result, err := parseResultJSON(responseText)
	if err != nil {
		return nil, fmt.Errorf("parsing boleto data: %w", err)
	}

	return result, nil
}

// candidateText concatenates the text parts of the first candidate. Content
// can be nil when the model returns a candidate blocked by safety filters.
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no response from gemini", ErrMalformedResponse)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}
	return responseText.String(), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
