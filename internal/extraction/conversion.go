package extraction

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// extractionPrompt is the shared instruction used by all LLM providers.
// Wording follows the original Brazilian boleto assistant prompt.
const extractionPrompt = `Você é um assistente especializado em documentos financeiros brasileiros (Boletos).
Analise o documento e extraia com precisão:
1. Valor total do boleto (número decimal).
2. Data de vencimento (formato YYYY-MM-DD).
3. Linha digitável ou Código de Barras.
4. Nome do Beneficiário/Emissor (Empresa que emitiu o boleto).

Retorne APENAS um objeto JSON neste formato exato:
{
  "value": 0.00,
  "dueDate": "YYYY-MM-DD",
  "barcode": "...",
  "issuer": "..."
}

Importante:
- O valor deve ser um número (não uma string).
- Se não encontrar um campo, use null para esse campo.
- Não inclua nenhum texto antes ou depois do JSON.
- Não use blocos de código markdown.`

// pdfToImage rasterizes the first page of a PDF as PNG. Boletos are
// single-page documents.
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) is not supported by the standard image
	// package, so it gets its own decoder
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks the ftyp box brands HEIC containers start with
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "image/heic" || mimeType == "image/heif" ||
		strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// normalizeMimeType lowercases and trims a MIME type, defaulting unknowns
// to JPEG
func normalizeMimeType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

// prepareInlineData readies a document for a backend that accepts PDFs
// natively: PDFs pass through untouched, HEIC/HEIF is converted to PNG,
// everything else keeps its original encoding. Returns the data and the
// MIME type to send.
func prepareInlineData(data []byte, contentType string) ([]byte, string, error) {
	mimeType := normalizeMimeType(contentType)

	if mimeType == "application/pdf" {
		return data, mimeType, nil
	}
	if isHEICFormat(data) || isHEICMimeType(mimeType) {
		pngData, err := imageToPNG(data, mimeType)
		if err != nil {
			return nil, "", fmt.Errorf("converting HEIC to PNG: %w", err)
		}
		return pngData, "image/png", nil
	}
	return data, mimeType, nil
}

// prepareImageData readies a document for a vision-only backend: PDFs are
// rasterized and all images normalized to PNG.
func prepareImageData(data []byte, contentType string) ([]byte, error) {
	mimeType := normalizeMimeType(contentType)

	if mimeType == "application/pdf" {
		pngData, err := pdfToImage(data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, nil
	}
	if mimeType != "image/png" || isHEICFormat(data) {
		pngData, err := imageToPNG(data, mimeType)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, nil
	}
	return data, nil
}
