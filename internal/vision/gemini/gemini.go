package gemini

import (
    "context"
    "fmt"

    "google.golang.org/genai"

    "mandiprice/internal/vision"
)

// qualityPrompt fixes the assessment grammar: exactly the five keys the
// quality parser recognizes, one per line.
const qualityPrompt = `You are an expert agricultural commodity quality assessor.
First, reason step-by-step internally about the provided image. Then, provide your final assessment in the strict format below.

Analyze the image for:
1. Grade (A, B, C):
   - Grade A (Excellent): Highly uniform in size and color. No visible defects, blemishes, or damage. Looks fresh and clean. Suitable for premium retail.
   - Grade B (Good/Average): Mostly uniform with minor variations. May have small cosmetic blemishes or slight inconsistencies. Suitable for general markets.
   - Grade C (Fair/Poor): Significant variation in size/color. Noticeable defects, damage, or signs of aging/spoilage. Best for processing or immediate discounted sale.
2. Moisture Content: Estimate as Low, Medium, or High based on visual cues (e.g., wilting, shininess, dryness).
3. Foreign Matter: Estimate the percentage of non-commodity material (dirt, stones, stems).
4. Damage Details: DESCRIBE any visible damage (e.g., "Minor bruising on 2-3 items", "No visible damage"), not yes/no.

Provide your output in this exact format, with no extra text:
Grade: [A/B/C]
Moisture: [Low/Medium/High]
Foreign Matter: [Low <5%/Medium 5-10%/High >10%]
Damage Details: [Description of any damage, or "None"]
Overall Assessment: [A brief one-sentence summary of the quality]`

type Config struct {
    Name   string // display name, default: GeminiVision
    APIKey string
    Model  string // default: gemini-2.0-flash
}

// Analyzer grades commodity images with a multimodal Gemini call.
type Analyzer struct {
    cfg    Config
    client *genai.Client
}

func New(ctx context.Context, cfg Config) (*Analyzer, error) {
    if cfg.Name == "" { cfg.Name = "GeminiVision" }
    if cfg.Model == "" { cfg.Model = "gemini-2.0-flash" }
    if cfg.APIKey == "" {
        return nil, fmt.Errorf("vision: API key not set")
    }
    client, err := genai.NewClient(ctx, &genai.ClientConfig{
        APIKey:  cfg.APIKey,
        Backend: genai.BackendGeminiAPI,
    })
    if err != nil {
        return nil, fmt.Errorf("vision: create client: %w", err)
    }
    return &Analyzer{cfg: cfg, client: client}, nil
}

var _ vision.Analyzer = (*Analyzer)(nil)

func (a *Analyzer) Name() string { return a.cfg.Name }

func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType string) (string, error) {
    contents := []*genai.Content{{
        Parts: []*genai.Part{
            {Text: qualityPrompt},
            {InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
        },
    }}
    config := &genai.GenerateContentConfig{
        Temperature: genai.Ptr(float32(0.1)),
    }
    result, err := a.client.Models.GenerateContent(ctx, a.cfg.Model, contents, config)
    if err != nil {
        return "", fmt.Errorf("vision: generate: %w", err)
    }
    return result.Text(), nil
}
