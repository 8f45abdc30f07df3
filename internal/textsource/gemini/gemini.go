package gemini

import (
    "context"
    "fmt"

    "google.golang.org/genai"

    "mandiprice/internal/textsource"
)

// systemPrompt fixes the answer grammar. It is a versioned contract with
// the record parser; changing the key names here breaks parsing.
const systemPrompt = `You are a highly specialized agricultural price analyst for Indian markets.
Your goal is to provide the most accurate CURRENT wholesale/mandi price in INR per KILOGRAM (kg).

Follow these steps precisely:
1. Search for the current wholesale/mandi price for the commodity from official sources only (eNAM, Agmarknet, APMC data, government reports).
2. Prices you find will likely be in INR per Quintal (100 kg). Convert them to INR per kg by dividing by 100.
3. Report every distinct official source you found, ONE LINE PER SOURCE, at most 3 lines, in the strict formats below. Do NOT add any other text or explanations.

FOR A SINGLE PRICE:
PRICE_PER_KG: [price_in_kg] | SOURCE: [source_name] | DATE: [date]

FOR A PRICE RANGE:
MIN_PRICE_KG: [min_price_in_kg] | MAX_PRICE_KG: [max_price_in_kg] | SOURCE: [source_name] | DATE: [date]

If you could not convert a price, report it as found using PRICE_PER_QUINTAL (or MIN_PRICE_QUINTAL / MAX_PRICE_QUINTAL) instead of the per-kg keys.
You may add one final line stating the most recent observation date across your sources:
LATEST_DATE: [date]

If after a thorough search no current data is found from official sources, return the single phrase: 'Not available'.`

type Config struct {
    Name        string  // display name, default: Gemini
    APIKey      string
    Model       string  // default: gemini-2.0-flash
    Temperature float32 // default: 0.1
}

// Source is a research-agent text source backed by Gemini with Google
// Search grounding.
type Source struct {
    cfg    Config
    client *genai.Client
}

func New(ctx context.Context, cfg Config) (*Source, error) {
    if cfg.Name == "" { cfg.Name = "Gemini" }
    if cfg.Model == "" { cfg.Model = "gemini-2.0-flash" }
    if cfg.Temperature == 0 { cfg.Temperature = 0.1 }
    if cfg.APIKey == "" {
        return nil, fmt.Errorf("gemini: API key not set")
    }
    client, err := genai.NewClient(ctx, &genai.ClientConfig{
        APIKey:  cfg.APIKey,
        Backend: genai.BackendGeminiAPI,
    })
    if err != nil {
        return nil, fmt.Errorf("gemini: create client: %w", err)
    }
    return &Source{cfg: cfg, client: client}, nil
}

var _ textsource.Source = (*Source)(nil)

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) Query(ctx context.Context, prompt string) (string, error) {
    config := &genai.GenerateContentConfig{
        Temperature: genai.Ptr(s.cfg.Temperature),
        SystemInstruction: &genai.Content{
            Parts: []*genai.Part{{Text: systemPrompt}},
        },
        Tools: []*genai.Tool{
            {GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}},
        },
    }
    result, err := s.client.Models.GenerateContent(ctx, s.cfg.Model, genai.Text(prompt), config)
    if err != nil {
        return "", fmt.Errorf("gemini: generate: %w", err)
    }
    return result.Text(), nil
}
