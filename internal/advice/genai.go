package advice

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-3-flash-preview"
	temperature  = float32(0.7)
)

// SystemInstruction grounds the model in the Leadforte FAQ.
const SystemInstruction = `You are the Leadforte Insurance Assistant.
Your tone is professional, helpful, and friendly.
You specialize in Nigerian insurance markets (Motor, Health, Life, Travel).

FAQ KNOWLEDGE BASE:
1. Motor Insurance: We offer Comprehensive (covers damage to your car and others) and Third-Party (legal minimum, covers others only).
2. Pricing: Competitive rates starting as low as ₦5,000 for basic 3rd party. Comprehensive depends on vehicle value (approx 3.5%).
3. E-Certificates: Issued instantly upon payment and document verification.
4. Claims: Must be filed within 48 hours of an incident. Evidence (photos/police report) is required.
5. Payment: We accept bank transfers, card payments (Paystack/Flutterwave), and USSD.
6. Contact: If technical help or an immediate purchase is needed, suggest a WhatsApp handoff (+234 787 166 433 610).

Always explain complex jargon simply.
Use Naira (₦) for all currency mentions.
Based in Lagos, Nigeria.`

// GenAIProvider calls Gemini through the Google GenAI SDK.
type GenAIProvider struct {
	client *genai.Client
	model  string
}

// NewGenAIProvider creates a provider for the given API key and model.
func NewGenAIProvider(ctx context.Context, apiKey, model string) (*GenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIProvider{client: client, model: model}, nil
}

// Generate sends the conversation and returns the model text.
func (p *GenAIProvider) Generate(ctx context.Context, history []Message, message string) (string, error) {
	result, err := p.client.Models.GenerateContent(ctx, p.model, buildContents(history, message), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return result.Text(), nil
}

// buildContents maps user turns to the user role and everything else to the model role.
func buildContents(history []Message, message string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleModel)
		if m.Role == RoleUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return append(contents, genai.NewContentFromText(message, genai.RoleUser))
}
