package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"postpilot/app/content"
)

const relevanceInstruction = `
You evaluate whether an article is worth sharing by a specific professional on LinkedIn.
You are given the user's interests and expertise, followed by the article title and text.
The response MUST be a valid JSON object with four keys:

1. relevance_score: A number between 0.0 and 1.0. How relevant is this article
   to the user's declared interests and expertise? 1.0 means a perfect match.
2. reasoning: One or two sentences explaining the score. Written in English.
3. topic_category: A single short category label for the article
   (e.g., "Backend", "AI", "DevOps", "Leadership", "Career", "Other").
4. confidence: A number between 0.0 and 1.0 reflecting how certain you are.

Constraints:
- You MUST NOT wrap the JSON output in a markdown code block.
- The response should contain ONLY the raw JSON string.
`

const draftInstruction = `
You write LinkedIn posts for a specific professional, in their voice.
You are given the desired tone, the user's interests, and a source article.
Write an original post inspired by the article: share a perspective, do not
merely summarize. 100-250 words, plain text, no markdown.
The response MUST be a valid JSON object with two keys:

1. content: The post text.
2. hashtags: A list of 3-5 lowercase hashtag keywords without the # symbol.

Constraints:
- You MUST NOT wrap the JSON output in a markdown code block.
- The response should contain ONLY the raw JSON string.
`

var _ content.Oracle = (*Gemini)(nil)
var _ content.DraftWriter = (*Gemini)(nil)

// Gemini backs the relevance oracle and the draft writer with the
// Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) ScoreRelevance(ctx context.Context, articleContent, title, userContext string, profile *content.Profile) (*content.OracleResult, error) {
	prompt := fmt.Sprintf("User profile: %s\n\nArticle title: %s\n\nArticle text:\n%s", userContext, title, articleContent)

	text, err := g.generate(ctx, relevanceInstruction, prompt)
	if err != nil {
		return nil, err
	}

	var result content.OracleResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to parse relevance response: %w", err)
	}

	if result.RelevanceScore < 0 || result.RelevanceScore > 1 {
		return nil, fmt.Errorf("relevance score out of range: %f", result.RelevanceScore)
	}

	return &result, nil
}

func (g *Gemini) GenerateDraft(ctx context.Context, title, articleContent string, profile *content.Profile) (*content.DraftResult, error) {
	tone := profile.Tone
	if tone == "" {
		tone = "professional"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tone: %s\n", tone)
	if len(profile.Interests) > 0 {
		fmt.Fprintf(&sb, "User interests: %s\n", strings.Join(profile.Interests, ", "))
	}
	fmt.Fprintf(&sb, "\nSource article title: %s\n\nSource article text:\n%s", title, articleContent)

	text, err := g.generate(ctx, draftInstruction, sb.String())
	if err != nil {
		return nil, err
	}

	var result content.DraftResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to parse draft response: %w", err)
	}
	if result.Content == "" {
		return nil, fmt.Errorf("draft generation returned empty content")
	}

	return &result, nil
}

func (g *Gemini) generate(ctx context.Context, instruction, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	return result.Text(), nil
}
