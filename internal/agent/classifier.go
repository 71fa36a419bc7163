package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/senior-acido/internal/types"
	"github.com/easeaico/senior-acido/internal/utils"
)

// excerptPreview is how much of an uploaded file the classifier sees.
const excerptPreview = 1000

const classifierInstruction = `Você é um classificador de memória para um mentor de TI.
Analise a mensagem do mentorado e responda APENAS com um objeto JSON no formato:
{"is_important": bool, "fact_type": "education" | "interests" | "privacy" | "none", "extracted_info": string ou null, "lgpd_risk": bool, "title": string}

Regras:
- is_important = true somente quando a mensagem revela um fato duradouro sobre o mentorado
  (formação, área de interesse, preferência de privacidade).
- fact_type indica a qual campo do perfil o fato pertence; use "none" quando não houver fato.
- extracted_info é o fato em uma frase curta, sem dados pessoais sensíveis; null quando não houver.
- lgpd_risk = true quando a mensagem ou o arquivo contém dados pessoais (CPF, e-mail, telefone).
- title é um resumo de até 6 palavras da mensagem.
Não escreva nada fora do JSON.`

// Classifier decides whether an utterance carries a durable fact about the user.
type Classifier struct {
	model   model.LLM
	timeout time.Duration
	schema  *jsonschema.Resolved
}

// NewClassifier returns a Classifier backed by m. A zero timeout means no extra deadline.
func NewClassifier(m model.LLM, timeout time.Duration) (*Classifier, error) {
	if m == nil {
		return nil, fmt.Errorf("classifier model is required")
	}
	resolved, err := DecisionSchema().Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve decision schema: %w", err)
	}
	return &Classifier{model: m, timeout: timeout, schema: resolved}, nil
}

// DecisionSchema describes the JSON object the classifier must return.
func DecisionSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Title: "classificacao",
		Type:  "object",
		Properties: map[string]*jsonschema.Schema{
			"is_important":   {Type: "boolean"},
			"fact_type":      {Type: "string"},
			"extracted_info": {Types: []string{"string", "null"}},
			"lgpd_risk":      {Type: "boolean"},
			"title":          {Type: "string"},
		},
		Required: []string{"is_important"},
	}
}

// Classify asks the model whether the turn carries a durable fact about the mentee.
// Call failures are transient errors; malformed or schema-violating output is a parse error.
func (c *Classifier) Classify(ctx context.Context, utterance, excerpt string) (types.ClassifierDecision, error) {
	if strings.TrimSpace(utterance) == "" && strings.TrimSpace(excerpt) == "" {
		return types.ClassifierDecision{}, nil
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	temp := float32(0)
	req := &model.LLMRequest{
		Model:    c.model.Name(),
		Contents: []*genai.Content{genai.NewContentFromText(classifierInput(utterance, excerpt), genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(classifierInstruction, genai.RoleUser),
			Temperature:       &temp,
			ResponseMIMEType:  "application/json",
		},
	}

	raw, err := firstResponseText(ctx, c.model, req)
	if err != nil {
		return types.ClassifierDecision{}, err
	}
	return c.parse(raw)
}

func (c *Classifier) parse(raw string) (types.ClassifierDecision, error) {
	clean, err := utils.ExtractJSONObject(raw)
	if err != nil {
		return types.ClassifierDecision{}, types.ParseError("classifier.extract", err)
	}

	var instance map[string]any
	if err := json.Unmarshal([]byte(clean), &instance); err != nil {
		return types.ClassifierDecision{}, types.ParseError("classifier.decode", err)
	}
	if err := c.schema.Validate(instance); err != nil {
		return types.ClassifierDecision{}, types.ParseError("classifier.validate", err)
	}

	var decision types.ClassifierDecision
	if err := json.Unmarshal([]byte(clean), &decision); err != nil {
		return types.ClassifierDecision{}, types.ParseError("classifier.decode", err)
	}
	return decision, nil
}

func classifierInput(utterance, excerpt string) string {
	if strings.TrimSpace(excerpt) == "" {
		return utterance
	}
	preview := []rune(excerpt)
	if len(preview) > excerptPreview {
		preview = preview[:excerptPreview]
	}
	return utterance + "\n\n[Trecho do arquivo]\n" + string(preview)
}

// firstResponseText runs a non-streaming request and returns the text of the first response.
func firstResponseText(ctx context.Context, m model.LLM, req *model.LLMRequest) (string, error) {
	var resp *model.LLMResponse
	var err error
	for r, e := range m.GenerateContent(ctx, req, false) {
		resp, err = r, e
		break
	}
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Content == nil {
		return "", types.TransientError("generate "+m.Name(), fmt.Errorf("empty response"))
	}
	text := strings.TrimSpace(utils.ExtractContentText(resp.Content))
	if text == "" {
		return "", types.TransientError("generate "+m.Name(), fmt.Errorf("empty response"))
	}
	return text, nil
}
