package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"AINewsScanner/internal/ports"
)

// Every classified item lands under one of these rubrics; the keyword lists
// back the inference service up when it is unreachable or unsure.
var categories = []category{
	{"🚀 НОВЫЙ РЕЛИЗ", []string{
		"релиз новой модели", "запуск продукта", "выпуск обновления",
		"представлена модель", "доступна новая версия", "анонс релиза",
		"launch", "release", "new model", "product launch", "update available",
	}},
	{"✨ ПРЕДСТАВЛЕНА НОВАЯ МОДЕЛЬ", []string{
		"новая языковая модель", "представлена модель", "модель ИИ",
		"нейросеть", "AI model", "neural network", "GPT", "Claude", "Gemini",
	}},
	{"🎉 ЗАПУСК ПРОДУКТА", []string{
		"запуск продукта", "новый продукт", "стартап", "платформа",
		"product launch", "new product", "startup", "platform launch",
	}},
	{"🔥 ДОСТУПНО ОБНОВЛЕНИЕ", []string{
		"обновление", "апдейт", "новая версия", "улучшения",
		"update", "upgrade", "new version", "improvements",
	}},
	{"📄 НОВОЕ ИССЛЕДОВАНИЕ", []string{
		"исследование", "научная работа", "эксперимент", "изучение",
		"research", "study", "experiment", "scientific paper",
	}},
	{"🔬 ОПУБЛИКОВАНА СТАТЬЯ", []string{
		"статья", "публикация", "научная статья", "доклад",
		"article", "publication", "paper", "report",
	}},
	{"📊 АНАЛИЗ | РЕЗУЛЬТАТЫ", []string{
		"анализ", "результаты", "данные", "статистика", "отчет",
		"analysis", "results", "data", "statistics", "findings",
	}},
	{"🧠 МНЕНИЕ ФАУНДЕРА", []string{
		"основатель", "CEO", "фаундер", "мнение руководителя",
		"founder", "CEO opinion", "executive statement",
	}},
	{"💬 ПРЯМАЯ РЕЧЬ", []string{
		"заявление", "комментарий", "интервью", "высказывание",
		"statement", "comment", "interview", "quote",
	}},
	{"💡 ИНСАЙТ ОТ ЭКСПЕРТА", []string{
		"эксперт", "специалист", "инсайт", "экспертное мнение",
		"expert", "specialist", "insight", "expert opinion",
	}},
	{"📈 НОВОСТИ КОМПАНИИ", []string{
		"компания", "корпорация", "бизнес", "организация",
		"company", "corporation", "business", "organization",
	}},
	{"💰 ИНВЕСТИЦИИ", []string{
		"инвестиции", "финансирование", "раунд", "венчурные",
		"investment", "funding", "round", "venture capital",
	}},
	{"🤝 КАДРОВЫЕ ИЗМЕНЕНИЯ", []string{
		"назначение", "увольнение", "новый сотрудник", "кадры",
		"appointment", "hiring", "new employee", "staff changes",
	}},
	{"⚡️ МОЛНИЯ", []string{
		"срочно", "экстренно", "важная новость", "молния",
		"breaking", "urgent", "important news", "alert",
	}},
	{"⚠️ ВАЖНОЕ СОБЫТИЕ", []string{
		"важное событие", "значимое", "критически важно",
		"important event", "significant", "critical",
	}},
}

type category struct {
	label    string
	keywords []string
}

const (
	defaultLabel = "📄 НОВОЕ ИССЛЕДОВАНИЕ"

	// Inference results below this score are treated as noise and routed
	// through the keyword fallback instead.
	confidenceThreshold = 0.3

	keywordConfidence = 0.8
	defaultConfidence = 0.5
)

// Classifier assigns a rubric to content via a zero-shot inference service,
// with a local keyword table as fallback. Classification never fails: the
// fallback always produces a label.
type Classifier struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier creates a reusable HTTP client. An empty endpoint disables
// remote inference entirely and keeps the keyword fallback.
func NewClassifier(endpoint, apiKey string, logger *slog.Logger) *Classifier {
	return &Classifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Classify returns the best rubric for the text. Remote inference is tried
// first; transport errors and low-confidence results fall back to keywords.
func (c *Classifier) Classify(ctx context.Context, text string) (string, float64, error) {
	if c.endpoint == "" {
		label, score := fallbackClassify(text)
		return label, score, nil
	}

	label, score, err := c.infer(ctx, text)
	if err != nil {
		c.warn("inference failed, using keyword fallback", "error", err)
		label, score = fallbackClassify(text)
		return label, score, nil
	}

	if score < confidenceThreshold {
		c.info("low inference confidence, using keyword fallback", "label", label, "score", score)
		label, score = fallbackClassify(text)
		return label, score, nil
	}

	c.info("classified", "label", label, "score", score)
	return label, score, nil
}

func (c *Classifier) infer(ctx context.Context, text string) (string, float64, error) {
	labels := make([]string, 0, len(categories))
	for _, cat := range categories {
		labels = append(labels, cat.label)
	}

	payload := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"candidate_labels": labels,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var result struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", 0, fmt.Errorf("decode response: %w", err)
	}

	if len(result.Labels) == 0 || len(result.Scores) == 0 {
		return "", 0, fmt.Errorf("empty inference result")
	}
	return result.Labels[0], result.Scores[0], nil
}

// fallbackClassify picks the first rubric whose keyword list matches the
// text, falling back to the default rubric.
func fallbackClassify(text string) (string, float64) {
	lower := strings.ToLower(text)
	for _, cat := range categories {
		for _, keyword := range cat.keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				return cat.label, keywordConfidence
			}
		}
	}
	return defaultLabel, defaultConfidence
}

func (c *Classifier) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Classifier) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
