package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"xscanner/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// 分类指令：要求模型返回可解析的 JSON
// 字段结构和 CSV 导出列保持一致
const systemPrompt = `You are an expert crypto analyst specializing in identifying airdrops and early-stage crypto startups from social media posts.

Analyze the given tweet and classify it into one of three categories:
1. "airdrop" - Posts about token airdrops, free token distributions, or reward campaigns
2. "startup" - Posts about new crypto projects, funding rounds, or early-stage ventures
3. "ignore" - Posts that don't fit the above categories (personal updates, news, etc.)

For "airdrop" and "startup" classifications, extract structured information.

Return your response as a valid JSON object with this exact structure:
{
    "type": "airdrop|startup|ignore",
    "confidence": 0.0-1.0,
    "project_name": "string or null",
    "chain": "string or null",
    "category": "string or null",
    "funding_amount": "string or null",
    "investors": ["list of strings or empty"],
    "website": "string or null",
    "description": "brief description or null",
    "key_features": ["list of strings or empty"],
    "reasoning": "brief explanation of classification"
}

Categories for startups: DeFi, L2, AI, Gaming, Infrastructure, NFT, DAO, etc.
Chains: Ethereum, Polygon, Solana, Arbitrum, Base, etc.`

// Classifier 通过 Gemini 对推文做语义分类，实现 port.Classifier
type Classifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
	// 问答用的模型实例不强制 JSON 输出
	searchModel *genai.GenerativeModel
}

// 接收模型返回的 JSON
type classification struct {
	Type          string   `json:"type"`
	Confidence    float64  `json:"confidence"`
	ProjectName   *string  `json:"project_name"`
	Chain         *string  `json:"chain"`
	Category      *string  `json:"category"`
	FundingAmount *string  `json:"funding_amount"`
	Investors     []string `json:"investors"`
	Website       *string  `json:"website"`
	Description   *string  `json:"description"`
	KeyFeatures   []string `json:"key_features"`
	Reasoning     string   `json:"reasoning"`
}

// NewClassifier 初始化 Gemini 客户端
// baseURL 留空时使用官方端点
func NewClassifier(ctx context.Context, apiKey, modelName, baseURL string) (*Classifier, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(baseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(modelName)
	// 强制要求返回 JSON，降低解析错误的概率
	model.ResponseMIMEType = "application/json"

	return &Classifier{
		client:      client,
		model:       model,
		searchModel: client.GenerativeModel(modelName),
	}, nil
}

// Classify 调用模型分类单条推文
// 任何失败 (网络/超时/解析) 都以 error 返回，由上层决定是否走本地规则兜底
func (g *Classifier) Classify(ctx context.Context, tweet *domain.Tweet) (*domain.ClassifiedItem, error) {
	prompt := fmt.Sprintf(`%s

Tweet text: "%s"

Author: @%s (%d followers)
Engagement: %d likes, %d retweets`,
		systemPrompt, tweet.Text, tweet.Author, tweet.AuthorFollowers,
		tweet.Likes, tweet.Retweets)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("AI 调用失败: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("AI 返回内容为空")
	}

	part, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("AI 返回格式错误")
	}

	res, err := parseClassification(string(part))
	if err != nil {
		return nil, err
	}

	item, err := domain.NewClassifiedItem(tweet, domain.Kind(res.Type), res.Confidence)
	if err != nil {
		// 模型返回了不认识的类别或越界置信度，按解析失败处理
		return nil, fmt.Errorf("AI 返回字段非法: %w", err)
	}

	item.ProjectName = res.ProjectName
	item.Chain = res.Chain
	item.Category = res.Category
	item.FundingAmount = res.FundingAmount
	item.Website = res.Website
	item.Description = res.Description
	item.Reasoning = res.Reasoning
	if res.Investors != nil {
		item.Investors = res.Investors
	}
	if res.KeyFeatures != nil {
		item.KeyFeatures = res.KeyFeatures
	}

	return item, nil
}

// parseClassification 从可能带说明文字的回复里抠出 JSON
// 即使模型返回 "```json { ... } ```"，也能精准截取中间的 { ... }
func parseClassification(raw string) (*classification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("无法提取 JSON, AI 原文: %s", raw)
	}

	var res classification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &res); err != nil {
		return nil, fmt.Errorf("JSON 解析失败: %s | 原文: %s", err, raw[start:end+1])
	}

	return &res, nil
}

// SemanticSearch 把已入库的发现作为上下文，回答自然语言提问
func (g *Classifier) SemanticSearch(ctx context.Context, items []*domain.ClassifiedItem, userQuery string) (string, error) {
	contextJSON, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("序列化候选数据失败: %w", err)
	}

	prompt := fmt.Sprintf(`你是一个加密行业分析助手。下面是最近扫描到的空投/初创项目数据 (JSON)：

%s

请根据这些数据回答用户的问题，引用具体项目时带上链和置信度。如果数据不足以回答，就直说。

用户问题: %s`, string(contextJSON), userQuery)

	resp, err := g.searchModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("AI 调用失败: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("AI 返回内容为空")
	}

	part, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("AI 返回格式错误")
	}

	return string(part), nil
}
