package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"xscanner/internal/common"
	"xscanner/internal/domain"
)

// Notifier 实现 port.Notifier，把高价值发现推成飞书卡片
type Notifier struct {
	webhookURL string
}

func NewNotifier(webhook string) *Notifier {
	if webhook == "" {
		log.Println("⚠️ 警告: 飞书 Webhook 为空，推送功能将无法工作！")
	}
	return &Notifier{webhookURL: webhook}
}

// Notify 发送飞书卡片消息 (Schema 2.0)
func (n *Notifier) Notify(ctx context.Context, item *domain.ClassifiedItem) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeNotification, "Webhook URL 为空")
	}

	kindLabel := "🪂 空投机会"
	if item.Kind == domain.KindStartup {
		kindLabel = "🚀 初创项目"
	}

	project := "Unknown"
	if item.ProjectName != nil {
		project = *item.ProjectName
	}
	title := fmt.Sprintf("🚨 %s: %s", kindLabel, project)

	mdContent := fmt.Sprintf(`**🎯 置信度:** %.0f%%  |  **🔥 互动量:** %d  |  **👤 作者:** @%s (%d 粉丝)
**⛓️ 链:** %s  |  **🏷️ 赛道:** %s
**💵 融资:** %s  |  **🏦 投资方:** %s

**📝 描述:**
%s

**🤖 判定依据:**
%s
`,
		item.Confidence*100, item.Engagement, item.Author, item.AuthorFollowers,
		orDash(item.Chain), orDash(item.Category),
		orDash(item.FundingAmount), joinOrDash(item.Investors),
		orDash(item.Description),
		item.Reasoning)

	payload := map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"config": map[string]interface{}{
				"update_multi": true,
			},
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": "blue",
			},
			"body": map[string]interface{}{
				"direction": "vertical",
				"elements": []map[string]interface{}{
					{
						"tag":       "markdown",
						"content":   mdContent,
						"text_size": "normal",
					},
					{
						"tag": "button",
						"text": map[string]interface{}{
							"tag":     "plain_text",
							"content": "🔗 查看原推文",
						},
						"type": "primary",
						"behaviors": []map[string]interface{}{
							{
								"type":        "open_url",
								"default_url": item.TweetURL,
							},
						},
					},
				},
			},
		},
	}

	body, _ := json.Marshal(payload)
	err := common.Do(ctx, func() error {
		resp, postErr := http.Post(n.webhookURL, "application/json", bytes.NewBuffer(body))
		if postErr != nil {
			return postErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("飞书 API 报错: 状态码 %d", resp.StatusCode)
		}
		return nil
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}

	return nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func joinOrDash(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	out := list[0]
	for _, s := range list[1:] {
		out += ", " + s
	}
	return out
}
