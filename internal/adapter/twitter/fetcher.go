package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"xscanner/internal/common"
	"xscanner/internal/config"
	"xscanner/internal/domain"

	"golang.org/x/oauth2"
)

const defaultBaseURL = "https://api.twitter.com"

// Fetcher 实现 port.Source，通过 X API v2 按 hashtag 搜索近期推文
// 没有配置 Bearer Token 时退回内置的测试数据，保证流水线随时可跑
type Fetcher struct {
	client     *http.Client
	baseURL    string
	hashtags   []string
	maxTweets  int
	daysBack   int
	nowFunc    func() time.Time
	retryDelay time.Duration
}

// NewFetcher 初始化 X API 客户端
// token 为空时 client 为 nil，FetchTweets 返回内置数据
func NewFetcher(cfg config.TwitterConfig) *Fetcher {
	var client *http.Client

	if cfg.BearerToken != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.BearerToken},
		)
		client = oauth2.NewClient(context.Background(), ts)
	}

	return &Fetcher{
		client:     client,
		baseURL:    defaultBaseURL,
		hashtags:   cfg.Hashtags,
		maxTweets:  cfg.MaxTweets,
		daysBack:   cfg.DaysBack,
		nowFunc:    time.Now,
		retryDelay: time.Second,
	}
}

// X API v2 搜索响应结构（只取需要的字段）
type searchResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		AuthorID      string    `json:"author_id"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
			LikeCount    int `json:"like_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID            string `json:"id"`
			Username      string `json:"username"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"users"`
	} `json:"includes"`
}

// FetchTweets 按配置的 hashtag 逐个搜索并合并结果
// 单个 hashtag 失败只记日志，不影响其他 hashtag
func (f *Fetcher) FetchTweets(ctx context.Context) ([]*domain.Tweet, error) {
	if f.client == nil {
		log.Println("⚠️ 未配置 TWITTER_BEARER_TOKEN，使用内置测试数据")
		return MockTweets(), nil
	}

	perTag := f.maxTweets
	if len(f.hashtags) > 0 {
		perTag = f.maxTweets / len(f.hashtags)
	}
	// X API 要求 max_results 在 [10,100] 区间
	perTag = min(max(perTag, 10), 100)

	var tweets []*domain.Tweet
	for _, hashtag := range f.hashtags {
		batch, err := f.search(ctx, hashtag, perTag)
		if err != nil {
			log.Printf("❌ 搜索 %s 失败: %v", hashtag, err)
			continue
		}
		tweets = append(tweets, batch...)
	}

	return tweets, nil
}

// search 调用 /2/tweets/search/recent 并转换为领域实体
func (f *Fetcher) search(ctx context.Context, query string, maxResults int) ([]*domain.Tweet, error) {
	since := f.nowFunc().AddDate(0, 0, -f.daysBack).UTC().Format(time.RFC3339)

	params := url.Values{}
	params.Set("query", query+" -is:retweet")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("start_time", since)
	params.Set("tweet.fields", "created_at,public_metrics,author_id")
	params.Set("expansions", "author_id")
	params.Set("user.fields", "username,public_metrics")

	endpoint := f.baseURL + "/2/tweets/search/recent?" + params.Encode()

	var parsed searchResponse
	err := common.Do(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if reqErr != nil {
			return reqErr
		}

		resp, reqErr := f.client.Do(req)
		if reqErr != nil {
			return reqErr
		}
		defer resp.Body.Close()

		body, reqErr := io.ReadAll(resp.Body)
		if reqErr != nil {
			return reqErr
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("X API 状态码 %d: %s", resp.StatusCode, body)
		}

		parsed = searchResponse{}
		return json.Unmarshal(body, &parsed)
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(f.retryDelay),
	)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeTwitterAPI, "X API 调用失败", err)
	}

	// author_id → 用户信息
	users := make(map[string]struct {
		name      string
		followers int
	}, len(parsed.Includes.Users))
	for _, u := range parsed.Includes.Users {
		users[u.ID] = struct {
			name      string
			followers int
		}{u.Username, u.PublicMetrics.FollowersCount}
	}

	tweets := make([]*domain.Tweet, 0, len(parsed.Data))
	for _, t := range parsed.Data {
		user := users[t.AuthorID]
		tweets = append(tweets, &domain.Tweet{
			ID:              t.ID,
			Text:            t.Text,
			Author:          user.name,
			AuthorFollowers: user.followers,
			CreatedAt:       t.CreatedAt,
			Likes:           t.PublicMetrics.LikeCount,
			Retweets:        t.PublicMetrics.RetweetCount,
			URL:             fmt.Sprintf("https://twitter.com/%s/status/%s", user.name, t.ID),
		})
	}

	return tweets, nil
}
