// Package classify 把远程分类器和本地规则兜底组合成统一的分类策略。
// 每次运行只选定一种策略：配置了远程凭证就走 Remote+Fallback，
// 否则全部流量走本地规则。
package classify

import (
	"context"
	"log"
	"time"

	"xscanner/internal/domain"
	"xscanner/internal/port"
)

// 远程单次调用的超时上限，超时后转本地规则而不是中断批次
const remoteTimeout = 30 * time.Second

// Policy 先尝试远程分类，失败时无条件转本地规则
// 本地规则永远不会失败，所以 Classify 对策略本身不会返回错误
type Policy struct {
	remote   port.Classifier
	fallback port.Classifier
	timeout  time.Duration
}

// WithFallback 用本地规则包装远程分类器
func WithFallback(remote, fallback port.Classifier) *Policy {
	return &Policy{
		remote:   remote,
		fallback: fallback,
		timeout:  remoteTimeout,
	}
}

// Classify 执行 远程 → 失败转本地 的状态机
// 超时、非法响应、网络错误一律视为可恢复，落到本地规则
func (p *Policy) Classify(ctx context.Context, tweet *domain.Tweet) (*domain.ClassifiedItem, error) {
	remoteCtx, cancel := context.WithTimeout(ctx, p.timeout)
	item, err := p.remote.Classify(remoteCtx, tweet)
	cancel()

	if err == nil {
		return item, nil
	}

	log.Printf("⚠️ 推文 %s 远程分类失败，转本地规则: %v", tweet.ID, err)
	return p.fallback.Classify(ctx, tweet)
}
