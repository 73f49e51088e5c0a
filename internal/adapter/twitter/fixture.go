package twitter

import (
	"time"

	"xscanner/internal/domain"
)

// MockTweets 返回内置的五条测试推文
// 覆盖 airdrop / startup / ignore 三类，供无 Token 运行和端到端测试使用
func MockTweets() []*domain.Tweet {
	now := time.Now()
	return []*domain.Tweet{
		{
			ID:              "1",
			Text:            "🚀 Exciting news! LayerZero is launching a massive #airdrop campaign. Early supporters get 2x rewards! Connect your wallet at layerzero.network #crypto #DeFi",
			Author:          "cryptowhale",
			AuthorFollowers: 50000,
			CreatedAt:       now,
			Retweets:        245,
			Likes:           892,
			URL:             "https://twitter.com/cryptowhale/status/1",
		},
		{
			ID:              "2",
			Text:            "📢 BREAKING: Polygon Labs just closed a $15M Series A round led by Sequoia Capital! Building the future of Web3 infrastructure on Ethereum. 🔥 #funding #polygon #ethereum",
			Author:          "web3insider",
			AuthorFollowers: 25000,
			CreatedAt:       now,
			Retweets:        156,
			Likes:           423,
			URL:             "https://twitter.com/web3insider/status/2",
		},
		{
			ID:              "3",
			Text:            "🎯 New project alert! ZkSync Era is giving away tokens to early testnet users. Claim yours before the snapshot! #airdrop #zksync #layer2",
			Author:          "airdrophunter",
			AuthorFollowers: 15000,
			CreatedAt:       now,
			Retweets:        89,
			Likes:           234,
			URL:             "https://twitter.com/airdrophunter/status/3",
		},
		{
			ID:              "4",
			Text:            "💡 Introducing ChainLink 3.0 - revolutionizing oracle networks with AI-powered data feeds. Pre-seed round opening soon. Interested VCs, DM us! #startup #oracle #AI",
			Author:          "chainlink_team",
			AuthorFollowers: 100000,
			CreatedAt:       now,
			Retweets:        445,
			Likes:           1200,
			URL:             "https://twitter.com/chainlink_team/status/4",
		},
		{
			ID:              "5",
			Text:            "Just had my coffee ☕ and thinking about the weekend plans. Maybe visit the beach 🏖️ #life #weekend",
			Author:          "randomuser",
			AuthorFollowers: 100,
			CreatedAt:       now,
			Retweets:        2,
			Likes:           5,
			URL:             "https://twitter.com/randomuser/status/5",
		},
	}
}
