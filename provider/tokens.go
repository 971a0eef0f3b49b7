package provider

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/linanwx/cardchat/logger"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// EstimateTokens approximates the token count of text. It is used for
// logging only; the remote service does its own counting.
func EstimateTokens(text string) int {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			logger.Warn("tokenizer unavailable, using length heuristic", "err", err)
			return
		}
		codec = c
	})
	if codec == nil {
		return (len(text) + 3) / 4
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(ids)
}
