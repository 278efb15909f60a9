package prompt

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

func loadCodec() tokenizer.Codec {
	codecOnce.Do(func() {
		c, err := tokenizer.ForModel(tokenizer.GPT4)
		if err == nil {
			codec = c
		}
	})
	return codec
}

// CountTokens estimates the token count of text with the GPT-4 encoding,
// falling back to four characters per token.
func CountTokens(text string) int {
	c := loadCodec()
	if c == nil {
		return len(text) / 4
	}
	n, err := c.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return n
}

// EstimateTokens returns the approximate prompt size of r.
func EstimateTokens(r *Request) int {
	if r == nil {
		return 0
	}
	return CountTokens(r.SystemInstruction) + CountTokens(r.UserMessage)
}
