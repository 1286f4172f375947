package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/ternarybob/remix/internal/interfaces"
)

// encodingName matches the tokenizer the chat models bill against, so
// chunk windows line up with real context budgets.
const encodingName = "cl100k_base"

// Service wraps a tiktoken encoding behind the TokenCounter interface
type Service struct {
	encoding *tiktoken.Tiktoken
}

// Compile-time interface check
var _ interfaces.TokenCounter = (*Service)(nil)

// New loads the cl100k_base encoding
func New() (*Service, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return &Service{encoding: encoding}, nil
}

func (s *Service) Count(text string) int {
	return len(s.encoding.Encode(text, nil, nil))
}

func (s *Service) Encode(text string) []int {
	return s.encoding.Encode(text, nil, nil)
}

func (s *Service) Decode(tokens []int) string {
	return s.encoding.Decode(tokens)
}
