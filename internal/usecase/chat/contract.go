package chat

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain/conversation"
	"github.com/kailas-cloud/ragdex/internal/usecase/answer"
	"github.com/kailas-cloud/ragdex/internal/usecase/retrieval"
	"github.com/kailas-cloud/ragdex/internal/usecase/rewrite"
)

// Retriever finds ranked hits for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query, scope string, topK int) retrieval.Result
}

// Rewriter turns a message into a search query.
type Rewriter interface {
	Rewrite(ctx context.Context, message string, history []conversation.Turn, maxHistory int) rewrite.Result
}

// Answerer produces the reply text.
type Answerer interface {
	Answer(ctx context.Context, question, context string) answer.Result
}

// History stores the conversation per session.
type History interface {
	History(ctx context.Context, session string, limit int) ([]conversation.Turn, error)
	Append(ctx context.Context, session string, turns ...conversation.Turn) error
}
