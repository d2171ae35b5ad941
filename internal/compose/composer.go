// Package compose renders a resolution bundle into user-facing prose.
// The decision core hands over structured facts only; everything the
// user actually reads is produced here, either from deterministic
// templates or by an LLM working from the same facts.
package compose

import (
	"context"

	"github.com/deskd-io/deskd/pkg/protocol"
)

// Composer turns a bundle into reply text.
type Composer interface {
	Render(ctx context.Context, bundle *protocol.Bundle) (string, error)
}
