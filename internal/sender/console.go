package sender

import (
	"context"
	"fmt"
	"io"
	"os"

	"birthfire/internal/models"
)

// ConsoleSender writes the greeting to a stream. Used for local runs and as
// the log-only channel for users included by the unverified override.
type ConsoleSender struct {
	Out io.Writer
}

func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{Out: os.Stdout}
}

func (s *ConsoleSender) Send(_ context.Context, user models.User) error {
	_, err := fmt.Fprintf(s.Out, "Happy Birthday, %s! (%s)\n", user.Name, user.Email)
	return err
}
